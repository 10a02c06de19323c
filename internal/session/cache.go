package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/project-hub/internal/auth"
	"github.com/iliyamo/project-hub/internal/model"
)

// Identity is what the client knows about the signed-in user, read from
// the access token.  The client cannot check the signature; the server
// still verifies every request.
type Identity struct {
	UserID      string
	Email       string
	Role        model.RoleName
	Permissions []model.Permission
	ExpiresAt   time.Time
}

// Can reports whether the identity holds a permission, with the same admin
// rule the server applies.
func (id Identity) Can(action, subject string) bool {
	return auth.HasPermission(&auth.Claims{Role: model.RoleFor(id.Role), Permissions: id.Permissions}, action, subject)
}

// Decode reads the identity out of an access token without verifying it.
func Decode(access string) (Identity, error) {
	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return Identity{}, fmt.Errorf("decode access token: %w", err)
	}
	if claims.TokenUse != auth.TokenUseAccess || claims.ExpiresAt == nil {
		return Identity{}, errors.New("decode access token: not an access token")
	}
	return Identity{
		UserID:      claims.Subject,
		Email:       claims.Email,
		Role:        claims.Role.Name,
		Permissions: claims.Permissions,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// pairFrom assembles a TokenPair, reading expiries from the tokens.
func pairFrom(access, refresh string) model.TokenPair {
	pair := model.TokenPair{AccessToken: access, RefreshToken: refresh}
	pair.AccessExpiresAt = expiry(access)
	pair.RefreshExpiresAt = expiry(refresh)
	return pair
}

func expiry(raw string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// Cache holds the current identity for the process.  It follows the
// client: logins and refreshes update it, a cleared store invalidates it.
type Cache struct {
	mu      sync.RWMutex
	client  *Client
	current *Identity
	now     func() time.Time
}

// NewCache attaches a cache to client.
func NewCache(client *Client) *Cache {
	c := &Cache{client: client, now: time.Now}
	client.OnTokens = c.Update
	return c
}

// Current returns the cached identity, if any.
func (c *Cache) Current() (Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return Identity{}, false
	}
	return *c.current, true
}

// Start restores the session from the store.  An expired access token is
// refreshed once; a missing or unusable session yields ErrReauthenticate.
func (c *Cache) Start(ctx context.Context) (Identity, error) {
	pair, err := c.client.Store.Load()
	if err != nil {
		c.Invalidate()
		if errors.Is(err, ErrNoTokens) {
			return Identity{}, ErrReauthenticate
		}
		return Identity{}, err
	}
	id, err := Decode(pair.AccessToken)
	if err == nil && c.now().Before(id.ExpiresAt) {
		c.set(&id)
		return id, nil
	}
	if _, err := c.client.Refresh(ctx); err != nil {
		c.Invalidate()
		return Identity{}, err
	}
	cur, ok := c.Current()
	if !ok {
		return Identity{}, ErrReauthenticate
	}
	return cur, nil
}

// Login signs in through the client and returns the new identity.
func (c *Cache) Login(ctx context.Context, email, password string) (Identity, error) {
	if _, err := c.client.Login(ctx, email, password); err != nil {
		return Identity{}, err
	}
	cur, ok := c.Current()
	if !ok {
		return Identity{}, ErrReauthenticate
	}
	return cur, nil
}

// Logout ends the session on the server and drops the cached identity.
func (c *Cache) Logout(ctx context.Context) error {
	defer c.Invalidate()
	return c.client.Logout(ctx)
}

// Update replaces the cached identity from pair.  A zero or undecodable
// pair invalidates the cache.
func (c *Cache) Update(pair model.TokenPair) {
	if pair.AccessToken == "" {
		c.Invalidate()
		return
	}
	id, err := Decode(pair.AccessToken)
	if err != nil {
		c.Invalidate()
		return
	}
	c.set(&id)
}

// Invalidate forgets the cached identity.
func (c *Cache) Invalidate() { c.set(nil) }

func (c *Cache) set(id *Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = id
}

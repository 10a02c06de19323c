package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
	"github.com/google/uuid"

	"github.com/iliyamo/project-hub/internal/model"
)

// Default lifetimes for the token pair.
const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenConfig carries the signing material and lifetimes shared by the
// issuer and the verifier.  RefreshSecret falls back to AccessSecret when
// empty.  Now is used as the clock when set.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Now           func() time.Time
}

func (c TokenConfig) withDefaults() TokenConfig {
	if c.RefreshSecret == "" {
		c.RefreshSecret = c.AccessSecret
	}
	if c.AccessTTL <= 0 {
		c.AccessTTL = DefaultAccessTTL
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = DefaultRefreshTTL
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Issuer builds and signs HS256 access/refresh token pairs.
type Issuer struct {
	cfg TokenConfig
}

// NewIssuer returns an Issuer for cfg.
func NewIssuer(cfg TokenConfig) *Issuer {
	return &Issuer{cfg: cfg.withDefaults()}
}

// Issue mints a fresh pair for u.  Permissions are resolved from the
// user's role at this moment; tokens issued earlier keep whatever they
// were issued with.
func (i *Issuer) Issue(u model.User) (model.TokenPair, error) {
	now := i.cfg.Now().UTC().Truncate(time.Second)
	sub := strconv.FormatUint(u.ID, 10)

	accessExp := now.Add(i.cfg.AccessTTL)
	access := &Claims{
		Email:       u.Email,
		Role:        u.Role,
		Permissions: PermissionsFor(u.Role.Name),
		TokenUse:    TokenUseAccess,
		RegisteredClaims: i.registered(sub, now, accessExp),
	}
	accessToken, err := sign(access, []byte(i.cfg.AccessSecret))
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshExp := now.Add(i.cfg.RefreshTTL)
	refresh := &RefreshClaims{
		TokenUse:         TokenUseRefresh,
		RegisteredClaims: i.registered(sub, now, refreshExp),
	}
	refreshToken, err := sign(refresh, []byte(i.cfg.RefreshSecret))
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return model.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *Issuer) registered(sub string, now, exp time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    i.cfg.Issuer,
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}
}

func sign(claims jwt.Claims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("empty signing secret")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

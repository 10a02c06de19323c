package session_test

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/project-hub/internal/auth"
	"github.com/iliyamo/project-hub/internal/config"
	"github.com/iliyamo/project-hub/internal/handler"
	"github.com/iliyamo/project-hub/internal/middleware"
	"github.com/iliyamo/project-hub/internal/model"
	"github.com/iliyamo/project-hub/internal/repository"
	"github.com/iliyamo/project-hub/internal/router"
	"github.com/iliyamo/project-hub/internal/session"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// users is a read-only handler.UserStore holding one student.
type users struct{ u model.User }

func (s users) GetByEmail(_ context.Context, email string) (model.User, error) {
	if email == s.u.Email {
		return s.u, nil
	}
	return model.User{}, sql.ErrNoRows
}

func (s users) GetByID(_ context.Context, id uint64) (model.User, error) {
	if id == s.u.ID {
		return s.u, nil
	}
	return model.User{}, sql.ErrNoRows
}

func (users) Create(context.Context, repository.NewUser, int) (model.User, error) {
	return model.User{}, errors.New("read only")
}
func (users) ExistsByEmail(context.Context, string) (bool, error)    { return false, nil }
func (users) ExistsByUsername(context.Context, string) (bool, error) { return false, nil }
func (users) SetRole(context.Context, uint64, model.RoleName) error  { return sql.ErrNoRows }

// newService starts the auth service on an httptest server.  Tokens are
// issued on clk.
func newService(t *testing.T, clk *clock) *httptest.Server {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("student-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	store := users{u: model.User{
		ID:           42,
		Username:     "sam",
		Email:        "sam@example.com",
		PasswordHash: string(hash),
		Role:         model.RoleFor(model.RoleStudent),
		IsActive:     true,
	}}

	tokens := auth.TokenConfig{AccessSecret: "session-test-secret", Issuer: "project-hub", Now: clk.Now}
	issuer := auth.NewIssuer(tokens)
	verifier := auth.NewVerifier(tokens)
	creds, err := auth.NewCredentialVerifier(store, bcrypt.MinCost)
	require.NoError(t, err)
	a := handler.NewAuthHandler(config.Config{Env: "dev", BcryptCost: bcrypt.MinCost}, store, creds,
		issuer, verifier, auth.NewRefresher(verifier, issuer, store, nil))

	e := echo.New()
	e.Use(middleware.Gate(middleware.GateConfig{Verifier: verifier, Routes: middleware.DefaultRoutes()}))
	router.RegisterAuth(e, a, middleware.NewTokenBucket(config.RateLimitConfig{}, nil))

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, c *session.Client, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	return c.Do(req)
}

func TestLoginAndAuthenticatedRequest(t *testing.T) {
	clk := &clock{t: time.Now()}
	srv := newService(t, clk)
	store := session.NewMemoryStore()
	client := session.NewClient(srv.URL, store)
	cache := session.NewCache(client)

	id, err := cache.Login(context.Background(), "sam@example.com", "student-pass")
	require.NoError(t, err)
	assert.Equal(t, "42", id.UserID)
	assert.Equal(t, model.RoleStudent, id.Role)
	assert.True(t, id.Can(auth.ActionCreate, auth.SubjectTask))
	assert.False(t, id.Can(auth.ActionRead, auth.SubjectReport))

	pair, err := store.Load()
	require.NoError(t, err)
	assert.WithinDuration(t, clk.Now().Add(auth.DefaultAccessTTL), pair.AccessExpiresAt, 2*time.Second)
	assert.WithinDuration(t, clk.Now().Add(auth.DefaultRefreshTTL), pair.RefreshExpiresAt, 2*time.Second)

	resp, err := get(t, client, srv.URL+"/api/me")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = client.Login(context.Background(), "sam@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestDoRefreshesExpiredTokenOnce(t *testing.T) {
	clk := &clock{t: time.Now().Add(-2 * time.Hour)}
	srv := newService(t, clk)
	store := session.NewMemoryStore()
	client := session.NewClient(srv.URL, store)
	cache := session.NewCache(client)

	_, err := client.Login(context.Background(), "sam@example.com", "student-pass")
	require.NoError(t, err)
	before, _ := store.Load()
	clk.set(time.Now())

	resp, err := get(t, client, srv.URL+"/api/me")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	after, err := store.Load()
	require.NoError(t, err)
	assert.NotEqual(t, before.AccessToken, after.AccessToken)
	assert.NotEqual(t, before.RefreshToken, after.RefreshToken)

	cur, ok := cache.Current()
	require.True(t, ok)
	assert.True(t, cur.ExpiresAt.After(time.Now()))
}

func TestDoRefreshFailureRequiresLogin(t *testing.T) {
	clk := &clock{t: time.Now().Add(-2 * time.Hour)}
	srv := newService(t, clk)
	store := session.NewMemoryStore()
	client := session.NewClient(srv.URL, store)
	cache := session.NewCache(client)

	_, err := cache.Login(context.Background(), "sam@example.com", "student-pass")
	require.NoError(t, err)
	pair, _ := store.Load()
	pair.RefreshToken = "tampered"
	require.NoError(t, store.Save(pair))
	clk.set(time.Now())

	_, err = get(t, client, srv.URL+"/api/me")
	assert.ErrorIs(t, err, session.ErrReauthenticate)

	_, err = store.Load()
	assert.ErrorIs(t, err, session.ErrNoTokens)
	_, ok := cache.Current()
	assert.False(t, ok)

	// Without any tokens the gate's login redirect surfaces the same way.
	_, err = get(t, client, srv.URL+"/api/me")
	assert.ErrorIs(t, err, session.ErrReauthenticate)
}

func TestCacheStart(t *testing.T) {
	clk := &clock{t: time.Now().Add(-2 * time.Hour)}
	srv := newService(t, clk)
	store := session.NewMemoryStore()

	cache := session.NewCache(session.NewClient(srv.URL, store))
	_, err := cache.Start(context.Background())
	assert.ErrorIs(t, err, session.ErrReauthenticate)

	// An expired access token with a live refresh token restores the
	// session after one refresh.
	client := session.NewClient(srv.URL, store)
	_, err = client.Login(context.Background(), "sam@example.com", "student-pass")
	require.NoError(t, err)
	clk.set(time.Now())

	cache = session.NewCache(session.NewClient(srv.URL, store))
	id, err := cache.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", id.UserID)
	assert.True(t, id.ExpiresAt.After(time.Now()))

	// A fresh token is used as is.
	again := session.NewCache(session.NewClient(srv.URL, store))
	id2, err := again.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id.ExpiresAt, id2.ExpiresAt)
}

func TestLogoutClearsSession(t *testing.T) {
	srv := newService(t, &clock{t: time.Now()})
	store := session.NewMemoryStore()
	cache := session.NewCache(session.NewClient(srv.URL, store))

	_, err := cache.Login(context.Background(), "sam@example.com", "student-pass")
	require.NoError(t, err)
	require.NoError(t, cache.Logout(context.Background()))

	_, ok := cache.Current()
	assert.False(t, ok)
	_, err = store.Load()
	assert.ErrorIs(t, err, session.ErrNoTokens)
}

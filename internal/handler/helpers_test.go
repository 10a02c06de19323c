package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/project-hub/internal/auth"
	"github.com/iliyamo/project-hub/internal/config"
	"github.com/iliyamo/project-hub/internal/handler"
	"github.com/iliyamo/project-hub/internal/middleware"
	"github.com/iliyamo/project-hub/internal/model"
	"github.com/iliyamo/project-hub/internal/repository"
	"github.com/iliyamo/project-hub/internal/router"
)

// fakeUsers is an in-memory handler.UserStore.
type fakeUsers struct {
	mu     sync.Mutex
	byID   map[uint64]model.User
	nextID uint64
	err    error
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[uint64]model.User{}, nextID: 1} }

func (f *fakeUsers) seed(t *testing.T, email, password string, role model.RoleName) model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	f.mu.Lock()
	defer f.mu.Unlock()
	u := model.User{
		ID:           f.nextID,
		Username:     strings.Split(email, "@")[0],
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Test",
		LastName:     "User",
		Role:         model.RoleFor(role),
		IsActive:     true,
	}
	f.byID[u.ID] = u
	f.nextID++
	return u
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.User{}, f.err
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.User{}, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) Create(_ context.Context, in repository.NewUser, cost int) (model.User, error) {
	hash, err := auth.HashPassword(in.Password, cost)
	if err != nil {
		return model.User{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == in.Email {
			return model.User{}, repository.ErrEmailExists
		}
		if u.Username == in.Username {
			return model.User{}, repository.ErrUsernameExists
		}
	}
	u := model.User{
		ID:           f.nextID,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         model.RoleFor(in.Role),
		Profile:      in.Profile,
		IsActive:     true,
	}
	f.byID[u.ID] = u
	f.nextID++
	return u, nil
}

func (f *fakeUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return true, nil
		}
	}
	return false, f.err
}

func (f *fakeUsers) ExistsByUsername(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Username == username {
			return true, nil
		}
	}
	return false, f.err
}

func (f *fakeUsers) SetRole(_ context.Context, id uint64, role model.RoleName) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Role = model.RoleFor(role)
	f.byID[id] = u
	return nil
}

// fakeRevoker records revoked token ids.
type fakeRevoker struct {
	mu  sync.Mutex
	ids map[string]time.Duration
}

func (r *fakeRevoker) Revoke(_ context.Context, id string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[id] = ttl
	return nil
}

func (r *fakeRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	return ok, nil
}

type server struct {
	e        *echo.Echo
	users    *fakeUsers
	verifier *auth.Verifier
	handler  *handler.AuthHandler
	revoker  *fakeRevoker
}

// newServer wires the handlers, the router and the gate the way main does.
func newServer(t *testing.T) *server {
	t.Helper()
	users := newFakeUsers()
	revoker := &fakeRevoker{ids: map[string]time.Duration{}}
	tokens := auth.TokenConfig{AccessSecret: "handler-test-secret", Issuer: "project-hub"}
	issuer := auth.NewIssuer(tokens)
	verifier := auth.NewVerifier(tokens)
	creds, err := auth.NewCredentialVerifier(users, bcrypt.MinCost)
	require.NoError(t, err)
	refresher := auth.NewRefresher(verifier, issuer, users, revoker)

	cfg := config.Config{Env: "dev", BcryptCost: bcrypt.MinCost}
	a := handler.NewAuthHandler(cfg, users, creds, issuer, verifier, refresher)
	a.Revoker = revoker

	e := echo.New()
	e.Use(middleware.Gate(middleware.GateConfig{
		Verifier:    verifier,
		Routes:      middleware.DefaultRoutes(),
		Revocations: revoker,
	}))
	router.RegisterRoutes(e)
	router.RegisterAuth(e, a, middleware.NewTokenBucket(config.RateLimitConfig{}, nil))
	router.RegisterPages(e, handler.NewPageHandler(verifier))

	return &server{e: e, users: users, verifier: verifier, handler: a, revoker: revoker}
}

func (s *server) do(method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, target, bytes.NewReader(b))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// login signs in and returns the cookies the response set.
func (s *server) login(t *testing.T, email, password string) []*http.Cookie {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec.Result().Cookies()
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, ck := range cookies {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

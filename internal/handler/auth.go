package handler

import (
	"context"  // bounds store calls per request
	"errors"   // error classification with errors.Is
	"net/http" // HTTP status codes
	"strings"  // input normalization
	"time"     // request timeouts

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/project-hub/internal/auth"       // credentials, tokens, refresh
	"github.com/iliyamo/project-hub/internal/config"     // app configuration
	"github.com/iliyamo/project-hub/internal/metrics"    // prometheus counters
	"github.com/iliyamo/project-hub/internal/middleware" // auth cookies
	"github.com/iliyamo/project-hub/internal/model"      // users and token pairs
	"github.com/iliyamo/project-hub/internal/queue"      // audit event types
	"github.com/iliyamo/project-hub/internal/repository" // registration input and conflicts
	"github.com/iliyamo/project-hub/internal/service"    // audit event publishing
)

const storeTimeout = 5 * time.Second

// UserStore is the persistence the auth endpoints need.  *repository.UserRepo
// satisfies it.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	Create(ctx context.Context, in repository.NewUser, cost int) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	SetRole(ctx context.Context, id uint64, role model.RoleName) error
}

// TokenRevoker records token ids that must no longer be accepted.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// AuthHandler bundles dependencies for auth endpoints.  Revoker, Events and
// Metrics are optional.
type AuthHandler struct {
	Cfg         config.Config
	Users       UserStore
	Credentials *auth.CredentialVerifier
	Issuer      *auth.Issuer
	Verifier    *auth.Verifier
	Refresher   *auth.Refresher
	Revoker     TokenRevoker
	Events      service.EventPublisher
	Metrics     *metrics.Metrics

	// LoginPath and DefaultRedirect drive the refresh-and-resume flow.
	LoginPath       string
	DefaultRedirect string
}

func NewAuthHandler(cfg config.Config, users UserStore, creds *auth.CredentialVerifier,
	issuer *auth.Issuer, verifier *auth.Verifier, refresher *auth.Refresher) *AuthHandler {
	return &AuthHandler{
		Cfg:             cfg,
		Users:           users,
		Credentials:     creds,
		Issuer:          issuer,
		Verifier:        verifier,
		Refresher:       refresher,
		Events:          service.NopPublisher{},
		LoginPath:       "/login",
		DefaultRedirect: "/dashboard",
	}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginResp struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	User         model.PublicUser `json:"user"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}
type refreshResp struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) secure() bool { return h.Cfg.IsProduction() }

func (h *AuthHandler) publish(c echo.Context, typ string, u model.User, email string) {
	ev := queue.AuthEvent{Type: typ, UserID: u.ID, Email: email, Role: string(u.Role.Name), IP: c.RealIP()}
	if ev.Email == "" {
		ev.Email = u.Email
	}
	service.PublishAsync(h.Events, ev)
}

// Login: verify credentials, issue a pair, set both cookies.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Credentials.Verify(ctx, email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.Metrics.RecordLogin("invalid")
			h.publish(c, queue.EventLoginFailed, model.User{}, email)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		// Store trouble is not a wrong password.
		h.Metrics.RecordLogin("error")
		c.Logger().Errorf("login: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	pair, err := h.Issuer.Issue(u)
	if err != nil {
		h.Metrics.RecordLogin("error")
		c.Logger().Errorf("login: issue tokens: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	middleware.SetAuthCookies(c, pair, h.secure())
	h.Metrics.RecordLogin("success")
	h.publish(c, queue.EventLoggedIn, u, "")

	return c.JSON(http.StatusOK, loginResp{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         u.Public(),
	})
}

// Refresh: exchange a refresh token (body or cookie) for a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	raw := strings.TrimSpace(req.RefreshToken)
	if raw == "" {
		raw = middleware.CookieValue(c, middleware.RefreshCookie)
	}
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	pair, u, err := h.Refresher.Refresh(ctx, raw)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefreshToken) {
			h.Metrics.RecordRefresh("invalid")
			middleware.ClearAuthCookies(c, h.secure())
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		h.Metrics.RecordRefresh("error")
		c.Logger().Errorf("refresh: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}

	middleware.SetAuthCookies(c, pair, h.secure())
	h.Metrics.RecordRefresh("success")
	h.publish(c, queue.EventRefreshed, u, "")

	return c.JSON(http.StatusOK, refreshResp{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// RefreshRedirect is where the gate sends a browser whose access token
// expired.  It refreshes once from the cookie and resumes the stashed
// destination; any failure ends on the login page.
func (h *AuthHandler) RefreshRedirect(c echo.Context) error {
	target := h.resumeTarget(c)
	secure := h.secure()
	middleware.ClearRedirectCookie(c, secure)

	raw := middleware.CookieValue(c, middleware.RefreshCookie)
	if raw == "" {
		middleware.ClearAuthCookies(c, secure)
		return c.Redirect(http.StatusFound, middleware.LoginURL(h.LoginPath, target))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	pair, u, err := h.Refresher.Refresh(ctx, raw)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefreshToken) {
			h.Metrics.RecordRefresh("invalid")
		} else {
			h.Metrics.RecordRefresh("error")
			c.Logger().Errorf("refresh redirect: %v", err)
		}
		middleware.ClearAuthCookies(c, secure)
		return c.Redirect(http.StatusFound, middleware.LoginURL(h.LoginPath, target))
	}

	middleware.SetAuthCookies(c, pair, secure)
	h.Metrics.RecordRefresh("success")
	h.publish(c, queue.EventRefreshed, u, "")
	return c.Redirect(http.StatusFound, target)
}

// resumeTarget returns the stashed destination when it is a local path,
// otherwise the default landing page.
func (h *AuthHandler) resumeTarget(c echo.Context) string {
	target := middleware.CookieValue(c, middleware.RedirectCookie)
	if !isLocalPath(target) || strings.HasPrefix(target, c.Request().URL.Path) {
		return h.DefaultRedirect
	}
	return target
}

func isLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	return !strings.ContainsAny(p, "\r\n")
}

// Logout clears both cookies.  With a revoker configured the presented
// tokens are revoked until they would have expired anyway.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req) // body is optional

	var uid uint64
	if h.Revoker != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
		defer cancel()

		if claims, err := h.Verifier.VerifyAccess(middleware.CookieValue(c, middleware.AccessCookie)); err == nil {
			uid, _ = claims.UserID()
			h.revoke(ctx, c, claims.ID, claims.ExpiresAt.Time)
		}
		raw := strings.TrimSpace(req.RefreshToken)
		if raw == "" {
			raw = middleware.CookieValue(c, middleware.RefreshCookie)
		}
		if claims, err := h.Verifier.VerifyRefresh(raw); err == nil {
			if uid == 0 {
				uid, _ = claims.UserID()
			}
			h.revoke(ctx, c, claims.ID, claims.ExpiresAt.Time)
		}
	}

	middleware.ClearAuthCookies(c, h.secure())
	middleware.ClearRedirectCookie(c, h.secure())
	h.publish(c, queue.EventLoggedOut, model.User{ID: uid}, "")
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AuthHandler) revoke(ctx context.Context, c echo.Context, tokenID string, exp time.Time) {
	ttl := time.Until(exp)
	if tokenID == "" || ttl <= 0 {
		return
	}
	if err := h.Revoker.Revoke(ctx, tokenID, ttl); err != nil {
		c.Logger().Warnf("logout: revoke %s: %v", tokenID, err)
	}
}

package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-hub/internal/auth"
	"github.com/iliyamo/project-hub/internal/metrics"
)

// Gate outcomes, also used as metric labels.
const (
	OutcomePublic       = "public"
	OutcomeForward      = "forward"
	OutcomeLogin        = "login"
	OutcomeRefresh      = "refresh"
	OutcomeUnauthorized = "unauthorized"
)

// GateConfig wires the request gate.  Revocations, Metrics and Logger are
// optional.
type GateConfig struct {
	Verifier         *auth.Verifier
	Routes           RouteTable
	Revocations      auth.RevocationChecker
	Metrics          *metrics.Metrics
	Logger           echo.Logger
	LoginPath        string
	RefreshPath      string
	UnauthorizedPath string
	RedirectTTL      time.Duration
	Secure           bool
}

func (cfg GateConfig) withDefaults() GateConfig {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.RefreshPath == "" {
		cfg.RefreshPath = "/api/auth/refresh"
	}
	if cfg.UnauthorizedPath == "" {
		cfg.UnauthorizedPath = "/unauthorized"
	}
	if cfg.RedirectTTL <= 0 {
		cfg.RedirectTTL = 60 * time.Second
	}
	return cfg
}

// Gate returns the middleware that runs in front of every route.  For each
// request it classifies the path, verifies the access-token cookie,
// enforces role-gated areas and forwards the identity.  Failures never
// reach the client as errors: they become redirects to the login page, the
// refresh endpoint or the unauthorized page.
func Gate(cfg GateConfig) echo.MiddlewareFunc {
	cfg = cfg.withDefaults()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			// Identity headers are only trusted when set here.
			req.Header.Del(HeaderUserID)
			req.Header.Del(HeaderUserRole)

			path := req.URL.Path
			class := cfg.Routes.Classify(path)
			if class.Access == AccessPublic {
				cfg.Metrics.RecordGate(OutcomePublic)
				return next(c)
			}

			raw := CookieValue(c, AccessCookie)
			if raw == "" {
				return cfg.toLogin(c)
			}

			claims, err := cfg.Verifier.VerifyAccess(raw)
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) && CookieValue(c, RefreshCookie) != "" {
					SetRedirectCookie(c, req.URL.RequestURI(), cfg.RedirectTTL, cfg.Secure)
					cfg.Metrics.RecordGate(OutcomeRefresh)
					return c.Redirect(http.StatusFound, cfg.RefreshPath)
				}
				if !errors.Is(err, auth.ErrExpiredToken) && cfg.Logger != nil {
					cfg.Logger.Warnf("gate: rejected access token for %s: %v", path, err)
				}
				return cfg.toLogin(c)
			}

			if cfg.Revocations != nil {
				revoked, err := cfg.Revocations.IsRevoked(req.Context(), claims.ID)
				switch {
				case err != nil:
					// Revocation is best effort; an unreachable store must
					// not lock every user out.
					if cfg.Logger != nil {
						cfg.Logger.Warnf("gate: revocation check failed: %v", err)
					}
				case revoked:
					return cfg.toLogin(c)
				}
			}

			if class.Access == AccessRole && !auth.CanAccessRole(claims, class.Role) {
				cfg.Metrics.RecordGate(OutcomeUnauthorized)
				return c.Redirect(http.StatusFound, cfg.UnauthorizedPath)
			}

			SetClaims(c, claims)
			if cfg.Routes.IsAPI(path) {
				req.Header.Set(HeaderUserID, claims.Subject)
				req.Header.Set(HeaderUserRole, string(claims.Role.Name))
			}
			cfg.Metrics.RecordGate(OutcomeForward)
			return next(c)
		}
	}
}

func (cfg GateConfig) toLogin(c echo.Context) error {
	cfg.Metrics.RecordGate(OutcomeLogin)
	return c.Redirect(http.StatusFound, LoginURL(cfg.LoginPath, c.Request().URL.RequestURI()))
}

// LoginURL builds the login redirect carrying returnTo.
func LoginURL(loginPath, returnTo string) string {
	if returnTo == "" || returnTo == "/" {
		return loginPath
	}
	return loginPath + "?returnTo=" + url.QueryEscape(returnTo)
}

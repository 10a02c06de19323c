package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-hub/internal/auth"
)

// Trusted identity headers set by the gate on API requests.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

const claimsKey = "auth_claims"

// SetClaims stores verified claims on the request context.
func SetClaims(c echo.Context, claims *auth.Claims) { c.Set(claimsKey, claims) }

// ClaimsFrom returns the claims stored by the gate, if any.
func ClaimsFrom(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

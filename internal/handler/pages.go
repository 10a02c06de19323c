package handler

import (
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-hub/internal/auth"
	"github.com/iliyamo/project-hub/internal/middleware"
)

// PageHandler serves the few server-side pages owned by this service.  The
// role areas are JSON stand-ins for the frontend.
type PageHandler struct {
	Verifier *auth.Verifier
}

func NewPageHandler(v *auth.Verifier) *PageHandler { return &PageHandler{Verifier: v} }

var unauthorizedPage = template.Must(template.New("unauthorized").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Access Denied</title></head>
<body>
<h1>Access Denied</h1>
<p>You do not have permission to view this page.</p>
<p><a href="{{.Home}}">{{.Label}}</a></p>
</body>
</html>
`))

// Unauthorized renders the access denied page with a link back to the
// caller's own home, or to the login page when no valid session exists.
func (p *PageHandler) Unauthorized(c echo.Context) error {
	data := struct{ Home, Label string }{Home: "/login", Label: "Sign in"}
	if claims, err := p.Verifier.VerifyAccess(middleware.CookieValue(c, middleware.AccessCookie)); err == nil {
		data.Home = auth.HomePath(claims.Role.Name)
		data.Label = "Go to your dashboard"
	}
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusForbidden)
	return unauthorizedPage.Execute(c.Response(), data)
}

// Area describes the identity visiting a role area or the dashboard.
func (p *PageHandler) Area(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := middleware.ClaimsFrom(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"area":  name,
			"user":  claims.Subject,
			"email": claims.Email,
			"role":  claims.Role.Name,
			"home":  auth.HomePath(claims.Role.Name),
		})
	}
}

// Login is the landing point of gate redirects.  The form itself lives in
// the frontend; this echoes where the user will be sent back to.
func (p *PageHandler) Login(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"page":     "login",
		"action":   "/api/auth/login",
		"returnTo": c.QueryParam("returnTo"),
	})
}

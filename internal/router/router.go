package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                             // import the Echo web framework to handle routing
	"github.com/prometheus/client_golang/prometheus"          // metric registry
	"github.com/prometheus/client_golang/prometheus/promhttp" // /metrics exposition

	"github.com/iliyamo/project-hub/internal/handler"    // handlers for auth, identity and pages
	"github.com/iliyamo/project-hub/internal/middleware" // role guards
	"github.com/iliyamo/project-hub/internal/model"      // role names
)

// RegisterRoutes registers the public operational endpoints.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterMetrics exposes gatherer on /metrics.  It belongs on the
// internal listener, not on the public instance behind the gate.
func RegisterMetrics(e *echo.Echo, gatherer prometheus.Gatherer) {
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// RegisterAuth registers the auth endpoints under /api/auth and the
// identity endpoints behind the gate.  limiter guards the credential
// endpoints.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/login", a.Login, limiter)
	g.POST("/register", a.Register, limiter)
	g.POST("/refresh", a.Refresh, limiter)
	// GET /refresh is the gate's resume flow and is not rate limited; it
	// is only reached through a redirect.
	g.GET("/refresh", a.RefreshRedirect)
	g.POST("/logout", a.Logout)

	api := e.Group("/api")
	api.GET("/me", a.Me)
	api.GET("/authz/check", a.AuthzCheck)

	admin := e.Group("/api/admin", middleware.RequireRole(model.RoleAdmin))
	admin.PUT("/users/:id/role", a.SetRole)
}

// RegisterPages registers the server-side pages and the role areas.
func RegisterPages(e *echo.Echo, p *handler.PageHandler) {
	e.GET("/login", p.Login)
	e.GET("/unauthorized", p.Unauthorized)
	e.GET("/dashboard", p.Area("dashboard"))
	for _, r := range model.AllRoles() {
		e.GET("/"+string(r), p.Area(string(r)))
	}
}

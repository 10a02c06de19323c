package middleware

import (
	"path"
	"strings"

	"github.com/iliyamo/project-hub/internal/model"
)

// Access is the classification of a request path.
type Access int

const (
	// AccessAuthenticated requires any valid identity.
	AccessAuthenticated Access = iota
	// AccessPublic is forwarded without looking at credentials.
	AccessPublic
	// AccessRole requires a specific role.
	AccessRole
)

// RouteClass is the result of classifying a path.
type RouteClass struct {
	Access Access
	Role   model.RoleName
}

// RolePrefix gates a path prefix on a role.
type RolePrefix struct {
	Prefix string
	Role   model.RoleName
}

// RouteTable is the static route classification.  Prefixes match on path
// segment boundaries unless they end with a slash.  PublicFiles prefixes
// only make paths public when the last segment has a file extension.
type RouteTable struct {
	Public         []string
	PublicPrefixes []string
	PublicFiles    []string
	Roles          []RolePrefix
	APIPrefix      string
}

// DefaultRoutes is the classification used by the server.
func DefaultRoutes() RouteTable {
	return RouteTable{
		Public: []string{
			"/", "/login", "/register", "/unauthorized", "/healthz",
			"/favicon.ico", "/robots.txt",
			"/api/auth/login", "/api/auth/register", "/api/auth/refresh", "/api/auth/logout",
		},
		PublicPrefixes: []string{"/_next/", "/static/"},
		PublicFiles:    []string{"/public/", "/assets/"},
		Roles: []RolePrefix{
			{Prefix: "/admin", Role: model.RoleAdmin},
			{Prefix: "/api/admin", Role: model.RoleAdmin},
			{Prefix: "/advisor", Role: model.RoleAdvisor},
			{Prefix: "/api/advisor", Role: model.RoleAdvisor},
			{Prefix: "/student", Role: model.RoleStudent},
			{Prefix: "/api/student", Role: model.RoleStudent},
			{Prefix: "/evaluator", Role: model.RoleEvaluator},
			{Prefix: "/api/evaluator", Role: model.RoleEvaluator},
		},
		APIPrefix: "/api",
	}
}

// Classify maps path to exactly one class.
func (t RouteTable) Classify(p string) RouteClass {
	for _, pub := range t.Public {
		if p == pub {
			return RouteClass{Access: AccessPublic}
		}
	}
	for _, prefix := range t.PublicPrefixes {
		if hasPathPrefix(p, prefix) {
			return RouteClass{Access: AccessPublic}
		}
	}
	if path.Ext(p) != "" {
		for _, prefix := range t.PublicFiles {
			if hasPathPrefix(p, prefix) {
				return RouteClass{Access: AccessPublic}
			}
		}
	}
	for _, r := range t.Roles {
		if hasPathPrefix(p, r.Prefix) {
			return RouteClass{Access: AccessRole, Role: r.Role}
		}
	}
	return RouteClass{Access: AccessAuthenticated}
}

// IsAPI reports whether path belongs to the JSON API.
func (t RouteTable) IsAPI(path string) bool {
	return t.APIPrefix != "" && hasPathPrefix(path, t.APIPrefix)
}

func hasPathPrefix(path, prefix string) bool {
	if strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(path, prefix)
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/project-hub/internal/model"
)

func TestRouteTable_Classify(t *testing.T) {
	routes := DefaultRoutes()
	tests := []struct {
		path string
		want RouteClass
	}{
		{"/", RouteClass{Access: AccessPublic}},
		{"/login", RouteClass{Access: AccessPublic}},
		{"/api/auth/refresh", RouteClass{Access: AccessPublic}},
		{"/_next/static/chunk.js", RouteClass{Access: AccessPublic}},
		{"/public/logo.svg", RouteClass{Access: AccessPublic}},
		{"/assets/app.css", RouteClass{Access: AccessPublic}},
		{"/public/reports", RouteClass{Access: AccessAuthenticated}},
		{"/public/reports/q3", RouteClass{Access: AccessAuthenticated}},
		{"/assets", RouteClass{Access: AccessAuthenticated}},
		{"/metrics", RouteClass{Access: AccessAuthenticated}},
		{"/admin", RouteClass{Access: AccessRole, Role: model.RoleAdmin}},
		{"/admin/users/4", RouteClass{Access: AccessRole, Role: model.RoleAdmin}},
		{"/api/advisor/feedback", RouteClass{Access: AccessRole, Role: model.RoleAdvisor}},
		{"/evaluator", RouteClass{Access: AccessRole, Role: model.RoleEvaluator}},
		{"/administer", RouteClass{Access: AccessAuthenticated}},
		{"/dashboard", RouteClass{Access: AccessAuthenticated}},
		{"/api/me", RouteClass{Access: AccessAuthenticated}},
		{"/login/extra", RouteClass{Access: AccessAuthenticated}},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, routes.Classify(tt.path), "path %s", tt.path)
	}
}

func TestRouteTable_IsAPI(t *testing.T) {
	routes := DefaultRoutes()
	assert.True(t, routes.IsAPI("/api/me"))
	assert.True(t, routes.IsAPI("/api"))
	assert.False(t, routes.IsAPI("/apiary"))
	assert.False(t, routes.IsAPI("/dashboard"))
}

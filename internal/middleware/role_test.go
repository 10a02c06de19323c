package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/project-hub/internal/auth"
	mw "github.com/iliyamo/project-hub/internal/middleware"
	"github.com/iliyamo/project-hub/internal/model"
)

func runGuard(guard echo.MiddlewareFunc, claims *auth.Claims) int {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/x", nil), rec)
	if claims != nil {
		mw.SetClaims(c, claims)
	}
	h := guard(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	_ = h(c)
	return rec.Code
}

func TestRequireRole(t *testing.T) {
	guard := mw.RequireRole(model.RoleAdmin, model.RoleAdvisor)
	assert.Equal(t, http.StatusUnauthorized, runGuard(guard, nil))
	assert.Equal(t, http.StatusForbidden, runGuard(guard, &auth.Claims{Role: model.RoleFor(model.RoleStudent)}))
	assert.Equal(t, http.StatusNoContent, runGuard(guard, &auth.Claims{Role: model.RoleFor(model.RoleAdvisor)}))
}

func TestRequirePermission(t *testing.T) {
	guard := mw.RequirePermission(auth.ActionRead, auth.SubjectReport)
	student := &auth.Claims{Role: model.RoleFor(model.RoleStudent), Permissions: auth.PermissionsFor(model.RoleStudent)}
	advisor := &auth.Claims{Role: model.RoleFor(model.RoleAdvisor), Permissions: auth.PermissionsFor(model.RoleAdvisor)}
	admin := &auth.Claims{Role: model.RoleFor(model.RoleAdmin)}

	assert.Equal(t, http.StatusUnauthorized, runGuard(guard, nil))
	assert.Equal(t, http.StatusForbidden, runGuard(guard, student))
	assert.Equal(t, http.StatusNoContent, runGuard(guard, advisor))
	assert.Equal(t, http.StatusNoContent, runGuard(guard, admin))
}

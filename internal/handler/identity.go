package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-hub/internal/auth"
	"github.com/iliyamo/project-hub/internal/middleware"
	"github.com/iliyamo/project-hub/internal/model"
)

// Me returns the identity the gate forwarded.  The id and role come from
// the trusted headers, never from a client token.
func (h *AuthHandler) Me(c echo.Context) error {
	id := c.Request().Header.Get(middleware.HeaderUserID)
	role := c.Request().Header.Get(middleware.HeaderUserRole)
	claims, ok := middleware.ClaimsFrom(c)
	if id == "" || !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	perms := claims.Permissions
	if perms == nil {
		perms = []model.Permission{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":          id,
		"email":       claims.Email,
		"role":        role,
		"permissions": perms,
	})
}

// AuthzCheck answers whether the caller may perform action on subject.
func (h *AuthHandler) AuthzCheck(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	action := strings.TrimSpace(c.QueryParam("action"))
	subject := strings.TrimSpace(c.QueryParam("subject"))
	if action == "" || subject == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "action and subject are required"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"action":  action,
		"subject": subject,
		"allowed": auth.HasPermission(claims, action, subject),
	})
}

type setRoleReq struct {
	Role string `json:"role"`
}

// SetRole changes a user's role.  Tokens already issued keep the old role
// until the next refresh.
func (h *AuthHandler) SetRole(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req setRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role, ok := model.ParseRoleName(req.Role)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	if err := h.Users.SetRole(ctx, id, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		c.Logger().Errorf("set role: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "role": role})
}

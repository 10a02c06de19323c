package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-hub/internal/model"
	"github.com/iliyamo/project-hub/internal/queue"
	"github.com/iliyamo/project-hub/internal/repository"
)

// registerReq is the registration payload.  The trailing fields are role
// specific and end up in the user's profile.
type registerReq struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`

	StudentID    string `json:"studentId"`
	Program      string `json:"program"`
	Department   string `json:"department"`
	Title        string `json:"title"`
	Organization string `json:"organization"`
	Expertise    string `json:"expertise"`
}

// Validate checks the payload.  The returned error is a validation.Errors
// keyed by JSON field name.
func (r registerReq) Validate() error {
	role, _ := model.ParseRoleName(r.Role)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Role, validation.Required, validation.By(validRole)),
		validation.Field(&r.StudentID, requiredFor(role, model.RoleStudent)...),
		validation.Field(&r.Department, requiredFor(role, model.RoleAdvisor)...),
		validation.Field(&r.Organization, requiredFor(role, model.RoleEvaluator)...),
	)
}

// profile collects the role specific fields for role.
func (r registerReq) profile(role model.RoleName) map[string]string {
	fields := map[string]string{}
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			fields[k] = v
		}
	}
	switch role {
	case model.RoleStudent:
		set("studentId", r.StudentID)
		set("program", r.Program)
	case model.RoleAdvisor:
		set("department", r.Department)
		set("title", r.Title)
	case model.RoleEvaluator:
		set("organization", r.Organization)
		set("expertise", r.Expertise)
	}
	return fields
}

// validRole accepts the roles open to self-registration.  Admins are only
// made through the admin role endpoint.
func validRole(value any) error {
	s, _ := value.(string)
	role, ok := model.ParseRoleName(s)
	if !ok || role == model.RoleAdmin {
		return errors.New("must be one of student, advisor, evaluator")
	}
	return nil
}

func requiredFor(role, want model.RoleName) []validation.Rule {
	if role != want {
		return nil
	}
	return []validation.Rule{validation.Required}
}

// fieldErrors flattens validation errors into a field→message map.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, e := range verrs {
			if e != nil {
				out[field] = e.Error()
			}
		}
	}
	return out
}

// Register creates a user after validating the payload and checking that
// neither email nor username is taken.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  "validation failed",
			"fields": fieldErrors(err),
		})
	}
	role, _ := model.ParseRoleName(req.Role)

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	taken, err := h.Users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		c.Logger().Errorf("register: check email: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}
	if taken {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}
	taken, err = h.Users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		c.Logger().Errorf("register: check username: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}
	if taken {
		return c.JSON(http.StatusConflict, echo.Map{"error": "username already taken"})
	}

	u, err := h.Users.Create(ctx, repository.NewUser{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      role,
		Profile:   req.profile(role),
	}, h.Cfg.BcryptCost)
	if err != nil {
		// The existence checks race with concurrent registrations; the
		// unique keys have the final word.
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		case errors.Is(err, repository.ErrUsernameExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already taken"})
		}
		c.Logger().Errorf("register: create user: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	h.publish(c, queue.EventRegistered, u, "")
	return c.JSON(http.StatusCreated, u.Public())
}

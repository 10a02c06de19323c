package auth

import "github.com/iliyamo/project-hub/internal/model"

// HasRole reports whether claims carry exactly role.
func HasRole(claims *Claims, role model.RoleName) bool {
	return claims != nil && claims.Role.Name == role
}

// HasPermission reports whether claims allow action on subject.  Admins
// are allowed everything regardless of the permission list; for every
// other role the pair must be present verbatim.
func HasPermission(claims *Claims, action, subject string) bool {
	if claims == nil {
		return false
	}
	if claims.Role.Name == model.RoleAdmin {
		return true
	}
	for _, p := range claims.Permissions {
		if p.Action == action && p.Subject == subject {
			return true
		}
	}
	return false
}

// CanAccessRole decides whether claims may enter an area gated on
// required.  Admins may additionally enter advisor areas.
func CanAccessRole(claims *Claims, required model.RoleName) bool {
	if claims == nil {
		return false
	}
	if claims.Role.Name == required {
		return true
	}
	return claims.Role.Name == model.RoleAdmin && required == model.RoleAdvisor
}

// HomePath is the landing page for a role.
func HomePath(role model.RoleName) string {
	switch role {
	case model.RoleAdmin:
		return "/admin"
	case model.RoleStudent:
		return "/student"
	case model.RoleAdvisor:
		return "/advisor"
	case model.RoleEvaluator:
		return "/evaluator"
	default:
		return "/dashboard"
	}
}

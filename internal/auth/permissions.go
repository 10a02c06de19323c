package auth

import "github.com/iliyamo/project-hub/internal/model"

// Actions and subjects used in the role permission table.
const (
	ActionManage = "manage"
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"

	SubjectAll        = "all"
	SubjectProject    = "project"
	SubjectTask       = "task"
	SubjectFeedback   = "feedback"
	SubjectReport     = "report"
	SubjectEvaluation = "evaluation"
)

// rolePermissions is the single source of truth for the capabilities
// denormalized into access tokens at issue time.
var rolePermissions = map[model.RoleName][]model.Permission{
	model.RoleAdmin: {
		{Action: ActionManage, Subject: SubjectAll},
	},
	model.RoleStudent: {
		{Action: ActionRead, Subject: SubjectProject},
		{Action: ActionCreate, Subject: SubjectProject},
		{Action: ActionUpdate, Subject: SubjectProject},
		{Action: ActionRead, Subject: SubjectTask},
		{Action: ActionCreate, Subject: SubjectTask},
		{Action: ActionUpdate, Subject: SubjectTask},
	},
	model.RoleAdvisor: {
		{Action: ActionRead, Subject: SubjectProject},
		{Action: ActionUpdate, Subject: SubjectProject},
		{Action: ActionRead, Subject: SubjectTask},
		{Action: ActionCreate, Subject: SubjectFeedback},
		{Action: ActionRead, Subject: SubjectReport},
	},
	model.RoleEvaluator: {
		{Action: ActionRead, Subject: SubjectProject},
		{Action: ActionRead, Subject: SubjectTask},
		{Action: ActionCreate, Subject: SubjectEvaluation},
		{Action: ActionRead, Subject: SubjectReport},
	},
}

// PermissionsFor returns a copy of the permissions granted to role.
// Unknown roles get an empty, non-nil slice.
func PermissionsFor(role model.RoleName) []model.Permission {
	perms := rolePermissions[role]
	out := make([]model.Permission, len(perms))
	copy(out, perms)
	return out
}

package model

import (
    "strings"
    "time"
)

// RoleName is the closed set of roles an identity can hold.  The wire
// format (JSON, JWT claims, x-user-role header) is the lowercase string.
type RoleName string

const (
    RoleAdmin     RoleName = "admin"
    RoleStudent   RoleName = "student"
    RoleAdvisor   RoleName = "advisor"
    RoleEvaluator RoleName = "evaluator"
)

// legacyRoleNames maps older spellings still found in stored rows and
// clients onto the canonical names.
var legacyRoleNames = map[string]RoleName{
    "user":      RoleStudent,
    "developer": RoleAdvisor,
}

// ParseRoleName normalizes s into a RoleName.  The boolean is false when
// the name is not one of the known roles; the returned value is then the
// trimmed lowercase input so callers can still carry it around.
func ParseRoleName(s string) (RoleName, bool) {
    v := strings.ToLower(strings.TrimSpace(s))
    if alias, ok := legacyRoleNames[v]; ok {
        return alias, true
    }
    r := RoleName(v)
    return r, r.IsValid()
}

// IsValid reports whether r is one of the known roles.
func (r RoleName) IsValid() bool {
    switch r {
    case RoleAdmin, RoleStudent, RoleAdvisor, RoleEvaluator:
        return true
    default:
        return false
    }
}

// ID returns the canonical roles.id for r, or 0 for unknown roles.
func (r RoleName) ID() int {
    switch r {
    case RoleAdmin:
        return 1
    case RoleStudent:
        return 2
    case RoleAdvisor:
        return 3
    case RoleEvaluator:
        return 4
    default:
        return 0
    }
}

func (r RoleName) String() string { return string(r) }

// AllRoles lists the known roles in id order.
func AllRoles() []RoleName {
    return []RoleName{RoleAdmin, RoleStudent, RoleAdvisor, RoleEvaluator}
}

// Role mirrors a row of the `roles` table and the role record embedded
// in access tokens.
type Role struct {
    ID   int      `json:"id"`
    Name RoleName `json:"name"`
}

// RoleFor builds the canonical Role record for a name.
func RoleFor(name RoleName) Role {
    return Role{ID: name.ID(), Name: name}
}

// Permission is a single (action, subject) capability, e.g. read/project.
type Permission struct {
    Action  string `json:"action"`
    Subject string `json:"subject"`
}

// User represents an application user as stored in the `users` table
// joined with `roles`.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login handle.
//  Email        – unique email address, stored lowercased.
//  PasswordHash – bcrypt hashed password.
//  FirstName    – given name.
//  LastName     – family name.
//  Role         – role record resolved through users.role_id.
//  Profile      – role specific registration fields (student id, department, ...).
//  IsActive     – whether the account may log in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64
    Username     string
    Email        string
    PasswordHash string
    FirstName    string
    LastName     string
    Role         Role
    Profile      map[string]string
    IsActive     bool
    CreatedAt    time.Time
    UpdatedAt    time.Time
}

// PublicUser is the user shape returned by login and register.
type PublicUser struct {
    ID        uint64   `json:"id"`
    Username  string   `json:"username"`
    Email     string   `json:"email"`
    FirstName string   `json:"firstName"`
    LastName  string   `json:"lastName"`
    Role      RoleName `json:"role"`
}

// Public strips credentials and internal fields from u.
func (u User) Public() PublicUser {
    return PublicUser{
        ID:        u.ID,
        Username:  u.Username,
        Email:     u.Email,
        FirstName: u.FirstName,
        LastName:  u.LastName,
        Role:      u.Role.Name,
    }
}

// TokenPair is the access/refresh pair minted at login and on every refresh.
type TokenPair struct {
    AccessToken      string    `json:"accessToken"`
    RefreshToken     string    `json:"refreshToken"`
    AccessExpiresAt  time.Time `json:"accessExpiresAt"`
    RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

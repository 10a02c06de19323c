package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoleName(t *testing.T) {
	tests := []struct {
		in    string
		want  RoleName
		valid bool
	}{
		{"admin", RoleAdmin, true},
		{" Student ", RoleStudent, true},
		{"ADVISOR", RoleAdvisor, true},
		{"evaluator", RoleEvaluator, true},
		{"user", RoleStudent, true},
		{"Developer", RoleAdvisor, true},
		{"superuser", RoleName("superuser"), false},
		{"", RoleName(""), false},
	}
	for _, tt := range tests {
		got, ok := ParseRoleName(tt.in)
		assert.Equalf(t, tt.want, got, "input %q", tt.in)
		assert.Equalf(t, tt.valid, ok, "input %q", tt.in)
	}
}

func TestRoleIDs(t *testing.T) {
	seen := map[int]bool{}
	for _, r := range AllRoles() {
		id := r.ID()
		assert.NotZero(t, id)
		assert.False(t, seen[id], "duplicate id for %s", r)
		seen[id] = true
		assert.Equal(t, Role{ID: id, Name: r}, RoleFor(r))
	}
	assert.Zero(t, RoleName("guest").ID())
}

func TestUserPublic(t *testing.T) {
	u := User{
		ID:           7,
		Username:     "ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$12$secret",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Role:         RoleFor(RoleAdvisor),
		IsActive:     true,
	}
	assert.Equal(t, PublicUser{
		ID:        7,
		Username:  "ada",
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Role:      RoleAdvisor,
	}, u.Public())
}

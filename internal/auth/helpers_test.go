package auth_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/project-hub/internal/auth"
	"github.com/iliyamo/project-hub/internal/model"
)

const testSecret = "test-signing-secret"

// memUsers is an in-memory UserFinder/UserLoader.
type memUsers struct {
	mu    sync.RWMutex
	byID  map[uint64]model.User
	err   error
	calls int
}

func newMemUsers(users ...model.User) *memUsers {
	m := &memUsers{byID: map[uint64]model.User{}}
	for _, u := range users {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memUsers) put(u model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[u.ID] = u
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.calls++
	if m.err != nil {
		return model.User{}, m.err
	}
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return model.User{}, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func newUser(t *testing.T, id uint64, email, password string, role model.RoleName) model.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	return model.User{
		ID:           id,
		Username:     email[:3],
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         model.RoleFor(role),
		IsActive:     true,
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func tokenConfig(now func() time.Time) auth.TokenConfig {
	return auth.TokenConfig{AccessSecret: testSecret, Issuer: "project-hub", Now: now}
}

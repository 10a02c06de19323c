package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/project-hub/internal/model"
)

// UserFinder looks identities up by email.  Implementations return
// sql.ErrNoRows (possibly wrapped) when nothing matches.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// CredentialVerifier checks an email/password pair against stored hashes.
type CredentialVerifier struct {
	users     UserFinder
	dummyHash string
}

// NewCredentialVerifier builds a verifier.  cost is used for the decoy
// hash compared against when the email is unknown, so both failure paths
// spend the same bcrypt work.
func NewCredentialVerifier(users UserFinder, cost int) (*CredentialVerifier, error) {
	dummy, err := HashPassword("decoy-password-never-matches", cost)
	if err != nil {
		return nil, fmt.Errorf("prepare decoy hash: %w", err)
	}
	return &CredentialVerifier{users: users, dummyHash: dummy}, nil
}

// Verify returns the stored user when password matches.  Unknown emails,
// wrong passwords and inactive accounts all yield ErrInvalidCredentials;
// storage failures are returned wrapped and must not be reported to the
// client as bad credentials.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := v.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			VerifyPassword(v.dummyHash, password)
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !VerifyPassword(u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}

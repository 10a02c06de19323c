package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/project-hub/internal/model"
)

// UserLoader loads the current state of an identity by id.  Not found is
// reported as sql.ErrNoRows.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// RevocationChecker reports whether a token id was revoked at logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Refresher exchanges a refresh token for a brand-new pair.
type Refresher struct {
	verifier *Verifier
	issuer   *Issuer
	users    UserLoader
	revoked  RevocationChecker
}

// NewRefresher wires a Refresher.  revoked may be nil.
func NewRefresher(v *Verifier, i *Issuer, users UserLoader, revoked RevocationChecker) *Refresher {
	return &Refresher{verifier: v, issuer: i, users: users, revoked: revoked}
}

// Refresh verifies raw as a refresh token, reloads the user so role
// changes take effect, and issues a new pair.  Any problem with the token
// or the identity it names is ErrInvalidRefreshToken; infrastructure
// failures are returned wrapped.  It never retries.
func (r *Refresher) Refresh(ctx context.Context, raw string) (model.TokenPair, model.User, error) {
	claims, err := r.verifier.VerifyRefresh(raw)
	if err != nil {
		return model.TokenPair{}, model.User{}, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}
	if r.revoked != nil {
		revoked, err := r.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return model.TokenPair{}, model.User{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return model.TokenPair{}, model.User{}, ErrInvalidRefreshToken
		}
	}
	id, err := claims.UserID()
	if err != nil {
		return model.TokenPair{}, model.User{}, ErrInvalidRefreshToken
	}
	u, err := r.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TokenPair{}, model.User{}, ErrInvalidRefreshToken
		}
		return model.TokenPair{}, model.User{}, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return model.TokenPair{}, model.User{}, ErrInvalidRefreshToken
	}
	pair, err := r.issuer.Issue(u)
	if err != nil {
		return model.TokenPair{}, model.User{}, err
	}
	return pair, u, nil
}

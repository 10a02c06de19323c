package auth

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/project-hub/internal/model"
)

// token_use values; they keep access and refresh tokens from being
// swapped for each other.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// Claims is the decoded access token payload.  Subject (sub) holds the
// user id in decimal form.
type Claims struct {
	Email       string             `json:"email"`
	Role        model.Role         `json:"role"`
	Permissions []model.Permission `json:"permissions"`
	TokenUse    string             `json:"token_use"`
	jwt.RegisteredClaims
}

// SubjectID returns the user id carried by the token.
func (c *Claims) SubjectID() string { return c.Subject }

// UserID parses the subject as a numeric user id.
func (c *Claims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// TokenID returns the jti claim.
func (c *Claims) TokenID() string { return c.ID }

// RefreshClaims is the minimal refresh token payload: only the subject.
type RefreshClaims struct {
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// UserID parses the subject as a numeric user id.
func (c *RefreshClaims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

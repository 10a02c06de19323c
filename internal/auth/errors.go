// Package auth implements the identity core: credential checks, token
// issuance and verification, role/permission evaluation and the refresh
// exchange.  Everything here except the credential and refresh lookups is
// pure and safe for concurrent use.
package auth

import "errors"

// ErrInvalidCredentials is returned for both unknown emails and wrong
// passwords so callers cannot tell which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrMissingToken is returned when a request carries no access token.
var ErrMissingToken = errors.New("missing token")

// ErrInvalidToken covers bad signatures, unexpected algorithms, malformed
// payloads and tokens of the wrong kind.  Treat it as tampering.
var ErrInvalidToken = errors.New("invalid token")

// ErrExpiredToken is the expected failure of a well-signed token whose
// exp is not after now.
var ErrExpiredToken = errors.New("token expired")

// ErrInvalidRefreshToken means the refresh chain is broken and the user
// has to log in again.
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// ErrUnauthorized is returned for a valid identity lacking the role or
// permission a resource requires.
var ErrUnauthorized = errors.New("unauthorized")

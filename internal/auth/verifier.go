package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks signatures and expiry of tokens minted by Issuer.  It
// performs no I/O.
type Verifier struct {
	cfg    TokenConfig
	parser *jwt.Parser
}

// NewVerifier returns a Verifier for cfg.
func NewVerifier(cfg TokenConfig) *Verifier {
	cfg = cfg.withDefaults()
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &Verifier{cfg: cfg, parser: jwt.NewParser(opts...)}
}

// VerifyAccess validates an access token and returns its claims.  It
// fails with ErrExpiredToken for a correctly signed token past its exp,
// and with ErrInvalidToken for everything else.
func (v *Verifier) VerifyAccess(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	if err := v.parse(raw, claims, v.cfg.AccessSecret); err != nil {
		return nil, err
	}
	if claims.TokenUse != TokenUseAccess || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token.  Access tokens are rejected
// even when both kinds share a secret.
func (v *Verifier) VerifyRefresh(raw string) (*RefreshClaims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}
	claims := &RefreshClaims{}
	if err := v.parse(raw, claims, v.cfg.RefreshSecret); err != nil {
		return nil, err
	}
	if claims.TokenUse != TokenUseRefresh || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (v *Verifier) parse(raw string, claims jwt.Claims, secret string) error {
	_, err := v.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err == nil {
		return nil
	}
	// The parser checks the signature before any claim, so an expired
	// error here always comes from an authentic token.
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrExpiredToken
	}
	return fmt.Errorf("%w: %v", ErrInvalidToken, err)
}

package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore keeps ids of logged-out tokens in Redis until the token
// would have expired anyway.  A nil *RevocationStore or nil client
// revokes nothing and reports nothing revoked.
type RevocationStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRevocationStore(rdb *redis.Client) *RevocationStore {
	return &RevocationStore{rdb: rdb, prefix: "revoked"}
}

func (s *RevocationStore) key(tokenID string) string { return s.prefix + ":" + tokenID }

// Revoke records tokenID for ttl.  Non-positive ttls are ignored since
// such a token already fails verification.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if s == nil || s.rdb == nil || tokenID == "" || ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, s.key(tokenID), 1, ttl).Err()
}

// IsRevoked reports whether tokenID was revoked.
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s == nil || s.rdb == nil || tokenID == "" {
		return false, nil
	}
	n, err := s.rdb.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

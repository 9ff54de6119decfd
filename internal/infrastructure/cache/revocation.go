package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sessionhub/internal/domain/auth"
)

// DefaultRevocationTimeout bounds each revocation store round trip.
const DefaultRevocationTimeout = 500 * time.Millisecond

// RevocationKey returns the store key for a revoked token: bl:{kind}:{jti}.
func RevocationKey(kind auth.TokenKind, jti string) string {
	return "bl:" + string(kind) + ":" + jti
}

// RevocationStore keeps revoked token IDs in Redis with a TTL equal to the
// token's remaining lifetime, so records never outlive their tokens.
type RevocationStore struct {
	client  redis.Cmdable
	timeout time.Duration
	now     func() time.Time
}

// NewRevocationStore creates a store. A non-positive timeout uses DefaultRevocationTimeout.
func NewRevocationStore(client redis.Cmdable, timeout time.Duration) *RevocationStore {
	if timeout <= 0 {
		timeout = DefaultRevocationTimeout
	}
	return &RevocationStore{client: client, timeout: timeout, now: time.Now}
}

// Revoke writes the revocation record. Tokens already past expiry are skipped.
func (s *RevocationStore) Revoke(ctx context.Context, kind auth.TokenKind, jti string, expiresAt time.Time) error {
	remaining := expiresAt.Unix() - s.now().Unix()
	if remaining <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, RevocationKey(kind, jti), "1", time.Duration(remaining)*time.Second).Err(); err != nil {
		return fmt.Errorf("revoke %s token: %w", kind, err)
	}
	return nil
}

// RevokeOnce writes the record with SET NX and reports whether this call created it.
func (s *RevocationStore) RevokeOnce(ctx context.Context, kind auth.TokenKind, jti string, expiresAt time.Time) (bool, error) {
	remaining := expiresAt.Unix() - s.now().Unix()
	if remaining <= 0 {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	created, err := s.client.SetNX(ctx, RevocationKey(kind, jti), "1", time.Duration(remaining)*time.Second).Result()
	if err != nil {
		return false, fmt.Errorf("revoke %s token: %w", kind, err)
	}
	return created, nil
}

// IsRevoked reports whether a record exists for (kind, jti).
func (s *RevocationStore) IsRevoked(ctx context.Context, kind auth.TokenKind, jti string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.client.Get(ctx, RevocationKey(kind, jti)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("check %s token: %w", kind, err)
	}
}

var _ auth.RevocationStore = (*RevocationStore)(nil)

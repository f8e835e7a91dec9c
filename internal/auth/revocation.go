package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRevocationUnavailable is returned when no revocation backend is configured.
var ErrRevocationUnavailable = errors.New("revocation store unavailable")

const revokedKeyPrefix = "revoked:"

// RevocationList tracks revoked token ids until their natural expiry.
// Entries carry a TTL equal to the token's remaining life, so the list
// never grows past the set of tokens that could still validate.
type RevocationList struct {
	client *redis.Client
}

// NewRevocationList wraps a redis client; a nil client disables revocation.
func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client}
}

// Revoke marks a token id as dead until expiresAt.
func (l *RevocationList) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if l == nil || l.client == nil {
		return ErrRevocationUnavailable
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired; nothing left to revoke.
		return nil
	}
	return l.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err()
}

// IsRevoked reports whether a token id is on the list. A read, never a
// write: the session verifier stays side-effect-free.
func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if l == nil || l.client == nil {
		return false, nil
	}
	err := l.client.Get(ctx, revokedKeyPrefix+tokenID).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

package token

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "keygate:revoked:"

// Revoker tracks tokens invalidated before their natural expiry. Logout puts
// the token's jti here; entries live exactly as long as the token would have,
// so the set stays bounded without any sweeper.
type Revoker struct {
	client *redis.Client
}

// NewRevoker constructs a Revoker backed by the given Redis client.
func NewRevoker(client *redis.Client) *Revoker {
	return &Revoker{client: client}
}

// Revoke denylists a token id until the given expiry.
func (r *Revoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err()
}

// IsRevoked reports whether a token id has been denylisted.
func (r *Revoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

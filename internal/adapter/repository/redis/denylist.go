package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenDenylist tracks revoked JWT IDs until their natural expiry.
// Logging out writes the token's jti here; the auth middleware rejects any
// token whose jti is present.
type TokenDenylist struct {
	client *redis.Client
	prefix string
}

// NewTokenDenylist creates a new TokenDenylist.
func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{
		client: client,
		prefix: "revoked:",
	}
}

// Revoke marks jti as revoked for ttl. A non-positive ttl means the token
// already expired and there is nothing to record.
func (d *TokenDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, d.prefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether jti has been revoked.
func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := d.client.Get(ctx, d.prefix+jti).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

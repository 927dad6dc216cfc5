package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked:"

// Cache is a TTL denylist keyed by token jti. Entries expire together with
// the token they revoke, so the set never outgrows the live token population.
type Cache struct {
	rdb *redis.Client
}

func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Revoke marks the jti revoked for ttl. Overwriting an existing entry is
// harmless, so the call is idempotent.
func (c *Cache) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return fmt.Errorf("jti is required")
	}
	if ttl <= 0 {
		// Token already expired, nothing left to deny.
		return nil
	}
	return c.rdb.Set(ctx, keyPrefix+jti, "", ttl).Err()
}

// IsRevoked reports whether the jti is present in the denylist.
func (c *Cache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

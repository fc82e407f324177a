package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = 15 * time.Minute

// CredentialCache keeps login→digest pairs in Redis so hot accounts
// skip a store lookup on every protected request. Caching is safe here:
// accounts are never updated or deleted once registered.
type CredentialCache struct {
	rdb *redis.Client
}

func NewCredentialCache(rdb *redis.Client) *CredentialCache {
	return &CredentialCache{rdb: rdb}
}

// Get returns the cached digest for a login, or "" on a miss.
func (c *CredentialCache) Get(ctx context.Context, login string) (string, error) {
	val, err := c.rdb.Get(ctx, "cred:"+login).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Put stores a digest for a login with the cache TTL.
func (c *CredentialCache) Put(ctx context.Context, login, digest string) error {
	return c.rdb.Set(ctx, "cred:"+login, digest, cacheTTL).Err()
}

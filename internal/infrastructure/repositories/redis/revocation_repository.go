package redis

import (
	"context"
	"fmt"
	"time"

	"syncboard/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "syncboard:revoked:"

// RedisRevocationRepository keeps the token denylist in Redis so revoked
// tokens stay revoked across gateway restarts. Entries expire with the
// token itself.
type RedisRevocationRepository struct {
	client *redis.Client
}

func NewRedisRevocationRepository(client *redis.Client) ports.RevocationRepository {
	return &RedisRevocationRepository{client: client}
}

func (r *RedisRevocationRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (r *RedisRevocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

package repositories

import (
	"context"

	"syncboard/internal/core/ports"
	"syncboard/internal/infrastructure/repositories/memory"
	redisrepo "syncboard/internal/infrastructure/repositories/redis"
	"syncboard/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory creates repositories with fallback support
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Redis.Enabled,
		logger:   logger,
	}

	// Try to connect to Redis if enabled
	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis token revocation store")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory repositories")
	}

	return factory, nil
}

// CreatePresenceRepository creates the room membership table. Membership
// lives and dies with the process, so this is in-memory regardless of Redis.
func (f *RepositoryFactory) CreatePresenceRepository() ports.PresenceRepository {
	return memory.NewMemoryPresenceRepository()
}

// CreateRevocationRepository creates the token denylist (Redis or memory
// with fallback).
func (f *RepositoryFactory) CreateRevocationRepository() ports.RevocationRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisRevocationRepository(f.redisClient)
	}
	return memory.NewMemoryRevocationRepository()
}

// Close closes Redis connection if used
func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

// HealthCheck checks Redis connection health
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}

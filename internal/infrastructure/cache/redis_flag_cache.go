// Package cache provides Redis-backed memoization and the flagged-account
// cache, with in-memory fallbacks for tests and local runs.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/domain/repository"
	"pokemon-trade-fraud-engine/internal/infrastructure/config"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"
)

const flagKeyPrefix = "fraud:flagged:"

// RedisFlagCache stores recent review-worthy verdicts per account in Redis.
// Entries expire with their TTL; the cache is advisory context only.
type RedisFlagCache struct {
	client *redis.Client
	logger *logger.Logger
}

// NewRedisClient creates a Redis client from config
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisFlagCache creates a Redis-backed flagged account cache
func NewRedisFlagCache(client *redis.Client, log *logger.Logger) repository.FlaggedAccountCache {
	return &RedisFlagCache{
		client: client,
		logger: log.WithComponent("redis-flag-cache"),
	}
}

// MarkFlagged records that an account received the given risk level
func (c *RedisFlagCache) MarkFlagged(ctx context.Context, userID string, level entity.RiskLevel, ttl time.Duration) error {
	if err := c.client.Set(ctx, flagKeyPrefix+userID, string(level), ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark account flagged: %w", err)
	}
	c.logger.Debug("Account flagged",
		zap.String("user_id", userID),
		zap.String("level", string(level)),
		zap.Duration("ttl", ttl))
	return nil
}

// RecentFlag returns the cached risk level for an account, or "" when absent
func (c *RedisFlagCache) RecentFlag(ctx context.Context, userID string) (entity.RiskLevel, error) {
	value, err := c.client.Get(ctx, flagKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read flagged account: %w", err)
	}
	return entity.RiskLevel(value), nil
}

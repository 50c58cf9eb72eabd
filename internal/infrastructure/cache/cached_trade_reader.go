package cache

import (
	"context"
	"encoding/json"
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

// CachedTradeHistoryReader memoizes ledger reads in Redis for the short
// windows where detectors re-query the same neighborhoods. Cache faults fall
// through to the underlying reader; they never fail an analysis.
type CachedTradeHistoryReader struct {
	inner  repository.TradeHistoryReader
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedTradeHistoryReader wraps a reader with Redis memoization
func NewCachedTradeHistoryReader(
	inner repository.TradeHistoryReader,
	client *redis.Client,
	cfg *config.RedisConfig,
	log *logger.Logger,
) repository.TradeHistoryReader {
	return &CachedTradeHistoryReader{
		inner:  inner,
		client: client,
		ttl:    cfg.TTL,
		logger: log.WithComponent("cached-trade-reader"),
	}
}

// GetTradesForUser retrieves trade edges touching a user since the given time
func (c *CachedTradeHistoryReader) GetTradesForUser(ctx context.Context, userID string, since time.Time) ([]entity.TradeEdge, error) {
	key := fmt.Sprintf("fraud:trades:user:%s:%d", userID, since.Unix())
	var edges []entity.TradeEdge
	if c.lookup(ctx, key, &edges) {
		return edges, nil
	}

	edges, err := c.inner.GetTradesForUser(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, edges)
	return edges, nil
}

// GetTradesBetween retrieves trade edges between two users since the given time
func (c *CachedTradeHistoryReader) GetTradesBetween(ctx context.Context, user1ID, user2ID string, since time.Time) ([]entity.TradeEdge, error) {
	// Normalize the pair so both orderings share one entry
	a, b := user1ID, user2ID
	if a > b {
		a, b = b, a
	}
	key := fmt.Sprintf("fraud:trades:pair:%s:%s:%d", a, b, since.Unix())
	var edges []entity.TradeEdge
	if c.lookup(ctx, key, &edges) {
		return edges, nil
	}

	edges, err := c.inner.GetTradesBetween(ctx, user1ID, user2ID, since)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, edges)
	return edges, nil
}

// GetOwnershipHistory retrieves the ordered provenance chain of one asset
func (c *CachedTradeHistoryReader) GetOwnershipHistory(ctx context.Context, pokemonID string) ([]entity.OwnershipRecord, error) {
	key := "fraud:ownership:" + pokemonID
	var records []entity.OwnershipRecord
	if c.lookup(ctx, key, &records) {
		return records, nil
	}

	records, err := c.inner.GetOwnershipHistory(ctx, pokemonID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, records)
	return records, nil
}

// GetMarketListings retrieves recent listing/sale records for a species
func (c *CachedTradeHistoryReader) GetMarketListings(ctx context.Context, species string, since time.Time) ([]entity.MarketActivityData, error) {
	key := fmt.Sprintf("fraud:listings:%s:%d", species, since.Unix())
	var listings []entity.MarketActivityData
	if c.lookup(ctx, key, &listings) {
		return listings, nil
	}

	listings, err := c.inner.GetMarketListings(ctx, species, since)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, listings)
	return listings, nil
}

func (c *CachedTradeHistoryReader) lookup(ctx context.Context, key string, out interface{}) bool {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CachedTradeHistoryReader) store(ctx context.Context, key string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Debug("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

package cache

import (
	"context"
	"sync"
	"time"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/domain/repository"
)

// MemoryFlagCache is an in-memory FlaggedAccountCache for tests and runs
// without Redis
type MemoryFlagCache struct {
	mu      sync.RWMutex
	entries map[string]flagEntry
}

type flagEntry struct {
	level     entity.RiskLevel
	expiresAt time.Time
}

// NewMemoryFlagCache creates an empty in-memory flagged account cache
func NewMemoryFlagCache() *MemoryFlagCache {
	return &MemoryFlagCache{entries: make(map[string]flagEntry)}
}

var _ repository.FlaggedAccountCache = (*MemoryFlagCache)(nil)

// MarkFlagged records that an account received the given risk level
func (c *MemoryFlagCache) MarkFlagged(ctx context.Context, userID string, level entity.RiskLevel, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = flagEntry{level: level, expiresAt: time.Now().Add(ttl)}
	return nil
}

// RecentFlag returns the cached risk level for an account, or "" when absent
func (c *MemoryFlagCache) RecentFlag(ctx context.Context, userID string) (entity.RiskLevel, error) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return "", nil
	}
	return entry.level, nil
}

package identity

import (
	"context"
	"fmt"
	"sync"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/domain/repository"
)

// MemoryAccountDirectory is an in-memory AccountDirectory for tests, local
// development and the demo script
type MemoryAccountDirectory struct {
	mu         sync.RWMutex
	profiles   map[string]entity.AccountProfile
	pairCounts map[[2]string]int64
}

// NewMemoryAccountDirectory creates an empty in-memory account directory
func NewMemoryAccountDirectory() *MemoryAccountDirectory {
	return &MemoryAccountDirectory{
		profiles:   make(map[string]entity.AccountProfile),
		pairCounts: make(map[[2]string]int64),
	}
}

var _ repository.AccountDirectory = (*MemoryAccountDirectory)(nil)

// PutProfile stores or replaces an account profile
func (d *MemoryAccountDirectory) PutProfile(profile entity.AccountProfile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profiles[profile.UserID] = profile
}

// SetPairTrades records how many prior trades a pair of accounts shares
func (d *MemoryAccountDirectory) SetPairTrades(user1ID, user2ID string, count int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pairCounts[pairKey(user1ID, user2ID)] = count
}

// GetProfile retrieves the account metadata for a user
func (d *MemoryAccountDirectory) GetProfile(ctx context.Context, userID string) (*entity.AccountProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	profile, ok := d.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("account not found: %s", userID)
	}
	return &profile, nil
}

// CountTradesBetween returns how many prior trades a pair of accounts shares
func (d *MemoryAccountDirectory) CountTradesBetween(ctx context.Context, user1ID, user2ID string) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pairCounts[pairKey(user1ID, user2ID)], nil
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

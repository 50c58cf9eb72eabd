package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/domain/repository"
)

// MemoryTradeLedger is an in-memory TradeHistoryReader and TradeLedgerWriter
// for tests, local development and the demo script
type MemoryTradeLedger struct {
	mu        sync.RWMutex
	edges     []entity.TradeEdge
	ownership map[string][]entity.OwnershipRecord
	listings  map[string][]entity.MarketActivityData
}

// NewMemoryTradeLedger creates an empty in-memory trade ledger
func NewMemoryTradeLedger() *MemoryTradeLedger {
	return &MemoryTradeLedger{
		ownership: make(map[string][]entity.OwnershipRecord),
		listings:  make(map[string][]entity.MarketActivityData),
	}
}

var (
	_ repository.TradeHistoryReader = (*MemoryTradeLedger)(nil)
	_ repository.TradeLedgerWriter  = (*MemoryTradeLedger)(nil)
)

// GetTradesForUser retrieves trade edges touching a user since the given time
func (m *MemoryTradeLedger) GetTradesForUser(ctx context.Context, userID string, since time.Time) ([]entity.TradeEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []entity.TradeEdge
	for _, e := range m.edges {
		if (e.From == userID || e.To == userID) && !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	sortEdges(out)
	return out, nil
}

// GetTradesBetween retrieves trade edges between two users since the given time
func (m *MemoryTradeLedger) GetTradesBetween(ctx context.Context, user1ID, user2ID string, since time.Time) ([]entity.TradeEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []entity.TradeEdge
	for _, e := range m.edges {
		pair := (e.From == user1ID && e.To == user2ID) || (e.From == user2ID && e.To == user1ID)
		if pair && !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	sortEdges(out)
	return out, nil
}

// GetOwnershipHistory retrieves the ordered provenance chain of one asset
func (m *MemoryTradeLedger) GetOwnershipHistory(ctx context.Context, pokemonID string) ([]entity.OwnershipRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := append([]entity.OwnershipRecord(nil), m.ownership[pokemonID]...)
	sort.Slice(records, func(i, j int) bool {
		return records[i].ObtainedAt.Before(records[j].ObtainedAt)
	})
	return records, nil
}

// GetMarketListings retrieves recent listing/sale records for a species
func (m *MemoryTradeLedger) GetMarketListings(ctx context.Context, species string, since time.Time) ([]entity.MarketActivityData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []entity.MarketActivityData
	for _, l := range m.listings[species] {
		if !l.ListedAt.Before(since) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ListedAt.Before(out[j].ListedAt)
	})
	return out, nil
}

// RecordTradeEdge records one completed trade leg
func (m *MemoryTradeLedger) RecordTradeEdge(ctx context.Context, edge *entity.TradeEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges = append(m.edges, *edge)
	return nil
}

// BatchRecordTradeEdges records multiple trade legs in a batch
func (m *MemoryTradeLedger) BatchRecordTradeEdges(ctx context.Context, edges []*entity.TradeEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range edges {
		m.edges = append(m.edges, *e)
	}
	return nil
}

// RecordOwnershipTransfer appends an entry to an asset's provenance chain
func (m *MemoryTradeLedger) RecordOwnershipTransfer(ctx context.Context, pokemonID string, record *entity.OwnershipRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ownership[pokemonID] = append(m.ownership[pokemonID], *record)
	return nil
}

// RecordMarketListing records one marketplace listing or sale
func (m *MemoryTradeLedger) RecordMarketListing(ctx context.Context, listing *entity.MarketActivityData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[listing.Species] = append(m.listings[listing.Species], *listing)
	return nil
}

func sortEdges(edges []entity.TradeEdge) {
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].Timestamp.Before(edges[j].Timestamp)
	})
}

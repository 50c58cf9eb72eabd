package repository

import (
	"context"
	"time"

	"pokemon-trade-fraud-engine/internal/domain/entity"
)

// TradeHistoryReader defines the read-only queries the engine runs against the trade ledger
type TradeHistoryReader interface {
	// GetTradesForUser retrieves trade edges touching a user since the given time
	GetTradesForUser(ctx context.Context, userID string, since time.Time) ([]entity.TradeEdge, error)

	// GetTradesBetween retrieves trade edges between two users since the given time
	GetTradesBetween(ctx context.Context, user1ID, user2ID string, since time.Time) ([]entity.TradeEdge, error)

	// GetOwnershipHistory retrieves the ordered provenance chain of one asset
	GetOwnershipHistory(ctx context.Context, pokemonID string) ([]entity.OwnershipRecord, error)

	// GetMarketListings retrieves recent listing/sale records for a species
	GetMarketListings(ctx context.Context, species string, since time.Time) ([]entity.MarketActivityData, error)
}

// TradeLedgerWriter defines the write side used by the indexing pipeline,
// never by the analysis engine itself
type TradeLedgerWriter interface {
	// RecordTradeEdge records one completed trade leg
	RecordTradeEdge(ctx context.Context, edge *entity.TradeEdge) error

	// RecordOwnershipTransfer appends an entry to an asset's provenance chain
	RecordOwnershipTransfer(ctx context.Context, pokemonID string, record *entity.OwnershipRecord) error

	// RecordMarketListing records one marketplace listing or sale
	RecordMarketListing(ctx context.Context, listing *entity.MarketActivityData) error

	// BatchRecordTradeEdges records multiple trade legs in a batch
	BatchRecordTradeEdges(ctx context.Context, edges []*entity.TradeEdge) error
}

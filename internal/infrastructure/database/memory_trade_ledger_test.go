package database

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokemon-trade-fraud-engine/internal/domain/entity"
)

func recordEdge(t *testing.T, ledger *MemoryTradeLedger, id, from, to string, at time.Time) {
	t.Helper()
	require.NoError(t, ledger.RecordTradeEdge(context.Background(), &entity.TradeEdge{
		TradeID:   id,
		From:      from,
		To:        to,
		Value:     decimal.NewFromInt(100),
		Timestamp: at,
	}))
}

func TestGetTradesForUserFiltersBySince(t *testing.T) {
	now := time.Now()
	ledger := NewMemoryTradeLedger()

	recordEdge(t, ledger, "old", "a", "b", now.Add(-48*time.Hour))
	recordEdge(t, ledger, "recent", "a", "c", now.Add(-2*time.Hour))
	recordEdge(t, ledger, "other", "x", "y", now.Add(-time.Hour))

	edges, err := ledger.GetTradesForUser(context.Background(), "a", now.Add(-24*time.Hour))
	require.NoError(t, err)

	require.Len(t, edges, 1)
	assert.Equal(t, "recent", edges[0].TradeID)
}

func TestGetTradesForUserSortsByTimestamp(t *testing.T) {
	now := time.Now()
	ledger := NewMemoryTradeLedger()

	recordEdge(t, ledger, "second", "a", "b", now.Add(-time.Hour))
	recordEdge(t, ledger, "first", "b", "a", now.Add(-3*time.Hour))
	recordEdge(t, ledger, "third", "a", "c", now.Add(-time.Minute))

	edges, err := ledger.GetTradesForUser(context.Background(), "a", now.Add(-24*time.Hour))
	require.NoError(t, err)

	require.Len(t, edges, 3)
	assert.Equal(t, "first", edges[0].TradeID)
	assert.Equal(t, "second", edges[1].TradeID)
	assert.Equal(t, "third", edges[2].TradeID)
}

func TestGetTradesBetweenMatchesEitherDirection(t *testing.T) {
	now := time.Now()
	ledger := NewMemoryTradeLedger()

	recordEdge(t, ledger, "ab", "a", "b", now.Add(-3*time.Hour))
	recordEdge(t, ledger, "ba", "b", "a", now.Add(-2*time.Hour))
	recordEdge(t, ledger, "ac", "a", "c", now.Add(-time.Hour))

	edges, err := ledger.GetTradesBetween(context.Background(), "a", "b", now.Add(-24*time.Hour))
	require.NoError(t, err)

	require.Len(t, edges, 2)
	assert.Equal(t, "ab", edges[0].TradeID)
	assert.Equal(t, "ba", edges[1].TradeID)
}

func TestGetOwnershipHistoryOrdersByObtainedAt(t *testing.T) {
	now := time.Now()
	ledger := NewMemoryTradeLedger()
	ctx := context.Background()

	// Inserted out of order on purpose
	require.NoError(t, ledger.RecordOwnershipTransfer(ctx, "pkm-1", &entity.OwnershipRecord{
		UserID: "second", ObtainedAt: now.Add(-time.Hour), Method: entity.ObtainMethodTrade,
	}))
	require.NoError(t, ledger.RecordOwnershipTransfer(ctx, "pkm-1", &entity.OwnershipRecord{
		UserID: "first", ObtainedAt: now.Add(-48 * time.Hour), Method: entity.ObtainMethodCatch,
	}))

	records, err := ledger.GetOwnershipHistory(ctx, "pkm-1")
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].UserID)
	assert.Equal(t, "second", records[1].UserID)
}

func TestBatchRecordTradeEdges(t *testing.T) {
	now := time.Now()
	ledger := NewMemoryTradeLedger()

	err := ledger.BatchRecordTradeEdges(context.Background(), []*entity.TradeEdge{
		{TradeID: "t1", From: "a", To: "b", Timestamp: now.Add(-time.Hour)},
		{TradeID: "t1", From: "b", To: "a", Timestamp: now.Add(-time.Hour)},
	})
	require.NoError(t, err)

	edges, err := ledger.GetTradesForUser(context.Background(), "a", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestGetMarketListingsFiltersSpeciesAndWindow(t *testing.T) {
	now := time.Now()
	ledger := NewMemoryTradeLedger()
	ctx := context.Background()

	require.NoError(t, ledger.RecordMarketListing(ctx, &entity.MarketActivityData{
		ListingID: "l1", Species: "eevee", SellerID: "s1",
		Price: decimal.NewFromInt(500), ListedAt: now.Add(-time.Hour),
	}))
	require.NoError(t, ledger.RecordMarketListing(ctx, &entity.MarketActivityData{
		ListingID: "l2", Species: "eevee", SellerID: "s2",
		Price: decimal.NewFromInt(510), ListedAt: now.Add(-300 * time.Hour),
	}))
	require.NoError(t, ledger.RecordMarketListing(ctx, &entity.MarketActivityData{
		ListingID: "l3", Species: "pidgey", SellerID: "s3",
		Price: decimal.NewFromInt(50), ListedAt: now.Add(-time.Hour),
	}))

	listings, err := ledger.GetMarketListings(ctx, "eevee", now.Add(-168*time.Hour))
	require.NoError(t, err)

	require.Len(t, listings, 1)
	assert.Equal(t, "l1", listings[0].ListingID)
}

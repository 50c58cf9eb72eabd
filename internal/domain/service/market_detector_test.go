package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/infrastructure/database"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"
)

func seedListing(ledger *database.MemoryTradeLedger, id, species, seller, buyer string, price float64, sold bool, at time.Time) {
	ledger.RecordMarketListing(context.Background(), &entity.MarketActivityData{
		ListingID: id,
		Species:   species,
		SellerID:  seller,
		BuyerID:   buyer,
		Price:     decimal.NewFromFloat(price),
		Sold:      sold,
		ListedAt:  at,
	})
}

func TestDetectSpeciesPriceFixing(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	// Six near-identical listings from only two sellers
	for i := 0; i < 6; i++ {
		seller := "fixer-1"
		if i%2 == 0 {
			seller = "fixer-2"
		}
		seedListing(ledger, fmt.Sprintf("l%d", i), "eevee", seller, "", 500, false, now.Add(-time.Duration(i)*time.Hour))
	}

	detector := NewMarketManipulationDetector(ledger, testMarketConfig(), logger.NewNopLogger())
	analysis, err := detector.DetectSpecies(context.Background(), "eevee", now)
	require.NoError(t, err)

	assert.True(t, analysis.PriceFixingDetected)
	require.NotEmpty(t, analysis.SuspiciousPrices)
	assert.Equal(t, 6, analysis.SuspiciousPrices[0].ListingCount)
	assert.ElementsMatch(t, []string{"fixer-1", "fixer-2"}, analysis.SuspiciousPrices[0].InvolvedSellers)
	assert.GreaterOrEqual(t, analysis.RiskScore, 0.4)
}

func TestDetectSpeciesPumpAndDump(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	// Early sales around 10, a spike to 25, then a collapse to 5
	prices := []float64{10, 10, 10, 25, 5, 5, 5}
	for i, p := range prices {
		seedListing(ledger, fmt.Sprintf("s%d", i), "magikarp", fmt.Sprintf("seller-%d", i), fmt.Sprintf("buyer-%d", i), p, true, now.Add(-time.Duration(len(prices)-i)*time.Hour))
	}

	detector := NewMarketManipulationDetector(ledger, testMarketConfig(), logger.NewNopLogger())
	analysis, err := detector.DetectSpecies(context.Background(), "magikarp", now)
	require.NoError(t, err)

	assert.True(t, analysis.PumpAndDumpDetected)
	assert.GreaterOrEqual(t, analysis.RiskScore, 0.45)
}

func TestDetectSpeciesWashTrading(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	// The same pair selling back and forth
	for i := 0; i < 3; i++ {
		seedListing(ledger, fmt.Sprintf("w%d", i), "ditto", "wash-a", "wash-b", 300, true, now.Add(-time.Duration(2*i+1)*time.Hour))
		seedListing(ledger, fmt.Sprintf("x%d", i), "ditto", "wash-b", "wash-a", 300, true, now.Add(-time.Duration(2*i)*time.Hour))
	}

	detector := NewMarketManipulationDetector(ledger, testMarketConfig(), logger.NewNopLogger())
	analysis, err := detector.DetectSpecies(context.Background(), "ditto", now)
	require.NoError(t, err)

	assert.True(t, analysis.WashTradingDetected)
	assert.ElementsMatch(t, []string{"wash-a", "wash-b"}, analysis.CircularTradingPartners)
	assert.GreaterOrEqual(t, analysis.RiskScore, 0.5)
}

func TestDetectSpeciesSelfSalesAreNotWashTrading(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	// One account repeatedly buying its own listings back
	for i := 0; i < 4; i++ {
		seedListing(ledger, fmt.Sprintf("s%d", i), "ditto", "loner", "loner", 300, true, now.Add(-time.Duration(i)*time.Hour))
	}

	detector := NewMarketManipulationDetector(ledger, testMarketConfig(), logger.NewNopLogger())
	analysis, err := detector.DetectSpecies(context.Background(), "ditto", now)
	require.NoError(t, err)

	assert.False(t, analysis.WashTradingDetected)
	assert.Empty(t, analysis.CircularTradingPartners)
}

func TestDetectSpeciesHealthyMarket(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	// Varied prices, varied sellers, one-way sales
	prices := []float64{90, 110, 100, 95, 105, 98}
	for i, p := range prices {
		seedListing(ledger, fmt.Sprintf("h%d", i), "pidgey", fmt.Sprintf("seller-%d", i), fmt.Sprintf("buyer-%d", i), p, true, now.Add(-time.Duration(i)*time.Hour))
	}

	detector := NewMarketManipulationDetector(ledger, testMarketConfig(), logger.NewNopLogger())
	analysis, err := detector.DetectSpecies(context.Background(), "pidgey", now)
	require.NoError(t, err)

	assert.False(t, analysis.PriceFixingDetected)
	assert.False(t, analysis.PumpAndDumpDetected)
	assert.False(t, analysis.WashTradingDetected)
	assert.Zero(t, analysis.RiskScore)
}

func TestDetectReturnsWorstSpecies(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	for i := 0; i < 6; i++ {
		seedListing(ledger, fmt.Sprintf("f%d", i), "eevee", "fixer", "", 500, false, now.Add(-time.Duration(i)*time.Hour))
	}

	detector := NewMarketManipulationDetector(ledger, testMarketConfig(), logger.NewNopLogger())
	analysis, err := detector.Detect(context.Background(), []string{"pidgey", "eevee", "pidgey"}, now)
	require.NoError(t, err)

	assert.Equal(t, "eevee", analysis.Species)
	assert.True(t, analysis.PriceFixingDetected)
}

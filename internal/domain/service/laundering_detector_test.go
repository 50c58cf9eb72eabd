package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/infrastructure/config"
	"pokemon-trade-fraud-engine/internal/infrastructure/database"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"
	"pokemon-trade-fraud-engine/internal/infrastructure/valuation"
)

func newLaunderingDetector(ledger *database.MemoryTradeLedger) *PokemonLaunderingDetector {
	values := valuation.NewStaticValuationService(&config.ValuationConfig{
		DefaultBaseValue: 100,
		LevelMultiplier:  0.02,
		ShinyMultiplier:  10,
	})
	return NewPokemonLaunderingDetector(ledger, values, testLaunderingConfig(), logger.NewNopLogger())
}

func seedOwnership(ledger *database.MemoryTradeLedger, pokemonID, owner string, at time.Time) {
	ledger.RecordOwnershipTransfer(context.Background(), pokemonID, &entity.OwnershipRecord{
		UserID:     owner,
		ObtainedAt: at,
		Method:     entity.ObtainMethodTrade,
	})
}

func TestDetectAssetRapidCircularTransfers(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	// The asset hops every 30 minutes and lands back with its first owner
	owners := []string{"ring-a", "ring-b", "ring-c", "ring-a"}
	for i, owner := range owners {
		seedOwnership(ledger, "pkm-1", owner, now.Add(time.Duration(i-4)*30*time.Minute))
	}

	detector := newLaunderingDetector(ledger)
	analysis, err := detector.DetectAsset(context.Background(), entity.TradeItem{PokemonID: "pkm-1", Species: "eevee", Level: 10})
	require.NoError(t, err)

	assert.Equal(t, 3, analysis.TransferCount)
	assert.True(t, analysis.RapidTransfers)
	assert.True(t, analysis.CircularPath)
	assert.Greater(t, analysis.RiskScore, 0.7)
}

func TestDetectAssetShortHistoryScoresZero(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	seedOwnership(ledger, "pkm-2", "owner-1", now.Add(-30*24*time.Hour))
	seedOwnership(ledger, "pkm-2", "owner-2", now.Add(-10*24*time.Hour))

	detector := newLaunderingDetector(ledger)
	analysis, err := detector.DetectAsset(context.Background(), entity.TradeItem{PokemonID: "pkm-2", Species: "pidgey", Level: 5})
	require.NoError(t, err)

	assert.Equal(t, 1, analysis.TransferCount)
	assert.False(t, analysis.RapidTransfers)
	assert.False(t, analysis.CircularPath)
	assert.Zero(t, analysis.RiskScore)
}

func TestDetectReturnsWorstAsset(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	// pkm-hot churns, pkm-cold has a quiet history
	for i, owner := range []string{"a", "b", "c", "d", "a"} {
		seedOwnership(ledger, "pkm-hot", owner, now.Add(time.Duration(i-5)*20*time.Minute))
	}
	seedOwnership(ledger, "pkm-cold", "z", now.Add(-60*24*time.Hour))

	detector := newLaunderingDetector(ledger)
	analysis, err := detector.Detect(context.Background(), []entity.TradeItem{
		{PokemonID: "pkm-cold", Species: "pidgey", Level: 3},
		{PokemonID: "pkm-hot", Species: "eevee", Level: 20},
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "pkm-hot", analysis.PokemonID)
	assert.True(t, analysis.CircularPath)
}

func TestDetectNoItems(t *testing.T) {
	detector := newLaunderingDetector(database.NewMemoryTradeLedger())
	analysis, err := detector.Detect(context.Background(), nil, time.Now())
	require.NoError(t, err)
	assert.Zero(t, analysis.RiskScore)
}

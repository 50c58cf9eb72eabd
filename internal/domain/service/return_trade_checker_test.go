package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokemon-trade-fraud-engine/internal/infrastructure/database"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"
)

func TestCheckFindsRecentReversal(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	// The user received pkm-1 from a friend two days ago; sending it back now
	// should read as a reversal, not laundering
	seedAssetEdge(ledger, "t1", "friend", "user", 800, "pkm-1", now.Add(-2*24*time.Hour))

	checker := NewReturnTradeChecker(ledger, testReturnTradeConfig(), logger.NewNopLogger())
	result, err := checker.Check(context.Background(), "user", []string{"pkm-1"}, now)
	require.NoError(t, err)

	assert.True(t, result.IsReturnTrade)
	assert.Equal(t, 1, result.MatchingPokemonCount)
	assert.InDelta(t, 2, result.DaysSinceOriginalTrade, 0.01)
	assert.GreaterOrEqual(t, result.ConfidenceLevel, checker.MinConfidence())
}

func TestCheckNoPriorTrade(t *testing.T) {
	checker := NewReturnTradeChecker(database.NewMemoryTradeLedger(), testReturnTradeConfig(), logger.NewNopLogger())
	result, err := checker.Check(context.Background(), "user", []string{"pkm-1"}, time.Now())
	require.NoError(t, err)

	assert.False(t, result.IsReturnTrade)
	assert.Zero(t, result.ConfidenceLevel)
}

func TestCheckIgnoresOutgoingLegs(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	// The user SENT the asset recently; that is not a basis for a reversal
	seedAssetEdge(ledger, "t1", "user", "friend", 800, "pkm-1", now.Add(-24*time.Hour))

	checker := NewReturnTradeChecker(ledger, testReturnTradeConfig(), logger.NewNopLogger())
	result, err := checker.Check(context.Background(), "user", []string{"pkm-1"}, now)
	require.NoError(t, err)

	assert.False(t, result.IsReturnTrade)
}

func TestCheckPartialMatchLowersConfidence(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	// Only one of three outgoing assets came from a recent inbound trade
	seedAssetEdge(ledger, "t1", "friend", "user", 800, "pkm-1", now.Add(-6*24*time.Hour))

	checker := NewReturnTradeChecker(ledger, testReturnTradeConfig(), logger.NewNopLogger())
	result, err := checker.Check(context.Background(), "user", []string{"pkm-1", "pkm-2", "pkm-3"}, now)
	require.NoError(t, err)

	assert.True(t, result.IsReturnTrade)
	assert.Equal(t, 1, result.MatchingPokemonCount)
	assert.Less(t, result.ConfidenceLevel, checker.MinConfidence())
}

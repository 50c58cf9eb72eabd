package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokemon-trade-fraud-engine/internal/infrastructure/database"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"
)

func TestDetectDenseBurst(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	// 20 trades two seconds apart across rotating partners
	start := now.Add(-time.Hour)
	for i := 0; i < 20; i++ {
		partner := fmt.Sprintf("partner-%d", i%5)
		seedEdge(ledger, fmt.Sprintf("t%d", i), "botter", partner, 50, start.Add(time.Duration(i)*2*time.Second))
	}

	detector := NewBurstTradingDetector(ledger, testBurstConfig(), logger.NewNopLogger())
	analysis, err := detector.Detect(context.Background(), "botter", now)
	require.NoError(t, err)

	require.Len(t, analysis.Bursts, 1)
	burst := analysis.Bursts[0]
	assert.Equal(t, 20, burst.TradeCount)
	assert.Equal(t, 5, burst.UniquePartners)
	assert.Equal(t, 2*time.Second, burst.AverageInterval)
	assert.True(t, analysis.BotLikely)
	assert.Greater(t, analysis.RiskScore, 0.4)
}

func TestDetectSpreadTradingIsNotABurst(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	// Seven trades spread over a day never fill the window
	for i := 0; i < 7; i++ {
		seedEdge(ledger, fmt.Sprintf("t%d", i), "casual", "friend", 50, now.Add(-time.Duration(i+1)*3*time.Hour))
	}

	detector := NewBurstTradingDetector(ledger, testBurstConfig(), logger.NewNopLogger())
	analysis, err := detector.Detect(context.Background(), "casual", now)
	require.NoError(t, err)

	assert.Empty(t, analysis.Bursts)
	assert.False(t, analysis.BotLikely)
	assert.Zero(t, analysis.RiskScore)
}

func TestDetectHumanPacedBurstIsNotBotLikely(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	// Dense enough to be a burst, but paced well above reaction time
	start := now.Add(-time.Hour)
	for i := 0; i < 12; i++ {
		seedEdge(ledger, fmt.Sprintf("t%d", i), "grinder", "partner", 50, start.Add(time.Duration(i)*45*time.Second))
	}

	detector := NewBurstTradingDetector(ledger, testBurstConfig(), logger.NewNopLogger())
	analysis, err := detector.Detect(context.Background(), "grinder", now)
	require.NoError(t, err)

	require.NotEmpty(t, analysis.Bursts)
	assert.False(t, analysis.BotLikely)
}

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

func TestDetectRelayChain(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	// Value relayed A -> B -> C -> D within minutes, largely intact
	seedEdge(ledger, "t1", "acct-a", "acct-b", 5000, now.Add(-50*time.Minute))
	seedEdge(ledger, "t2", "acct-b", "acct-c", 4800, now.Add(-40*time.Minute))
	seedEdge(ledger, "t3", "acct-c", "acct-d", 4700, now.Add(-30*time.Minute))

	detector := NewChainTradingDetector(ledger, testChainConfig(), logger.NewNopLogger())
	analysis, err := detector.Detect(context.Background(), "acct-a", now)
	require.NoError(t, err)

	require.Len(t, analysis.Chains, 1)
	assert.Equal(t, 3, analysis.MaxChainDepth)
	assert.Equal(t, []string{"acct-a", "acct-b", "acct-c", "acct-d"}, analysis.Chains[0].Accounts())
	assert.InDelta(t, 0.733, analysis.RiskScore, 0.01)
	assert.False(t, analysis.Truncated)
}

func TestDetectIgnoresValueLeakage(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	// Second hop keeps only half the value, so the path never qualifies
	seedEdge(ledger, "t1", "acct-a", "acct-b", 5000, now.Add(-50*time.Minute))
	seedEdge(ledger, "t2", "acct-b", "acct-c", 2500, now.Add(-40*time.Minute))

	detector := NewChainTradingDetector(ledger, testChainConfig(), logger.NewNopLogger())
	analysis, err := detector.Detect(context.Background(), "acct-a", now)
	require.NoError(t, err)

	assert.Empty(t, analysis.Chains)
	assert.Zero(t, analysis.RiskScore)
}

func TestDetectIgnoresSlowHops(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	// The relay stalls for a day between hops
	seedEdge(ledger, "t1", "acct-a", "acct-b", 5000, now.Add(-30*time.Hour))
	seedEdge(ledger, "t2", "acct-b", "acct-c", 4900, now.Add(-5*time.Hour))

	detector := NewChainTradingDetector(ledger, testChainConfig(), logger.NewNopLogger())
	analysis, err := detector.Detect(context.Background(), "acct-a", now)
	require.NoError(t, err)

	assert.Empty(t, analysis.Chains)
}

func TestDetectChainTruncatesAtVisitCap(t *testing.T) {
	now := time.Now()
	ledger := database.NewMemoryTradeLedger()

	// A qualifying relay longer than the visit budget allows
	seedEdge(ledger, "t1", "acct-a", "acct-b", 5000, now.Add(-50*time.Minute))
	seedEdge(ledger, "t2", "acct-b", "acct-c", 4800, now.Add(-40*time.Minute))
	seedEdge(ledger, "t3", "acct-c", "acct-d", 4700, now.Add(-30*time.Minute))

	cfg := testChainConfig()
	cfg.MaxVisitedNodes = 2

	detector := NewChainTradingDetector(ledger, cfg, logger.NewNopLogger())
	analysis, err := detector.Detect(context.Background(), "acct-a", now)
	require.NoError(t, err)

	// The cap cuts the walk short but the partial chain is still reported
	assert.True(t, analysis.Truncated)
	require.Len(t, analysis.Chains, 1)
	assert.Equal(t, 2, analysis.MaxChainDepth)
	assert.Greater(t, analysis.RiskScore, 0.3)
}

func TestDetectNoTradesScoresZero(t *testing.T) {
	detector := NewChainTradingDetector(database.NewMemoryTradeLedger(), testChainConfig(), logger.NewNopLogger())
	analysis, err := detector.Detect(context.Background(), "nobody", time.Now())
	require.NoError(t, err)

	assert.Empty(t, analysis.Chains)
	assert.Zero(t, analysis.RiskScore)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/infrastructure/config"
	"pokemon-trade-fraud-engine/internal/infrastructure/identity"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"
	"pokemon-trade-fraud-engine/internal/infrastructure/valuation"
)

func newBasicAnalyzer(accounts *identity.MemoryAccountDirectory) *BasicRiskAnalyzer {
	values := valuation.NewStaticValuationService(&config.ValuationConfig{
		DefaultBaseValue: 100,
		LevelMultiplier:  0.02,
		ShinyMultiplier:  10,
	})
	return NewBasicRiskAnalyzer(values, accounts, testRiskConfig(), logger.NewNopLogger())
}

func TestAnalyzeLopsidedTradeAgainstFreshAccount(t *testing.T) {
	now := time.Now()
	accounts := identity.NewMemoryAccountDirectory()
	accounts.PutProfile(entity.AccountProfile{
		UserID:        "whale",
		CreatedAt:     now.Add(-90 * 24 * time.Hour),
		TotalTrades:   200,
		AvgTradeValue: decimal.NewFromInt(500),
	})
	accounts.PutProfile(entity.AccountProfile{
		UserID:      "fresh",
		CreatedAt:   now.Add(-40 * time.Hour),
		TotalTrades: 1,
	})

	analyzer := newBasicAnalyzer(accounts)
	analysis, err := analyzer.Analyze(context.Background(), &entity.TradeProposal{
		ProposalID: "p1",
		Sender:     entity.TradeSide{UserID: "whale", Credits: decimal.NewFromInt(100000)},
		Receiver:   entity.TradeSide{UserID: "fresh", Credits: decimal.NewFromInt(10)},
		ProposedAt: now,
	})
	require.NoError(t, err)

	assert.Greater(t, analysis.ValueImbalanceScore, 0.99)
	assert.Equal(t, entity.RiskLevelCritical, analysis.RiskLevel)
	assert.True(t, analysis.FlaggedRmt)
	assert.True(t, analysis.FlaggedNewbieExploitation)
	assert.True(t, analysis.HasFlags())
}

func TestAnalyzeBalancedTradeBetweenEstablishedAccounts(t *testing.T) {
	now := time.Now()
	accounts := identity.NewMemoryAccountDirectory()
	var evenHours [24]int64
	for i := range evenHours {
		evenHours[i] = 10
	}
	for _, id := range []string{"vet-1", "vet-2"} {
		accounts.PutProfile(entity.AccountProfile{
			UserID:          id,
			CreatedAt:       now.Add(-365 * 24 * time.Hour),
			TotalTrades:     240,
			AvgTradeValue:   decimal.NewFromInt(100),
			TradeHourVector: evenHours,
		})
	}
	accounts.SetPairTrades("vet-1", "vet-2", 200)

	analyzer := newBasicAnalyzer(accounts)
	analysis, err := analyzer.Analyze(context.Background(), &entity.TradeProposal{
		ProposalID: "p2",
		Sender:     entity.TradeSide{UserID: "vet-1", Credits: decimal.NewFromInt(100)},
		Receiver:   entity.TradeSide{UserID: "vet-2", Credits: decimal.NewFromInt(100)},
		ProposedAt: now,
	})
	require.NoError(t, err)

	assert.Less(t, analysis.OverallRiskScore, 0.2)
	assert.Equal(t, entity.RiskLevelMinimal, analysis.RiskLevel)
	assert.False(t, analysis.HasFlags())
}

func TestAnalyzeFlagsKnownAltPair(t *testing.T) {
	now := time.Now()
	accounts := identity.NewMemoryAccountDirectory()
	accounts.PutProfile(entity.AccountProfile{
		UserID:    "main",
		CreatedAt: now.Add(-400 * time.Hour),
	})
	accounts.PutProfile(entity.AccountProfile{
		UserID:     "alt",
		CreatedAt:  now.Add(-300 * time.Hour),
		KnownAltOf: "main",
	})

	analyzer := newBasicAnalyzer(accounts)
	analysis, err := analyzer.Analyze(context.Background(), &entity.TradeProposal{
		ProposalID: "p3",
		Sender:     entity.TradeSide{UserID: "alt", Credits: decimal.NewFromInt(5000)},
		Receiver:   entity.TradeSide{UserID: "main"},
		ProposedAt: now,
	})
	require.NoError(t, err)

	assert.True(t, analysis.FlaggedAltAccount)
}

func TestAnalyzeRejectsInvalidProposals(t *testing.T) {
	analyzer := newBasicAnalyzer(identity.NewMemoryAccountDirectory())
	ctx := context.Background()

	_, err := analyzer.Analyze(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidProposal)

	_, err = analyzer.Analyze(ctx, &entity.TradeProposal{
		Sender:   entity.TradeSide{UserID: "same"},
		Receiver: entity.TradeSide{UserID: "same"},
	})
	assert.ErrorIs(t, err, ErrInvalidProposal)

	_, err = analyzer.Analyze(ctx, &entity.TradeProposal{
		Sender:   entity.TradeSide{UserID: "a", Credits: decimal.NewFromInt(-5)},
		Receiver: entity.TradeSide{UserID: "b"},
	})
	assert.ErrorIs(t, err, ErrInvalidProposal)

	_, err = analyzer.Analyze(ctx, &entity.TradeProposal{
		Sender:   entity.TradeSide{UserID: ""},
		Receiver: entity.TradeSide{UserID: "b"},
	})
	assert.ErrorIs(t, err, ErrInvalidProposal)
}

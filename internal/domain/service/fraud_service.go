package service

import (
	"context"

	"pokemon-trade-fraud-engine/internal/domain/entity"
)

// FraudDetectionService defines the public contract the trade pipeline calls
type FraudDetectionService interface {
	// FastCheck runs the synchronous basic analysis on the trade critical path
	FastCheck(ctx context.Context, proposal *entity.TradeProposal) (*entity.FastFraudCheckResult, error)

	// AnalyzeTrade runs the fast path and, when required, the full concurrent
	// detector fan-out, returning the aggregate verdict
	AnalyzeTrade(ctx context.Context, proposal *entity.TradeProposal) (*entity.ComprehensiveFraudAnalysis, error)

	// CheckReturnTrade reports whether a proposed trade looks like a legitimate
	// reversal of a recent prior trade
	CheckReturnTrade(ctx context.Context, userID string, pokemonIDs []string) (*entity.ReturnTradeCheckResult, error)
}

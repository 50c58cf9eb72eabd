package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/domain/repository"
	"pokemon-trade-fraud-engine/internal/infrastructure/config"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"
)

// ReturnTradeChecker suppresses false positives for legitimate trade reversals
type ReturnTradeChecker struct {
	reader repository.TradeHistoryReader
	config *config.ReturnTradeConfig
	logger *logger.Logger
}

// NewReturnTradeChecker creates a new return trade checker
func NewReturnTradeChecker(reader repository.TradeHistoryReader, cfg *config.ReturnTradeConfig, log *logger.Logger) *ReturnTradeChecker {
	return &ReturnTradeChecker{
		reader: reader,
		config: cfg,
		logger: log.WithComponent("return-trade-checker"),
	}
}

// MinConfidence is the confidence floor below which a match is not acted upon
func (c *ReturnTradeChecker) MinConfidence() float64 {
	return c.config.MinConfidence
}

// DiscountFactor is the multiplier applied to laundering-shaped scores when a
// confident return trade is found
func (c *ReturnTradeChecker) DiscountFactor() float64 {
	return c.config.DiscountFactor
}

// Check searches recent history for a prior trade that moved the same assets
// toward the user, which a trade sending them back would be undoing
func (c *ReturnTradeChecker) Check(ctx context.Context, userID string, pokemonIDs []string, at time.Time) (*entity.ReturnTradeCheckResult, error) {
	result := &entity.ReturnTradeCheckResult{Reason: "no matching prior trade found"}
	if len(pokemonIDs) == 0 {
		return result, nil
	}

	since := at.Add(-c.config.MatchWindow)
	trades, err := c.reader.GetTradesForUser(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	wanted := make(map[string]bool, len(pokemonIDs))
	for _, id := range pokemonIDs {
		if id != "" {
			wanted[id] = true
		}
	}
	if len(wanted) == 0 {
		return result, nil
	}

	var newestMatch time.Time
	matched := make(map[string]bool)
	for _, trade := range trades {
		// The original leg delivered the asset to this user
		if trade.To != userID || trade.PokemonID == "" || !wanted[trade.PokemonID] {
			continue
		}
		matched[trade.PokemonID] = true
		if trade.Timestamp.After(newestMatch) {
			newestMatch = trade.Timestamp
		}
	}

	if len(matched) == 0 {
		return result, nil
	}

	daysSince := at.Sub(newestMatch).Hours() / 24
	if daysSince < 0 {
		daysSince = 0
	}
	windowDays := c.config.MatchWindow.Hours() / 24

	matchRatio := float64(len(matched)) / float64(len(wanted))
	recency := 1 - daysSince/windowDays
	if recency < 0 {
		recency = 0
	}

	result.IsReturnTrade = true
	result.MatchingPokemonCount = len(matched)
	result.DaysSinceOriginalTrade = daysSince
	result.ConfidenceLevel = entity.ClampScore(0.7*matchRatio + 0.3*recency)
	result.Reason = fmt.Sprintf("%d of %d assets were received by this account within the last %.1f days",
		len(matched), len(wanted), daysSince)

	c.logger.Debug("Return trade check finished",
		zap.String("user_id", userID),
		zap.Int("matched", len(matched)),
		zap.Float64("confidence", result.ConfidenceLevel))

	return result, nil
}

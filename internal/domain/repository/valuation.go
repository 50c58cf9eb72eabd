package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"pokemon-trade-fraud-engine/internal/domain/entity"
)

// ValuationService defines the estimated-value lookups used for imbalance scoring
type ValuationService interface {
	// EstimateItemValue returns the estimated market value of one asset
	EstimateItemValue(ctx context.Context, item entity.TradeItem) (decimal.Decimal, error)

	// EstimateSideValue returns the total estimated value of everything on one trade side
	EstimateSideValue(ctx context.Context, side entity.TradeSide) (decimal.Decimal, error)
}

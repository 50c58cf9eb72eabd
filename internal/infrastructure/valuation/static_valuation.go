// Package valuation provides the config-driven asset value estimator.
package valuation

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/domain/repository"
	"pokemon-trade-fraud-engine/internal/infrastructure/config"
)

// StaticValuationService estimates asset values from a configured species
// base-value table with level and shiny multipliers
type StaticValuationService struct {
	config *config.ValuationConfig
}

// NewStaticValuationService creates a new static valuation service
func NewStaticValuationService(cfg *config.ValuationConfig) repository.ValuationService {
	return &StaticValuationService{config: cfg}
}

// EstimateItemValue returns the estimated market value of one asset
func (s *StaticValuationService) EstimateItemValue(ctx context.Context, item entity.TradeItem) (decimal.Decimal, error) {
	base := s.config.DefaultBaseValue
	if v, ok := s.config.SpeciesBaseValue[strings.ToLower(item.Species)]; ok {
		base = v
	}

	value := decimal.NewFromFloat(base)

	levelFactor := decimal.NewFromFloat(1 + float64(item.Level)*s.config.LevelMultiplier)
	value = value.Mul(levelFactor)

	if item.Shiny {
		value = value.Mul(decimal.NewFromFloat(s.config.ShinyMultiplier))
	}

	return value, nil
}

// EstimateSideValue returns the total estimated value of everything on one trade side
func (s *StaticValuationService) EstimateSideValue(ctx context.Context, side entity.TradeSide) (decimal.Decimal, error) {
	total := side.Credits
	for _, item := range side.Items {
		v, err := s.EstimateItemValue(ctx, item)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(v)
	}
	return total, nil
}

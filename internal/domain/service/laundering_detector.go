package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/domain/repository"
	"pokemon-trade-fraud-engine/internal/infrastructure/config"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"
)

// PokemonLaunderingDetector walks a single asset's provenance chain looking
// for rapid or circular ownership transfers
type PokemonLaunderingDetector struct {
	reader    repository.TradeHistoryReader
	valuation repository.ValuationService
	config    *config.LaunderingConfig
	logger    *logger.Logger
}

// NewPokemonLaunderingDetector creates a new laundering detector
func NewPokemonLaunderingDetector(
	reader repository.TradeHistoryReader,
	valuation repository.ValuationService,
	cfg *config.LaunderingConfig,
	log *logger.Logger,
) *PokemonLaunderingDetector {
	return &PokemonLaunderingDetector{
		reader:    reader,
		valuation: valuation,
		config:    cfg,
		logger:    log.WithComponent("laundering-detector"),
	}
}

// Detect analyzes every asset in a trade and returns the riskiest result
func (d *PokemonLaunderingDetector) Detect(ctx context.Context, items []entity.TradeItem, at time.Time) (*entity.TradePokemonLaunderingAnalysis, error) {
	var worst *entity.TradePokemonLaunderingAnalysis
	for _, item := range items {
		analysis, err := d.DetectAsset(ctx, item)
		if err != nil {
			return nil, err
		}
		if worst == nil || analysis.RiskScore > worst.RiskScore {
			worst = analysis
		}
	}
	if worst == nil {
		worst = &entity.TradePokemonLaunderingAnalysis{}
	}
	return worst, nil
}

// DetectAsset analyzes the ordered ownership history of one asset
func (d *PokemonLaunderingDetector) DetectAsset(ctx context.Context, item entity.TradeItem) (*entity.TradePokemonLaunderingAnalysis, error) {
	records, err := d.reader.GetOwnershipHistory(ctx, item.PokemonID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	value, err := d.valuation.EstimateItemValue(ctx, item)
	if err != nil {
		// Valuation is a weighting input only; an unavailable estimate must not
		// sink the provenance analysis
		value = decimal.Zero
	}

	analysis := &entity.TradePokemonLaunderingAnalysis{
		PokemonID:      item.PokemonID,
		EstimatedValue: value,
	}
	if len(records) < 2 {
		return analysis, nil
	}

	sorted := append([]entity.OwnershipRecord(nil), records...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ObtainedAt.Before(sorted[j].ObtainedAt)
	})

	analysis.TransferCount = len(sorted) - 1

	rapid := 0
	owners := map[string]bool{sorted[0].UserID: true}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].ObtainedAt.Sub(sorted[i-1].ObtainedAt) < d.config.RapidTransferThreshold {
			rapid++
		}
		if owners[sorted[i].UserID] {
			analysis.CircularPath = true
		}
		owners[sorted[i].UserID] = true
	}
	analysis.RapidTransfers = rapid > 0

	analysis.RiskScore = d.score(analysis, rapid)

	d.logger.Debug("Laundering analysis finished",
		zap.String("pokemon_id", item.PokemonID),
		zap.Int("transfers", analysis.TransferCount),
		zap.Bool("circular", analysis.CircularPath))

	return analysis, nil
}

// score combines rapid-transfer ratio, circularity and asset value.
// High-value assets moving suspiciously fast are weighted higher.
func (d *PokemonLaunderingDetector) score(analysis *entity.TradePokemonLaunderingAnalysis, rapidCount int) float64 {
	if analysis.TransferCount < d.config.MinTransfersForRisk && !analysis.CircularPath {
		return 0
	}

	rapidRatio := float64(rapidCount) / float64(analysis.TransferCount)

	score := 0.45 * rapidRatio
	if analysis.CircularPath {
		score += 0.35
	}

	value, _ := analysis.EstimatedValue.Float64()
	valueFactor := value / d.config.HighValueThreshold
	if valueFactor > 1 {
		valueFactor = 1
	}
	score += 0.2 * valueFactor

	return entity.ClampScore(score)
}

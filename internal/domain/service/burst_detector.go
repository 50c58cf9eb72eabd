package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/domain/repository"
	"pokemon-trade-fraud-engine/internal/infrastructure/config"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"
)

// BurstTradingDetector flags automation through abnormally dense trade timing
type BurstTradingDetector struct {
	reader repository.TradeHistoryReader
	config *config.BurstConfig
	logger *logger.Logger
}

// NewBurstTradingDetector creates a new burst trading detector
func NewBurstTradingDetector(reader repository.TradeHistoryReader, cfg *config.BurstConfig, log *logger.Logger) *BurstTradingDetector {
	return &BurstTradingDetector{
		reader: reader,
		config: cfg,
		logger: log.WithComponent("burst-detector"),
	}
}

// Detect slides a fixed window over the user's sorted trade timestamps and
// emits a TradeBurst for every dense cluster
func (d *BurstTradingDetector) Detect(ctx context.Context, userID string, at time.Time) (*entity.BurstTradingAnalysis, error) {
	since := at.Add(-d.config.LookbackWindow)

	trades, err := d.reader.GetTradesForUser(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	sort.Slice(trades, func(i, j int) bool {
		return trades[i].Timestamp.Before(trades[j].Timestamp)
	})

	analysis := &entity.BurstTradingAnalysis{UserID: userID}

	// Mark every window position holding more than the threshold, then merge
	// overlapping spans into maximal bursts
	type span struct{ start, end int }
	var spans []span
	right := 0
	for left := range trades {
		if right < left {
			right = left
		}
		for right+1 < len(trades) && trades[right+1].Timestamp.Sub(trades[left].Timestamp) <= d.config.WindowSize {
			right++
		}
		if right-left+1 >= d.config.CountThreshold {
			if n := len(spans); n > 0 && left <= spans[n-1].end {
				if right > spans[n-1].end {
					spans[n-1].end = right
				}
			} else {
				spans = append(spans, span{start: left, end: right})
			}
		}
	}

	for _, sp := range spans {
		analysis.Bursts = append(analysis.Bursts, d.buildBurst(userID, trades[sp.start:sp.end+1]))
	}
	analysis.RiskScore = d.score(analysis.Bursts)
	analysis.BotLikely = d.botLikely(analysis.Bursts)

	d.logger.Debug("Burst detection finished",
		zap.String("user_id", userID),
		zap.Int("trades", len(trades)),
		zap.Int("bursts", len(analysis.Bursts)))

	return analysis, nil
}

// buildBurst summarizes one dense cluster of trades
func (d *BurstTradingDetector) buildBurst(userID string, trades []entity.TradeEdge) entity.TradeBurst {
	burst := entity.TradeBurst{
		StartTime:  trades[0].Timestamp,
		EndTime:    trades[len(trades)-1].Timestamp,
		TradeCount: len(trades),
	}
	burst.Duration = burst.EndTime.Sub(burst.StartTime)
	if burst.TradeCount > 1 {
		burst.AverageInterval = burst.Duration / time.Duration(burst.TradeCount-1)
	}

	partners := make(map[string]bool, len(trades))
	for _, t := range trades {
		partner := t.To
		if partner == userID {
			partner = t.From
		}
		partners[partner] = true
	}
	burst.UniquePartners = len(partners)

	return burst
}

// score scales with burst count and the inverse of the fastest average interval
func (d *BurstTradingDetector) score(bursts []entity.TradeBurst) float64 {
	if len(bursts) == 0 {
		return 0
	}

	countFactor := float64(len(bursts)) / 3
	if countFactor > 1 {
		countFactor = 1
	}

	minInterval := bursts[0].AverageInterval
	maxPartners := 0
	for _, b := range bursts {
		if b.AverageInterval < minInterval {
			minInterval = b.AverageInterval
		}
		if b.UniquePartners > maxPartners {
			maxPartners = b.UniquePartners
		}
	}

	speedFactor := 1 - float64(minInterval)/float64(d.config.HumanReactionTime)
	if speedFactor < 0 {
		speedFactor = 0
	}

	partnerFactor := float64(maxPartners) / 5
	if partnerFactor > 1 {
		partnerFactor = 1
	}

	return entity.ClampScore(0.3 + 0.2*countFactor + 0.35*speedFactor + 0.15*partnerFactor)
}

// botLikely reports the strongest automation signal: sub-human reaction
// intervals across many distinct partners
func (d *BurstTradingDetector) botLikely(bursts []entity.TradeBurst) bool {
	for _, b := range bursts {
		if b.AverageInterval < d.config.HumanReactionTime && b.UniquePartners >= 3 {
			return true
		}
	}
	return false
}

package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/domain/repository"
	"pokemon-trade-fraud-engine/internal/infrastructure/config"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"
)

// MarketManipulationDetector analyzes per-species listing statistics for
// price fixing, pump-and-dump and wash trading
type MarketManipulationDetector struct {
	reader repository.TradeHistoryReader
	config *config.MarketConfig
	logger *logger.Logger
}

// NewMarketManipulationDetector creates a new market manipulation detector
func NewMarketManipulationDetector(reader repository.TradeHistoryReader, cfg *config.MarketConfig, log *logger.Logger) *MarketManipulationDetector {
	return &MarketManipulationDetector{
		reader: reader,
		config: cfg,
		logger: log.WithComponent("market-detector"),
	}
}

// Detect analyzes every species involved in a trade and returns the riskiest result
func (d *MarketManipulationDetector) Detect(ctx context.Context, species []string, at time.Time) (*entity.MarketManipulationAnalysis, error) {
	var worst *entity.MarketManipulationAnalysis
	for _, sp := range uniqueStrings(species) {
		analysis, err := d.DetectSpecies(ctx, sp, at)
		if err != nil {
			return nil, err
		}
		if worst == nil || analysis.RiskScore > worst.RiskScore {
			worst = analysis
		}
	}
	if worst == nil {
		worst = &entity.MarketManipulationAnalysis{}
	}
	return worst, nil
}

// DetectSpecies analyzes recent marketplace activity for one species
func (d *MarketManipulationDetector) DetectSpecies(ctx context.Context, species string, at time.Time) (*entity.MarketManipulationAnalysis, error) {
	since := at.Add(-d.config.LookbackWindow)

	listings, err := d.reader.GetMarketListings(ctx, species, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	analysis := &entity.MarketManipulationAnalysis{Species: species}
	if len(listings) == 0 {
		return analysis, nil
	}

	sort.Slice(listings, func(i, j int) bool {
		return listings[i].ListedAt.Before(listings[j].ListedAt)
	})

	analysis.SuspiciousPrices = d.detectPriceFixing(listings)
	analysis.PriceFixingDetected = len(analysis.SuspiciousPrices) > 0

	analysis.PriceVolatility = priceVolatility(listings)
	analysis.PumpAndDumpDetected = d.detectPumpAndDump(listings)

	analysis.CircularTradingPartners = d.detectWashTrading(listings)
	analysis.WashTradingDetected = len(analysis.CircularTradingPartners) > 0

	analysis.RiskScore = d.score(analysis)

	d.logger.Debug("Market analysis finished",
		zap.String("species", species),
		zap.Int("listings", len(listings)),
		zap.Float64("risk_score", analysis.RiskScore))

	return analysis, nil
}

// detectPriceFixing finds near-identical price clusters concentrated among a
// small seller set
func (d *MarketManipulationDetector) detectPriceFixing(listings []entity.MarketActivityData) []entity.SuspiciousPrice {
	sorted := append([]entity.MarketActivityData(nil), listings...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Price.LessThan(sorted[j].Price)
	})

	var suspicious []entity.SuspiciousPrice
	i := 0
	for i < len(sorted) {
		anchor := sorted[i].Price
		limit := anchor.Mul(decimal.NewFromFloat(1 + d.config.PriceFixingTolerance))

		sellers := make(map[string]bool)
		count := 0
		j := i
		for j < len(sorted) && !sorted[j].Price.GreaterThan(limit) {
			sellers[sorted[j].SellerID] = true
			count++
			j++
		}

		if count >= d.config.PriceFixingMinListings && len(sellers) <= d.config.PriceFixingMaxSellers {
			involved := make([]string, 0, len(sellers))
			for s := range sellers {
				involved = append(involved, s)
			}
			sort.Strings(involved)
			suspicious = append(suspicious, entity.SuspiciousPrice{
				Price:           anchor,
				ListingCount:    count,
				InvolvedSellers: involved,
			})
		}
		i = j
	}
	return suspicious
}

// detectPumpAndDump looks for rapid price escalation followed by a sell-off spike
func (d *MarketManipulationDetector) detectPumpAndDump(listings []entity.MarketActivityData) bool {
	var sales []entity.MarketActivityData
	for _, l := range listings {
		if l.Sold {
			sales = append(sales, l)
		}
	}
	if len(sales) < 6 {
		return false
	}

	third := len(sales) / 3
	earlyAvg := averagePrice(sales[:third])
	if earlyAvg <= 0 {
		return false
	}

	peakIdx := 0
	peak := 0.0
	for i, sale := range sales {
		p, _ := sale.Price.Float64()
		if p > peak {
			peak = p
			peakIdx = i
		}
	}
	if peak < earlyAvg*d.config.PumpEscalationFactor {
		return false
	}

	// A dump needs sales after the peak at clearly deflated prices
	after := sales[peakIdx+1:]
	if len(after) < 3 {
		return false
	}
	return averagePrice(after) < peak*0.6
}

// detectWashTrading finds a small account set re-trading the species back and forth
func (d *MarketManipulationDetector) detectWashTrading(listings []entity.MarketActivityData) []string {
	pairSales := make(map[[2]string]int)
	for _, l := range listings {
		if !l.Sold || l.BuyerID == "" {
			continue
		}
		// A self-sale is its own reverse and would count as a round trip
		if l.SellerID == l.BuyerID {
			continue
		}
		pairSales[[2]string{l.SellerID, l.BuyerID}]++
	}

	involved := make(map[string]bool)
	roundTrips := 0
	for pair, n := range pairSales {
		reverse := [2]string{pair[1], pair[0]}
		m, ok := pairSales[reverse]
		if !ok || pair[0] > pair[1] {
			continue
		}
		trips := n
		if m < trips {
			trips = m
		}
		roundTrips += trips
		involved[pair[0]] = true
		involved[pair[1]] = true
	}

	if roundTrips < d.config.WashMinRoundTrips || len(involved) == 0 || len(involved) > d.config.WashMaxPartners {
		return nil
	}

	partners := make([]string, 0, len(involved))
	for p := range involved {
		partners = append(partners, p)
	}
	sort.Strings(partners)
	return partners
}

// score combines the boolean sub-signals with their severity contributions
func (d *MarketManipulationDetector) score(analysis *entity.MarketManipulationAnalysis) float64 {
	score := 0.0
	if analysis.PriceFixingDetected {
		score += 0.4
	}
	if analysis.PumpAndDumpDetected {
		score += 0.45
	}
	if analysis.WashTradingDetected {
		score += 0.5
	}
	if score > 0 {
		volatility := analysis.PriceVolatility
		if volatility > 1 {
			volatility = 1
		}
		score += 0.15 * volatility
	}
	return entity.ClampScore(score)
}

// priceVolatility is the coefficient of variation over listing prices
func priceVolatility(listings []entity.MarketActivityData) float64 {
	if len(listings) < 2 {
		return 0
	}
	mean := averagePrice(listings)
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, l := range listings {
		p, _ := l.Price.Float64()
		variance += (p - mean) * (p - mean)
	}
	return math.Sqrt(variance/float64(len(listings))) / mean
}

func averagePrice(listings []entity.MarketActivityData) float64 {
	if len(listings) == 0 {
		return 0
	}
	var sum float64
	for _, l := range listings {
		p, _ := l.Price.Float64()
		sum += p
	}
	return sum / float64(len(listings))
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

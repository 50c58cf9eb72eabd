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

// ChainTradingDetector finds value being relayed through short account sequences
// (A -> B -> C -> D) to obscure its origin or destination.
type ChainTradingDetector struct {
	reader repository.TradeHistoryReader
	config *config.ChainConfig
	logger *logger.Logger
}

// NewChainTradingDetector creates a new chain trading detector
func NewChainTradingDetector(reader repository.TradeHistoryReader, cfg *config.ChainConfig, log *logger.Logger) *ChainTradingDetector {
	return &ChainTradingDetector{
		reader: reader,
		config: cfg,
		logger: log.WithComponent("chain-detector"),
	}
}

// chainSearch carries the bounded traversal state for one detection run
type chainSearch struct {
	detector     *ChainTradingDetector
	ctx          context.Context
	since        time.Time
	edgesByUser  map[string][]entity.TradeEdge
	fetchedUsers int
	truncated    bool
	chains       []entity.TradeChain
}

// Detect runs the depth-bounded chain search seeded at one account
func (d *ChainTradingDetector) Detect(ctx context.Context, userID string, at time.Time) (*entity.ChainTradingAnalysis, error) {
	since := at.Add(-d.config.LookbackWindow)

	search := &chainSearch{
		detector:    d,
		ctx:         ctx,
		since:       since,
		edgesByUser: make(map[string][]entity.TradeEdge),
	}

	seedEdges, err := search.outgoingEdges(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	minOrigin := decimal.NewFromFloat(d.config.MinChainValue)
	for _, edge := range seedEdges {
		if edge.Value.LessThan(minOrigin) {
			continue
		}
		visited := map[string]bool{userID: true, edge.To: true}
		search.extend(edge, []entity.TradeEdge{edge}, visited)
	}

	analysis := &entity.ChainTradingAnalysis{
		UserID:    userID,
		Chains:    search.chains,
		Truncated: search.truncated,
	}
	for _, chain := range search.chains {
		if chain.Length > analysis.MaxChainDepth {
			analysis.MaxChainDepth = chain.Length
		}
		analysis.TotalValueFlowed = analysis.TotalValueFlowed.Add(chain.TotalValue)
	}
	analysis.RiskScore = d.score(analysis)

	d.logger.Debug("Chain detection finished",
		zap.String("user_id", userID),
		zap.Int("chains", len(search.chains)),
		zap.Int("max_depth", analysis.MaxChainDepth),
		zap.Bool("truncated", search.truncated))

	return analysis, nil
}

// outgoingEdges returns the lookback-window trades a user sent, fetching and
// memoizing per user while honoring the visited-node cap
func (s *chainSearch) outgoingEdges(userID string) ([]entity.TradeEdge, error) {
	if edges, ok := s.edgesByUser[userID]; ok {
		return edges, nil
	}
	if s.fetchedUsers >= s.detector.config.MaxVisitedNodes {
		s.truncated = true
		return nil, nil
	}
	s.fetchedUsers++

	all, err := s.detector.reader.GetTradesForUser(s.ctx, userID, s.since)
	if err != nil {
		return nil, err
	}

	outgoing := make([]entity.TradeEdge, 0, len(all))
	for _, edge := range all {
		if edge.From == userID {
			outgoing = append(outgoing, edge)
		}
	}
	sort.Slice(outgoing, func(i, j int) bool {
		return outgoing[i].Timestamp.Before(outgoing[j].Timestamp)
	})

	s.edgesByUser[userID] = outgoing
	return outgoing, nil
}

// extend performs one DFS step, recording the path as a chain when it can
// grow no further and meets the qualification thresholds
func (s *chainSearch) extend(prev entity.TradeEdge, path []entity.TradeEdge, visited map[string]bool) {
	cfg := s.detector.config
	extended := false

	if len(path) < cfg.MaxDepth {
		next, err := s.outgoingEdges(prev.To)
		if err != nil {
			// Treat an unreadable hop as the end of the path; the seed fetch
			// already decided overall availability
			next = nil
		}

		origin := path[0].Value
		retention := origin.Mul(decimal.NewFromFloat(cfg.ValueRetention))
		branches := 0
		for _, edge := range next {
			if branches >= cfg.MaxBranching {
				s.truncated = true
				break
			}
			if !edge.Timestamp.After(prev.Timestamp) {
				continue
			}
			if edge.Timestamp.Sub(prev.Timestamp) > cfg.HopTimeDelta {
				continue
			}
			// The carried value must pass through largely intact
			if edge.Value.LessThan(retention) {
				continue
			}
			if visited[edge.To] {
				continue
			}
			branches++
			extended = true

			visited[edge.To] = true
			s.extend(edge, append(path, edge), visited)
			delete(visited, edge.To)
		}
	}

	if !extended && len(path) >= cfg.MinChainLength {
		s.record(path)
	}
}

// record turns a maximal qualifying path into a TradeChain
func (s *chainSearch) record(path []entity.TradeEdge) {
	chain := entity.TradeChain{
		Path:      append([]entity.TradeEdge(nil), path...),
		Length:    len(path),
		StartedAt: path[0].Timestamp,
		EndedAt:   path[len(path)-1].Timestamp,
	}
	for _, edge := range path {
		chain.TotalValue = chain.TotalValue.Add(edge.Value)
	}
	chain.ValueConcentration = chain.TotalValue.Div(decimal.NewFromInt(int64(chain.Length)))
	s.chains = append(s.chains, chain)
}

// score derives the chain risk contribution from path count, depth and concentration
func (d *ChainTradingDetector) score(analysis *entity.ChainTradingAnalysis) float64 {
	if len(analysis.Chains) == 0 {
		return 0
	}

	countFactor := float64(len(analysis.Chains)) / 3
	if countFactor > 1 {
		countFactor = 1
	}
	depthFactor := float64(analysis.MaxChainDepth) / float64(d.config.MaxDepth)

	var maxConcentration decimal.Decimal
	for _, chain := range analysis.Chains {
		if chain.ValueConcentration.GreaterThan(maxConcentration) {
			maxConcentration = chain.ValueConcentration
		}
	}
	conc, _ := maxConcentration.Float64()
	concFactor := conc / d.config.MinChainValue
	if concFactor > 1 {
		concFactor = 1
	}

	return entity.ClampScore(0.3 + 0.25*countFactor + 0.25*depthFactor + 0.2*concFactor)
}

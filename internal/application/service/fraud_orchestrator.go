package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/domain/repository"
	domainService "pokemon-trade-fraud-engine/internal/domain/service"
	"pokemon-trade-fraud-engine/internal/infrastructure/config"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"
	"pokemon-trade-fraud-engine/internal/infrastructure/metrics"
)

// Detector names recorded in AnalysisErrors and metrics labels.
const (
	detectorChain      = "chain"
	detectorBurst      = "burst"
	detectorNetwork    = "network"
	detectorMarket     = "market"
	detectorLaundering = "laundering"
)

// FraudOrchestrator implements the public FraudDetectionService contract.
// It runs the fast path, conditionally fans out to the five detectors and
// aggregates their results into a single verdict.
type FraudOrchestrator struct {
	basic       *domainService.BasicRiskAnalyzer
	chain       *domainService.ChainTradingDetector
	burst       *domainService.BurstTradingDetector
	network     *domainService.NetworkAnalyzer
	market      *domainService.MarketManipulationDetector
	laundering  *domainService.PokemonLaunderingDetector
	returnCheck *domainService.ReturnTradeChecker
	flagCache   repository.FlaggedAccountCache
	config      *config.OrchestratorConfig
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

// NewFraudOrchestrator creates the fraud detection service
func NewFraudOrchestrator(
	basic *domainService.BasicRiskAnalyzer,
	chain *domainService.ChainTradingDetector,
	burst *domainService.BurstTradingDetector,
	network *domainService.NetworkAnalyzer,
	market *domainService.MarketManipulationDetector,
	laundering *domainService.PokemonLaunderingDetector,
	returnCheck *domainService.ReturnTradeChecker,
	flagCache repository.FlaggedAccountCache,
	cfg *config.OrchestratorConfig,
	m *metrics.Metrics,
	log *logger.Logger,
) domainService.FraudDetectionService {
	return &FraudOrchestrator{
		basic:       basic,
		chain:       chain,
		burst:       burst,
		network:     network,
		market:      market,
		laundering:  laundering,
		returnCheck: returnCheck,
		flagCache:   flagCache,
		config:      cfg,
		metrics:     m,
		logger:      log.WithComponent("fraud-orchestrator"),
	}
}

// FastCheck runs the synchronous basic analysis only
func (o *FraudOrchestrator) FastCheck(ctx context.Context, proposal *entity.TradeProposal) (*entity.FastFraudCheckResult, error) {
	analysis, err := o.basic.Analyze(ctx, proposal)
	if err != nil {
		return nil, err
	}

	result := &entity.FastFraudCheckResult{
		Analysis:                 analysis,
		RequiresDetailedAnalysis: analysis.OverallRiskScore > o.config.SafeThreshold || analysis.HasFlags(),
	}
	o.metrics.FastChecksTotal.WithLabelValues(fmt.Sprintf("%t", result.RequiresDetailedAnalysis)).Inc()
	return result, nil
}

// CheckReturnTrade reports whether a proposed trade reverses a recent prior trade
func (o *FraudOrchestrator) CheckReturnTrade(ctx context.Context, userID string, pokemonIDs []string) (*entity.ReturnTradeCheckResult, error) {
	return o.returnCheck.Check(ctx, userID, pokemonIDs, time.Now())
}

// detectorResult carries one finished sub-analysis back to the fan-in
type detectorResult struct {
	name       string
	chain      *entity.ChainTradingAnalysis
	burst      *entity.BurstTradingAnalysis
	network    *entity.NetworkConnectionAnalysis
	market     *entity.MarketManipulationAnalysis
	laundering *entity.TradePokemonLaunderingAnalysis
	err        error
}

// AnalyzeTrade runs the fast path and, when required, the full concurrent
// detector fan-out. It never raises a detector fault to the caller: failed
// sub-analyses land in AnalysisErrors with a neutral score contribution.
func (o *FraudOrchestrator) AnalyzeTrade(ctx context.Context, proposal *entity.TradeProposal) (*entity.ComprehensiveFraudAnalysis, error) {
	started := time.Now()

	fast, err := o.FastCheck(ctx, proposal)
	if err != nil {
		return nil, err
	}

	at := proposal.ProposedAt
	if at.IsZero() {
		at = time.Now()
	}

	analysis := &entity.ComprehensiveFraudAnalysis{
		AnalysisID:    uuid.NewString(),
		ProposalID:    proposal.ProposalID,
		AnalyzedAt:    at,
		BasicAnalysis: fast.Analysis,
	}

	if fast.RequiresDetailedAnalysis {
		o.runDetectors(ctx, proposal, at, analysis)
		o.applyReturnTradeDiscount(ctx, proposal, at, analysis)
	}

	o.aggregate(analysis)
	o.buildInsights(ctx, proposal, analysis)
	analysis.Recommendation = o.recommend(analysis)
	o.recordFlag(ctx, proposal, analysis)

	o.metrics.ObserveAnalysis(string(analysis.Recommendation.Action), time.Since(started))
	o.logger.Info("Trade analyzed",
		zap.String("proposal_id", proposal.ProposalID),
		zap.Float64("risk_score", analysis.ComprehensiveRiskScore),
		zap.String("action", string(analysis.Recommendation.Action)),
		zap.Int("detector_errors", len(analysis.AnalysisErrors)))

	return analysis, nil
}

// runDetectors fans the five detectors out concurrently, each with its own
// deadline, and collects whatever finishes before the overall deadline
func (o *FraudOrchestrator) runDetectors(ctx context.Context, proposal *entity.TradeProposal, at time.Time, analysis *entity.ComprehensiveFraudAnalysis) {
	overallCtx, cancel := context.WithTimeout(ctx, o.config.OverallTimeout)
	defer cancel()

	seedUser := proposal.Sender.UserID
	species := make([]string, 0, len(proposal.Sender.Items)+len(proposal.Receiver.Items))
	items := make([]entity.TradeItem, 0, len(proposal.Sender.Items)+len(proposal.Receiver.Items))
	for _, it := range proposal.Sender.Items {
		species = append(species, it.Species)
		items = append(items, it)
	}
	for _, it := range proposal.Receiver.Items {
		species = append(species, it.Species)
		items = append(items, it)
	}

	results := make(chan detectorResult, 5)

	run := func(name string, fn func(ctx context.Context) detectorResult) {
		detectorCtx, detectorCancel := context.WithTimeout(overallCtx, o.config.DetectorTimeout)
		go func() {
			defer detectorCancel()
			result := fn(detectorCtx)
			result.name = name
			if result.err == nil && detectorCtx.Err() != nil {
				result.err = detectorCtx.Err()
			}
			results <- result
		}()
	}

	run(detectorChain, func(ctx context.Context) detectorResult {
		r, err := o.chain.Detect(ctx, seedUser, at)
		return detectorResult{chain: r, err: err}
	})
	run(detectorBurst, func(ctx context.Context) detectorResult {
		r, err := o.burst.Detect(ctx, seedUser, at)
		return detectorResult{burst: r, err: err}
	})
	run(detectorNetwork, func(ctx context.Context) detectorResult {
		r, err := o.network.Detect(ctx, seedUser, at)
		return detectorResult{network: r, err: err}
	})
	run(detectorMarket, func(ctx context.Context) detectorResult {
		r, err := o.market.Detect(ctx, species, at)
		return detectorResult{market: r, err: err}
	})
	run(detectorLaundering, func(ctx context.Context) detectorResult {
		r, err := o.laundering.Detect(ctx, items, at)
		return detectorResult{laundering: r, err: err}
	})

	received := make(map[string]bool, 5)
	for len(received) < 5 {
		select {
		case result := <-results:
			received[result.name] = true
			o.applyResult(analysis, result)
		case <-overallCtx.Done():
			// Outer deadline: return best-effort partial results
			for _, name := range []string{detectorChain, detectorBurst, detectorNetwork, detectorMarket, detectorLaundering} {
				if !received[name] {
					received[name] = true
					o.recordError(analysis, name, overallCtx.Err())
				}
			}
		}
	}
}

// applyResult files one detector outcome into the aggregate
func (o *FraudOrchestrator) applyResult(analysis *entity.ComprehensiveFraudAnalysis, result detectorResult) {
	if result.err != nil {
		o.recordError(analysis, result.name, result.err)
		return
	}
	switch result.name {
	case detectorChain:
		analysis.ChainAnalysis = result.chain
	case detectorBurst:
		analysis.BurstAnalysis = result.burst
	case detectorNetwork:
		analysis.NetworkAnalysis = result.network
	case detectorMarket:
		analysis.MarketAnalysis = result.market
	case detectorLaundering:
		analysis.LaunderingAnalysis = result.laundering
	}
}

// recordError captures a non-fatal sub-analysis failure
func (o *FraudOrchestrator) recordError(analysis *entity.ComprehensiveFraudAnalysis, detector string, err error) {
	analysis.AnalysisErrors = append(analysis.AnalysisErrors, entity.AnalysisError{
		Detector:   detector,
		Message:    err.Error(),
		OccurredAt: time.Now(),
	})
	o.metrics.DetectorFailures.WithLabelValues(detector).Inc()
	o.logger.Warn("Detector failed, contributing neutral score",
		zap.String("detector", detector),
		zap.Error(err))
}

// applyReturnTradeDiscount suppresses laundering-shaped signals when the trade
// reverses a recent prior trade between the same pair
func (o *FraudOrchestrator) applyReturnTradeDiscount(ctx context.Context, proposal *entity.TradeProposal, at time.Time, analysis *entity.ComprehensiveFraudAnalysis) {
	check, err := o.returnCheck.Check(ctx, proposal.Sender.UserID, proposal.PokemonIDs(), at)
	if err != nil {
		o.logger.Warn("Return trade check failed", zap.Error(err))
		return
	}
	analysis.ReturnTradeCheck = check

	if !check.IsReturnTrade || check.ConfidenceLevel < o.returnCheck.MinConfidence() {
		return
	}

	discount := o.returnCheck.DiscountFactor()
	if analysis.ChainAnalysis != nil {
		analysis.ChainAnalysis.RiskScore *= discount
	}
	if analysis.LaunderingAnalysis != nil {
		analysis.LaunderingAnalysis.RiskScore *= discount
	}
}

// aggregate computes the comprehensive risk score: the maximum of the
// individual normalized scores, with a small additive bonus when two or more
// independent detectors corroborate each other
func (o *FraudOrchestrator) aggregate(analysis *entity.ComprehensiveFraudAnalysis) {
	scores := []float64{analysis.BasicAnalysis.OverallRiskScore}
	if analysis.ChainAnalysis != nil {
		scores = append(scores, analysis.ChainAnalysis.RiskScore)
	}
	if analysis.BurstAnalysis != nil {
		scores = append(scores, analysis.BurstAnalysis.RiskScore)
	}
	if analysis.NetworkAnalysis != nil {
		scores = append(scores, analysis.NetworkAnalysis.RiskScore)
	}
	if analysis.MarketAnalysis != nil {
		scores = append(scores, analysis.MarketAnalysis.RiskScore)
	}
	if analysis.LaunderingAnalysis != nil {
		scores = append(scores, analysis.LaunderingAnalysis.RiskScore)
	}

	max := 0.0
	firing := 0
	for _, s := range scores {
		if s > max {
			max = s
		}
		if s >= o.config.CorroborationMinimum {
			firing++
		}
	}
	if firing >= 2 {
		max += o.config.CorroborationBonus
	}

	analysis.ComprehensiveRiskScore = entity.ClampScore(max)
	analysis.RiskLevel = entity.RiskLevelForScore(analysis.ComprehensiveRiskScore)
}

// buildInsights renders one human-readable sentence per fired flag or detector
func (o *FraudOrchestrator) buildInsights(ctx context.Context, proposal *entity.TradeProposal, analysis *entity.ComprehensiveFraudAnalysis) {
	basic := analysis.BasicAnalysis
	add := func(s string) { analysis.ActionableInsights = append(analysis.ActionableInsights, s) }

	if basic.FlaggedRmt {
		add(fmt.Sprintf("Trade value is extremely lopsided (imbalance %.2f) with one side paying pure credits, matching a real-money-trading signature.", basic.ValueImbalanceScore))
	}
	if basic.FlaggedNewbieExploitation {
		add("The disadvantaged account is less than two days old, suggesting exploitation of a new player.")
	}
	if basic.FlaggedAltAccount {
		add("The two accounts appear to be linked alternates funnelling value to each other.")
	}
	if basic.FlaggedUnusualBehavior {
		add("This trade deviates sharply from the sender's historical trading pattern.")
	}
	if basic.FlaggedBotActivity {
		add("The sender's volume and timing pattern is consistent with automated trading.")
	}

	if c := analysis.ChainAnalysis; c != nil && len(c.Chains) > 0 {
		add(fmt.Sprintf("Detected %d trade chain(s) up to depth %d relaying value largely intact through intermediate accounts.", len(c.Chains), c.MaxChainDepth))
	}
	if b := analysis.BurstAnalysis; b != nil && len(b.Bursts) > 0 {
		add(fmt.Sprintf("Detected %d trading burst(s); the densest averaged one trade every %s.", len(b.Bursts), b.Bursts[0].AverageInterval))
	}
	if n := analysis.NetworkAnalysis; n != nil && n.Network != nil {
		add(fmt.Sprintf("The sender belongs to a %s cluster of %d densely trading accounts.", n.Network.NetworkType, n.Network.EstimatedSize))
	}
	if m := analysis.MarketAnalysis; m != nil {
		if m.PriceFixingDetected {
			add(fmt.Sprintf("Marketplace listings for %s show near-identical prices concentrated among few sellers.", m.Species))
		}
		if m.PumpAndDumpDetected {
			add(fmt.Sprintf("Marketplace prices for %s escalated rapidly and then collapsed, a pump-and-dump pattern.", m.Species))
		}
		if m.WashTradingDetected {
			add(fmt.Sprintf("A small set of accounts is re-trading %s back and forth: %v.", m.Species, m.CircularTradingPartners))
		}
	}
	if l := analysis.LaunderingAnalysis; l != nil && (l.RapidTransfers || l.CircularPath) {
		add(fmt.Sprintf("Asset %s changed hands %d times with rapid or circular transfers.", l.PokemonID, l.TransferCount))
	}
	if r := analysis.ReturnTradeCheck; r != nil && r.IsReturnTrade {
		add(fmt.Sprintf("This trade appears to reverse a recent prior trade (confidence %.2f); laundering signals were discounted.", r.ConfidenceLevel))
	}

	// Advisory context from the time-bounded flag cache; never a score input
	for _, userID := range []string{proposal.Sender.UserID, proposal.Receiver.UserID} {
		if level, err := o.flagCache.RecentFlag(ctx, userID); err == nil && level != "" {
			add(fmt.Sprintf("Account %s was recently flagged at %s risk.", userID, level))
		}
	}
}

// recommend derives the final action from score bands and flag combinations
func (o *FraudOrchestrator) recommend(analysis *entity.ComprehensiveFraudAnalysis) entity.RecommendedAction {
	basic := analysis.BasicAnalysis

	// Total detector failure degrades to Monitor: neither fail-open nor fail-closed
	if len(analysis.AnalysisErrors) == 5 {
		return entity.RecommendedAction{
			Action:  entity.FraudActionMonitor,
			Urgency: entity.UrgencyMedium,
			Reason:  "all detailed detectors failed; monitoring instead of allowing or blocking blindly",
			SuggestedSteps: []string{
				"retry detailed analysis once collaborators recover",
				"watch the pair's next trades",
			},
		}
	}

	switch analysis.RiskLevel {
	case entity.RiskLevelCritical:
		reason := "comprehensive risk score in the critical band"
		if basic.FlaggedRmt {
			reason = "critical risk with a real-money-trading signature"
		}
		return entity.RecommendedAction{
			Action:  entity.FraudActionBlockAndInvestigate,
			Urgency: entity.UrgencyCritical,
			Reason:  reason,
			SuggestedSteps: []string{
				"hold the trade before execution",
				"open an investigation on both accounts",
				"review the accounts' recent trade history",
			},
		}
	case entity.RiskLevelHigh:
		urgency := entity.UrgencyHigh
		if basic.FlaggedNewbieExploitation || basic.FlaggedRmt {
			urgency = entity.UrgencyCritical
		}
		return entity.RecommendedAction{
			Action:  entity.FraudActionFlagForReview,
			Urgency: urgency,
			Reason:  "high risk score requires human review before execution",
			SuggestedSteps: []string{
				"queue for moderator review",
				"notify both parties of the hold",
			},
		}
	case entity.RiskLevelMedium:
		urgency := entity.UrgencyLow
		if basic.HasFlags() {
			urgency = entity.UrgencyMedium
		}
		return entity.RecommendedAction{
			Action:  entity.FraudActionMonitor,
			Urgency: urgency,
			Reason:  "medium risk; allow but keep the pair under observation",
			SuggestedSteps: []string{
				"record the pair for follow-up analysis",
			},
		}
	default:
		if basic.HasFlags() {
			return entity.RecommendedAction{
				Action:  entity.FraudActionMonitor,
				Urgency: entity.UrgencyLow,
				Reason:  "low score but at least one flag fired",
				SuggestedSteps: []string{
					"record the pair for follow-up analysis",
				},
			}
		}
		return entity.RecommendedAction{
			Action:  entity.FraudActionAllow,
			Urgency: entity.UrgencyLow,
			Reason:  "risk score within the safe band and no flags fired",
		}
	}
}

// recordFlag remembers reviewed-or-worse verdicts in the advisory flag cache
func (o *FraudOrchestrator) recordFlag(ctx context.Context, proposal *entity.TradeProposal, analysis *entity.ComprehensiveFraudAnalysis) {
	action := analysis.Recommendation.Action
	if action != entity.FraudActionFlagForReview && action != entity.FraudActionBlockAndInvestigate {
		return
	}
	for _, userID := range []string{proposal.Sender.UserID, proposal.Receiver.UserID} {
		if err := o.flagCache.MarkFlagged(ctx, userID, analysis.RiskLevel, o.config.VerdictCacheTTL); err != nil {
			o.logger.Warn("Failed to record flagged account", zap.String("user_id", userID), zap.Error(err))
		}
	}
}

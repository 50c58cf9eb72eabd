package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/domain/repository"
	"pokemon-trade-fraud-engine/internal/infrastructure/config"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"
)

// BasicRiskAnalyzer scores a single trade proposal synchronously.
// It performs O(1) collaborator lookups only and sits on the trade critical path.
type BasicRiskAnalyzer struct {
	valuation repository.ValuationService
	accounts  repository.AccountDirectory
	config    *config.RiskConfig
	logger    *logger.Logger
}

// NewBasicRiskAnalyzer creates a new basic risk analyzer
func NewBasicRiskAnalyzer(
	valuation repository.ValuationService,
	accounts repository.AccountDirectory,
	cfg *config.RiskConfig,
	log *logger.Logger,
) *BasicRiskAnalyzer {
	return &BasicRiskAnalyzer{
		valuation: valuation,
		accounts:  accounts,
		config:    cfg,
		logger:    log.WithComponent("basic-risk-analyzer"),
	}
}

// Analyze scores a trade proposal and returns the single-trade risk bundle
func (a *BasicRiskAnalyzer) Analyze(ctx context.Context, proposal *entity.TradeProposal) (*entity.TradeRiskAnalysis, error) {
	if err := validateProposal(proposal); err != nil {
		return nil, err
	}

	senderValue, err := a.valuation.EstimateSideValue(ctx, proposal.Sender)
	if err != nil {
		return nil, fmt.Errorf("failed to value sender side: %w", err)
	}
	receiverValue, err := a.valuation.EstimateSideValue(ctx, proposal.Receiver)
	if err != nil {
		return nil, fmt.Errorf("failed to value receiver side: %w", err)
	}

	senderProfile, err := a.accounts.GetProfile(ctx, proposal.Sender.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sender profile: %w", err)
	}
	receiverProfile, err := a.accounts.GetProfile(ctx, proposal.Receiver.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load receiver profile: %w", err)
	}

	pairTrades, err := a.accounts.CountTradesBetween(ctx, proposal.Sender.UserID, proposal.Receiver.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count pair trades: %w", err)
	}

	now := proposal.ProposedAt
	if now.IsZero() {
		now = time.Now()
	}

	imbalance := valueImbalance(senderValue, receiverValue)
	relationship := a.relationshipRisk(senderValue, receiverValue, pairTrades, senderProfile, receiverProfile, now)
	behavioral := a.behavioralRisk(senderProfile, senderValue, now)
	accountAge := a.accountAgeRisk(senderProfile, receiverProfile, now)

	overall := entity.ClampScore(
		a.config.ValueImbalanceWeight*imbalance +
			a.config.RelationshipWeight*relationship +
			a.config.BehavioralWeight*behavioral +
			a.config.AccountAgeWeight*accountAge)

	analysis := &entity.TradeRiskAnalysis{
		SenderID:              proposal.Sender.UserID,
		ReceiverID:            proposal.Receiver.UserID,
		AnalyzedAt:            now,
		ValueImbalanceScore:   imbalance,
		RelationshipRiskScore: relationship,
		BehavioralRiskScore:   behavioral,
		AccountAgeRiskScore:   accountAge,
		OverallRiskScore:      overall,
		RiskLevel:             entity.RiskLevelForScore(overall),
	}

	a.applyFlags(analysis, proposal, senderValue, receiverValue, senderProfile, receiverProfile, now)

	a.logger.Debug("Scored trade proposal",
		zap.String("proposal_id", proposal.ProposalID),
		zap.Float64("overall", overall),
		zap.String("risk_level", string(analysis.RiskLevel)))

	return analysis, nil
}

// validateProposal rejects malformed proposals before any collaborator lookup
func validateProposal(proposal *entity.TradeProposal) error {
	if proposal == nil {
		return fmt.Errorf("%w: nil proposal", ErrInvalidProposal)
	}
	if proposal.Sender.UserID == "" || proposal.Receiver.UserID == "" {
		return fmt.Errorf("%w: missing participant id", ErrInvalidProposal)
	}
	if proposal.Sender.UserID == proposal.Receiver.UserID {
		return fmt.Errorf("%w: sender and receiver are the same account", ErrInvalidProposal)
	}
	if proposal.Sender.Credits.IsNegative() || proposal.Receiver.Credits.IsNegative() {
		return fmt.Errorf("%w: negative credits", ErrInvalidProposal)
	}
	return nil
}

// valueImbalance computes 1 - min/max over the two side values.
// A one-sided gift scores near 1; two empty sides score 0.
func valueImbalance(senderValue, receiverValue decimal.Decimal) float64 {
	maxVal := decimal.Max(senderValue, receiverValue)
	if maxVal.IsZero() {
		return 0
	}
	minVal := decimal.Min(senderValue, receiverValue)
	ratio, _ := minVal.Div(maxVal).Float64()
	return entity.ClampScore(1 - ratio)
}

// relationshipRisk is high when the pair has little shared history and the trade
// is large, decaying with pair trade count and with the pair's tenure.
func (a *BasicRiskAnalyzer) relationshipRisk(
	senderValue, receiverValue decimal.Decimal,
	pairTrades int64,
	sender, receiver *entity.AccountProfile,
	now time.Time,
) float64 {
	maxVal, _ := decimal.Max(senderValue, receiverValue).Float64()
	valueFactor := math.Min(1, maxVal/a.config.HighValueThreshold)

	historyDecay := 1 / (1 + float64(pairTrades))

	tenure := sender.Age(now)
	if r := receiver.Age(now); r < tenure {
		tenure = r
	}
	tenureDecay := 1 / (1 + tenure.Hours()/(30*24))

	return entity.ClampScore(valueFactor * historyDecay * tenureDecay * 2)
}

// behavioralRisk measures how far this trade sits from the sender's historical
// time-of-day and size pattern, z-score style, clipped to [0,1].
func (a *BasicRiskAnalyzer) behavioralRisk(sender *entity.AccountProfile, senderValue decimal.Decimal, now time.Time) float64 {
	if sender.TotalTrades == 0 {
		// No history to deviate from
		return 0
	}

	var total float64
	for _, c := range sender.TradeHourVector {
		total += float64(c)
	}
	hourScore := 0.0
	if total > 0 {
		mean := total / 24
		var variance float64
		for _, c := range sender.TradeHourVector {
			d := float64(c) - mean
			variance += d * d
		}
		std := math.Sqrt(variance / 24)
		if std > 0 {
			z := (mean - float64(sender.TradeHourVector[now.Hour()])) / std
			hourScore = entity.ClampScore(z / 3)
		}
	}

	sizeScore := 0.0
	if sender.AvgTradeValue.IsPositive() {
		ratio, _ := senderValue.Div(sender.AvgTradeValue).Float64()
		if ratio > 1 {
			// Trades 4x the usual size and beyond max out
			sizeScore = entity.ClampScore((ratio - 1) / 3)
		}
	}

	return entity.ClampScore(0.6*hourScore + 0.4*sizeScore)
}

// accountAgeRisk is inversely related to the younger account's age,
// saturating to zero once the configured age is reached.
func (a *BasicRiskAnalyzer) accountAgeRisk(sender, receiver *entity.AccountProfile, now time.Time) float64 {
	younger := sender.Age(now)
	if r := receiver.Age(now); r < younger {
		younger = r
	}
	if younger < 0 {
		younger = 0
	}
	saturation := a.config.AccountAgeSaturation
	if saturation <= 0 {
		return 0
	}
	return entity.ClampScore(1 - float64(younger)/float64(saturation))
}

// applyFlags evaluates the boolean flag rules over the sub-scores and metadata
func (a *BasicRiskAnalyzer) applyFlags(
	analysis *entity.TradeRiskAnalysis,
	proposal *entity.TradeProposal,
	senderValue, receiverValue decimal.Decimal,
	sender, receiver *entity.AccountProfile,
	now time.Time,
) {
	// RMT signature: extreme imbalance with one side paying pure credits
	senderPureCredits := len(proposal.Sender.Items) == 0 && proposal.Sender.Credits.IsPositive()
	receiverPureCredits := len(proposal.Receiver.Items) == 0 && proposal.Receiver.Credits.IsPositive()
	if analysis.ValueImbalanceScore > a.config.RmtImbalanceThreshold && (senderPureCredits || receiverPureCredits) {
		analysis.FlaggedRmt = true
	}

	// Newbie exploitation: the disadvantaged side is a fresh account
	disadvantaged := sender
	if receiverValue.LessThan(senderValue) {
		disadvantaged = receiver
	}
	if disadvantaged.Age(now) < a.config.NewbieAgeThreshold &&
		analysis.ValueImbalanceScore > a.config.NewbieImbalanceThreshold {
		analysis.FlaggedNewbieExploitation = true
	}

	// Alt account: explicit alt link between the pair, or two fresh accounts
	// funnelling lopsided value
	linked := (sender.KnownAltOf != "" && sender.KnownAltOf == receiver.UserID) ||
		(receiver.KnownAltOf != "" && receiver.KnownAltOf == sender.UserID) ||
		(sender.KnownAltOf != "" && sender.KnownAltOf == receiver.KnownAltOf)
	bothFresh := sender.Age(now) < a.config.NewbieAgeThreshold && receiver.Age(now) < a.config.NewbieAgeThreshold
	if linked || (bothFresh && analysis.ValueImbalanceScore > a.config.NewbieImbalanceThreshold) {
		analysis.FlaggedAltAccount = true
	}

	if analysis.BehavioralRiskScore > a.config.BehaviorFlagThreshold {
		analysis.FlaggedUnusualBehavior = true
	}

	// Bot signature visible on the fast path: heavy volume off-hours trader
	if sender.TotalTrades >= a.config.BotTradeVolume && analysis.BehavioralRiskScore > a.config.BehaviorFlagThreshold {
		analysis.FlaggedBotActivity = true
	}
}

package entity

import (
	"time"
)

// FraudAction represents the discrete verdict applied by the trade pipeline
type FraudAction string

const (
	FraudActionAllow               FraudAction = "ALLOW"
	FraudActionMonitor             FraudAction = "MONITOR"
	FraudActionFlagForReview       FraudAction = "FLAG_FOR_REVIEW"
	FraudActionBlockAndInvestigate FraudAction = "BLOCK_AND_INVESTIGATE"
)

// ActionUrgency represents how quickly a reviewer should act on a verdict
type ActionUrgency string

const (
	UrgencyLow      ActionUrgency = "LOW"
	UrgencyMedium   ActionUrgency = "MEDIUM"
	UrgencyHigh     ActionUrgency = "HIGH"
	UrgencyCritical ActionUrgency = "CRITICAL"
)

// RecommendedAction represents the verdict handed to the trade-execution pipeline
type RecommendedAction struct {
	Action         FraudAction   `json:"action"`
	Urgency        ActionUrgency `json:"urgency"`
	Reason         string        `json:"reason"`
	SuggestedSteps []string      `json:"suggested_steps"`
}

// AnalysisError represents a non-fatal sub-analysis failure surfaced to the caller
type AnalysisError struct {
	Detector   string    `json:"detector"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ReturnTradeCheckResult represents the outcome of the return-trade suppressor
type ReturnTradeCheckResult struct {
	IsReturnTrade          bool    `json:"is_return_trade"`
	Reason                 string  `json:"reason"`
	MatchingPokemonCount   int     `json:"matching_pokemon_count"`
	DaysSinceOriginalTrade float64 `json:"days_since_original_trade"`
	ConfidenceLevel        float64 `json:"confidence_level"` // 0.0 - 1.0
}

// ComprehensiveFraudAnalysis represents the aggregate verdict for one trade proposal
type ComprehensiveFraudAnalysis struct {
	AnalysisID string    `json:"analysis_id"`
	ProposalID string    `json:"proposal_id"`
	AnalyzedAt time.Time `json:"analyzed_at"`

	BasicAnalysis      *TradeRiskAnalysis              `json:"basic_analysis"`
	ChainAnalysis      *ChainTradingAnalysis           `json:"chain_analysis,omitempty"`
	BurstAnalysis      *BurstTradingAnalysis           `json:"burst_analysis,omitempty"`
	NetworkAnalysis    *NetworkConnectionAnalysis      `json:"network_analysis,omitempty"`
	MarketAnalysis     *MarketManipulationAnalysis     `json:"market_analysis,omitempty"`
	LaunderingAnalysis *TradePokemonLaunderingAnalysis `json:"laundering_analysis,omitempty"`
	ReturnTradeCheck   *ReturnTradeCheckResult         `json:"return_trade_check,omitempty"`

	ComprehensiveRiskScore float64           `json:"comprehensive_risk_score"`
	RiskLevel              RiskLevel         `json:"risk_level"`
	ActionableInsights     []string          `json:"actionable_insights"`
	Recommendation         RecommendedAction `json:"recommendation"`
	AnalysisErrors         []AnalysisError   `json:"analysis_errors,omitempty"`
}

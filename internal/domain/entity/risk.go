package entity

import (
	"time"
)

// RiskLevel represents a named band of the continuous risk score
type RiskLevel string

const (
	RiskLevelMinimal  RiskLevel = "MINIMAL"
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// RiskLevelForScore maps an overall risk score onto its band.
// Band edges: >=0.8 critical, >=0.6 high, >=0.4 medium, >=0.2 low.
func RiskLevelForScore(score float64) RiskLevel {
	switch {
	case score >= 0.8:
		return RiskLevelCritical
	case score >= 0.6:
		return RiskLevelHigh
	case score >= 0.4:
		return RiskLevelMedium
	case score >= 0.2:
		return RiskLevelLow
	default:
		return RiskLevelMinimal
	}
}

// ClampScore clamps a score into the [0,1] range every *Score field must stay in
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// TradeRiskAnalysis represents the single-trade score bundle from the basic analyzer
type TradeRiskAnalysis struct {
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	AnalyzedAt time.Time `json:"analyzed_at"`

	ValueImbalanceScore   float64 `json:"value_imbalance_score"`
	RelationshipRiskScore float64 `json:"relationship_risk_score"`
	BehavioralRiskScore   float64 `json:"behavioral_risk_score"`
	AccountAgeRiskScore   float64 `json:"account_age_risk_score"`
	OverallRiskScore      float64 `json:"overall_risk_score"`
	RiskLevel             RiskLevel `json:"risk_level"`

	FlaggedAltAccount         bool `json:"flagged_alt_account"`
	FlaggedRmt                bool `json:"flagged_rmt"`
	FlaggedNewbieExploitation bool `json:"flagged_newbie_exploitation"`
	FlaggedUnusualBehavior    bool `json:"flagged_unusual_behavior"`
	FlaggedBotActivity        bool `json:"flagged_bot_activity"`
}

// HasFlags reports whether any boolean flag fired
func (a *TradeRiskAnalysis) HasFlags() bool {
	return a.FlaggedAltAccount || a.FlaggedRmt || a.FlaggedNewbieExploitation ||
		a.FlaggedUnusualBehavior || a.FlaggedBotActivity
}

// FastFraudCheckResult represents the outcome of the synchronous fast path
type FastFraudCheckResult struct {
	Analysis                *TradeRiskAnalysis `json:"analysis"`
	RequiresDetailedAnalysis bool              `json:"requires_detailed_analysis"`
}

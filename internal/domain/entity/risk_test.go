package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskLevelForScore(t *testing.T) {
	cases := []struct {
		score float64
		want  RiskLevel
	}{
		{0.0, RiskLevelMinimal},
		{0.19, RiskLevelMinimal},
		{0.2, RiskLevelLow},
		{0.39, RiskLevelLow},
		{0.4, RiskLevelMedium},
		{0.59, RiskLevelMedium},
		{0.6, RiskLevelHigh},
		{0.79, RiskLevelHigh},
		{0.8, RiskLevelCritical},
		{1.0, RiskLevelCritical},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RiskLevelForScore(c.score), "score %v", c.score)
	}
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0.0, ClampScore(-0.5))
	assert.Equal(t, 0.0, ClampScore(0))
	assert.Equal(t, 0.42, ClampScore(0.42))
	assert.Equal(t, 1.0, ClampScore(1.7))
}

func TestTradeRiskAnalysisHasFlags(t *testing.T) {
	var a TradeRiskAnalysis
	assert.False(t, a.HasFlags())

	a.FlaggedBotActivity = true
	assert.True(t, a.HasFlags())

	a = TradeRiskAnalysis{FlaggedRmt: true}
	assert.True(t, a.HasFlags())
}

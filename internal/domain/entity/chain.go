package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeChain represents a candidate laundering path through intermediate accounts
type TradeChain struct {
	Path               []TradeEdge     `json:"path"`
	Length             int             `json:"length"`
	TotalValue         decimal.Decimal `json:"total_value"`
	ValueConcentration decimal.Decimal `json:"value_concentration"`
	StartedAt          time.Time       `json:"started_at"`
	EndedAt            time.Time       `json:"ended_at"`
}

// Accounts returns the ordered account ids along the chain, origin first
func (c *TradeChain) Accounts() []string {
	if len(c.Path) == 0 {
		return nil
	}
	accounts := make([]string, 0, len(c.Path)+1)
	accounts = append(accounts, c.Path[0].From)
	for _, edge := range c.Path {
		accounts = append(accounts, edge.To)
	}
	return accounts
}

// ChainTradingAnalysis represents the chain detector result for one seed account
type ChainTradingAnalysis struct {
	UserID           string          `json:"user_id"`
	Chains           []TradeChain    `json:"chains"`
	MaxChainDepth    int             `json:"max_chain_depth"`
	TotalValueFlowed decimal.Decimal `json:"total_value_flowed"`
	RiskScore        float64         `json:"risk_score"`
	Truncated        bool            `json:"truncated"`
}

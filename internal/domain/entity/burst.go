package entity

import (
	"time"
)

// TradeBurst represents a temporal cluster of trades by one account
type TradeBurst struct {
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	TradeCount      int           `json:"trade_count"`
	Duration        time.Duration `json:"duration"`
	UniquePartners  int           `json:"unique_partners"`
	AverageInterval time.Duration `json:"average_interval"`
}

// BurstTradingAnalysis represents the burst detector result for one account
type BurstTradingAnalysis struct {
	UserID     string       `json:"user_id"`
	Bursts     []TradeBurst `json:"bursts"`
	RiskScore  float64      `json:"risk_score"`
	BotLikely  bool         `json:"bot_likely"`
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketActivityData represents one marketplace listing or sale for a species
type MarketActivityData struct {
	ListingID string          `json:"listing_id"`
	Species   string          `json:"species"`
	SellerID  string          `json:"seller_id"`
	BuyerID   string          `json:"buyer_id,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Sold      bool            `json:"sold"`
	ListedAt  time.Time       `json:"listed_at"`
}

// SuspiciousPrice represents a price point concentrated among a small seller set
type SuspiciousPrice struct {
	Price           decimal.Decimal `json:"price"`
	ListingCount    int             `json:"listing_count"`
	InvolvedSellers []string        `json:"involved_sellers"`
}

// MarketManipulationAnalysis represents the market detector result for one species
type MarketManipulationAnalysis struct {
	Species                 string            `json:"species"`
	PriceFixingDetected     bool              `json:"price_fixing_detected"`
	PumpAndDumpDetected     bool              `json:"pump_and_dump_detected"`
	WashTradingDetected     bool              `json:"wash_trading_detected"`
	SuspiciousPrices        []SuspiciousPrice `json:"suspicious_prices"`
	CircularTradingPartners []string          `json:"circular_trading_partners"`
	PriceVolatility         float64           `json:"price_volatility"`
	RiskScore               float64           `json:"risk_score"`
}

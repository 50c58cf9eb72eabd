package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ObtainMethod represents how an account came to own an asset
type ObtainMethod string

const (
	ObtainMethodCatch   ObtainMethod = "CATCH"
	ObtainMethodTrade   ObtainMethod = "TRADE"
	ObtainMethodMarket  ObtainMethod = "MARKET"
	ObtainMethodGift    ObtainMethod = "GIFT"
	ObtainMethodUnknown ObtainMethod = "UNKNOWN"
)

// OwnershipRecord represents one entry in an asset's provenance chain
type OwnershipRecord struct {
	UserID     string       `json:"user_id"`
	ObtainedAt time.Time    `json:"obtained_at"`
	Method     ObtainMethod `json:"method"`
}

// TradePokemonLaunderingAnalysis represents the per-asset laundering detector result
type TradePokemonLaunderingAnalysis struct {
	PokemonID      string          `json:"pokemon_id"`
	TransferCount  int             `json:"transfer_count"`
	RapidTransfers bool            `json:"rapid_transfers"`
	CircularPath   bool            `json:"circular_path"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
	RiskScore      float64         `json:"risk_score"`
}

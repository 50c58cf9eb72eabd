package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeEdge represents one completed directed trade leg between two accounts
type TradeEdge struct {
	TradeID   string          `json:"trade_id"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Value     decimal.Decimal `json:"value"`
	PokemonID string          `json:"pokemon_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// TradeItem represents one asset offered on a side of a trade proposal
type TradeItem struct {
	PokemonID string `json:"pokemon_id"`
	Species   string `json:"species"`
	Level     int    `json:"level"`
	Shiny     bool   `json:"shiny"`
}

// TradeSide represents everything one account puts into a proposed trade
type TradeSide struct {
	UserID  string          `json:"user_id"`
	Items   []TradeItem     `json:"items"`
	Credits decimal.Decimal `json:"credits"`
}

// TradeProposal represents a proposed exchange between two accounts
type TradeProposal struct {
	ProposalID string    `json:"proposal_id"`
	Sender     TradeSide `json:"sender"`
	Receiver   TradeSide `json:"receiver"`
	ProposedAt time.Time `json:"proposed_at"`
}

// PokemonIDs returns every asset id involved in the proposal, both sides
func (p *TradeProposal) PokemonIDs() []string {
	ids := make([]string, 0, len(p.Sender.Items)+len(p.Receiver.Items))
	for _, it := range p.Sender.Items {
		ids = append(ids, it.PokemonID)
	}
	for _, it := range p.Receiver.Items {
		ids = append(ids, it.PokemonID)
	}
	return ids
}

// AccountProfile represents the identity metadata the engine reads per account
type AccountProfile struct {
	UserID          string          `json:"user_id"`
	CreatedAt       time.Time       `json:"created_at"`
	TotalTrades     int64           `json:"total_trades"`
	AvgTradeValue   decimal.Decimal `json:"avg_trade_value"`
	KnownAltOf      string          `json:"known_alt_of,omitempty"`
	TradeHourVector [24]int64       `json:"trade_hour_vector"`
}

// Age returns the account age at the given reference time
func (a *AccountProfile) Age(now time.Time) time.Duration {
	return now.Sub(a.CreatedAt)
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeExecutedEvent is the wire form of a completed trade published by the
// trade service. One event produces one ledger edge per direction of flow.
type TradeExecutedEvent struct {
	TradeID         string          `json:"trade_id"`
	SenderID        string          `json:"sender_id"`
	ReceiverID      string          `json:"receiver_id"`
	SentItems       []TradeItem     `json:"sent_items"`
	ReceivedItems   []TradeItem     `json:"received_items"`
	SenderCredits   decimal.Decimal `json:"sender_credits"`
	ReceiverCredits decimal.Decimal `json:"receiver_credits"`
	ExecutedAt      time.Time       `json:"executed_at"`
}

// MarketListingEvent is the wire form of a marketplace listing or sale
type MarketListingEvent struct {
	ListingID string          `json:"listing_id"`
	Species   string          `json:"species"`
	SellerID  string          `json:"seller_id"`
	BuyerID   string          `json:"buyer_id,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Sold      bool            `json:"sold"`
	ListedAt  time.Time       `json:"listed_at"`
}

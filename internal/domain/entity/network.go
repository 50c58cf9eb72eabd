package entity

// NetworkType represents the classification of a detected account cluster
type NetworkType string

const (
	NetworkTypeLoose      NetworkType = "LOOSE"
	NetworkTypeTightKnit  NetworkType = "TIGHT_KNIT"
	NetworkTypeLargeScale NetworkType = "LARGE_SCALE"
)

// NetworkConnection represents an edge in the undirected relationship graph
type NetworkConnection struct {
	User1ID            string  `json:"user1_id"`
	User2ID            string  `json:"user2_id"`
	ConnectionStrength float64 `json:"connection_strength"` // 0.0 - 1.0
	DirectTrades       int64   `json:"direct_trades"`
	SharedBehaviors    int     `json:"shared_behaviors"`
}

// FraudNetwork represents a detected cluster of colluding accounts
type FraudNetwork struct {
	CoreMembers   []string    `json:"core_members"`
	NetworkType   NetworkType `json:"network_type"`
	EstimatedSize int         `json:"estimated_size"`
	Density       float64     `json:"density"`
}

// NetworkConnectionAnalysis represents the network analyzer result for one seed account
type NetworkConnectionAnalysis struct {
	UserID      string              `json:"user_id"`
	Connections []NetworkConnection `json:"connections"`
	Network     *FraudNetwork       `json:"network,omitempty"`
	RiskScore   float64             `json:"risk_score"`
	Truncated   bool                `json:"truncated"`
}

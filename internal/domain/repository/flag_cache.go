package repository

import (
	"context"
	"time"

	"pokemon-trade-fraud-engine/internal/domain/entity"
)

// FlaggedAccountCache defines the injected, time-bounded cache of accounts
// whose recent verdicts warranted review. It is advisory only: entries add
// reviewer context, never score or flag contributions.
type FlaggedAccountCache interface {
	// MarkFlagged records that an account received the given risk level
	MarkFlagged(ctx context.Context, userID string, level entity.RiskLevel, ttl time.Duration) error

	// RecentFlag returns the cached risk level for an account, or "" when absent
	RecentFlag(ctx context.Context, userID string) (entity.RiskLevel, error)
}

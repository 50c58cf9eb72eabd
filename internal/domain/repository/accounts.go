package repository

import (
	"context"

	"pokemon-trade-fraud-engine/internal/domain/entity"
)

// AccountDirectory defines the identity lookups the engine performs per account
type AccountDirectory interface {
	// GetProfile retrieves the account metadata for a user
	GetProfile(ctx context.Context, userID string) (*entity.AccountProfile, error)

	// CountTradesBetween returns how many prior trades a pair of accounts shares
	CountTradesBetween(ctx context.Context, user1ID, user2ID string) (int64, error)
}

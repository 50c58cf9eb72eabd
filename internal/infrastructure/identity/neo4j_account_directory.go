// Package identity provides account metadata lookups backed by the trade graph.
package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/shopspring/decimal"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/domain/repository"
	"pokemon-trade-fraud-engine/internal/infrastructure/database"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"
)

// Neo4JAccountDirectory implements AccountDirectory on Account nodes
type Neo4JAccountDirectory struct {
	client *database.Neo4JClient
	logger *logger.Logger
}

// NewNeo4JAccountDirectory creates a new Neo4J account directory
func NewNeo4JAccountDirectory(client *database.Neo4JClient, log *logger.Logger) repository.AccountDirectory {
	return &Neo4JAccountDirectory{
		client: client,
		logger: log.WithComponent("neo4j-account-directory"),
	}
}

// GetProfile retrieves the account metadata for a user
func (d *Neo4JAccountDirectory) GetProfile(ctx context.Context, userID string) (*entity.AccountProfile, error) {
	session := d.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MATCH (a:Account {user_id: $user_id})
		RETURN a.user_id, a.created_at, a.total_trades, a.avg_trade_value, a.known_alt_of, a.trade_hour_vector
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]interface{}{"user_id": userID})
		if err != nil {
			return nil, err
		}
		if !records.Next(ctx) {
			return nil, fmt.Errorf("account not found: %s", userID)
		}

		values := records.Record().Values
		profile := &entity.AccountProfile{
			UserID: values[0].(string),
		}
		if t, ok := values[1].(time.Time); ok {
			profile.CreatedAt = t
		}
		if n, ok := values[2].(int64); ok {
			profile.TotalTrades = n
		}
		if s, ok := values[3].(string); ok {
			if v, err := decimal.NewFromString(s); err == nil {
				profile.AvgTradeValue = v
			}
		}
		if alt, ok := values[4].(string); ok {
			profile.KnownAltOf = alt
		}
		if hours, ok := values[5].([]interface{}); ok {
			for i, h := range hours {
				if i >= len(profile.TradeHourVector) {
					break
				}
				if n, ok := h.(int64); ok {
					profile.TradeHourVector[i] = n
				}
			}
		}
		return profile, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get account profile: %w", err)
	}
	return result.(*entity.AccountProfile), nil
}

// CountTradesBetween returns how many prior trades a pair of accounts shares
func (d *Neo4JAccountDirectory) CountTradesBetween(ctx context.Context, user1ID, user2ID string) (int64, error) {
	session := d.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MATCH (:Account {user_id: $user1_id})-[t:TRADED]-(:Account {user_id: $user2_id})
		RETURN count(DISTINCT t.trade_id)
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]interface{}{
			"user1_id": user1ID,
			"user2_id": user2ID,
		})
		if err != nil {
			return nil, err
		}
		if !records.Next(ctx) {
			return int64(0), nil
		}
		count, _ := records.Record().Values[0].(int64)
		return count, records.Err()
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count trades between accounts: %w", err)
	}
	return result.(int64), nil
}

package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/domain/repository"
	"pokemon-trade-fraud-engine/internal/infrastructure/config"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"
)

// NetworkAnalyzer identifies clusters of accounts that trade densely and
// atypically with each other (collusion rings, alt-account farms)
type NetworkAnalyzer struct {
	reader repository.TradeHistoryReader
	config *config.NetworkConfig
	logger *logger.Logger
}

// NewNetworkAnalyzer creates a new network analyzer
func NewNetworkAnalyzer(reader repository.TradeHistoryReader, cfg *config.NetworkConfig, log *logger.Logger) *NetworkAnalyzer {
	return &NetworkAnalyzer{
		reader: reader,
		config: cfg,
		logger: log.WithComponent("network-analyzer"),
	}
}

// Detect expands the relationship graph around the seed account within the
// bounded radius and classifies the component containing the seed
func (a *NetworkAnalyzer) Detect(ctx context.Context, userID string, at time.Time) (*entity.NetworkConnectionAnalysis, error) {
	since := at.Add(-a.config.LookbackWindow)

	analysis := &entity.NetworkConnectionAnalysis{UserID: userID}

	// partnersOf holds, per expanded account, the set of counterparties and
	// the direct trade count toward each
	partnersOf := make(map[string]map[string]int64)
	frontier := []string{userID}
	depth := 0
	fetched := 0

	for len(frontier) > 0 && depth < a.config.MaxRadius {
		var next []string
		for _, account := range frontier {
			if _, seen := partnersOf[account]; seen {
				continue
			}
			if fetched >= a.config.MaxVisitedNodes {
				analysis.Truncated = true
				break
			}
			fetched++

			trades, err := a.reader.GetTradesForUser(ctx, account, since)
			if err != nil {
				if account == userID {
					return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
				}
				// Unreadable neighbor ends expansion along that branch
				analysis.Truncated = true
				continue
			}

			counts := make(map[string]int64)
			for _, t := range trades {
				partner := t.To
				if partner == account {
					partner = t.From
				}
				counts[partner]++
			}
			partnersOf[account] = counts

			for partner, n := range counts {
				if n >= a.config.MinConnectionTrades {
					next = append(next, partner)
				}
			}
		}
		frontier = next
		depth++
	}

	analysis.Connections = a.buildConnections(partnersOf)
	analysis.Network = a.classify(userID, analysis.Connections)
	analysis.RiskScore = a.score(analysis.Network)

	a.logger.Debug("Network analysis finished",
		zap.String("user_id", userID),
		zap.Int("accounts_expanded", fetched),
		zap.Int("connections", len(analysis.Connections)),
		zap.Bool("truncated", analysis.Truncated))

	return analysis, nil
}

// buildConnections turns the expanded adjacency into weighted undirected edges.
// Edge weight combines direct-trade volume with counterparty overlap.
func (a *NetworkAnalyzer) buildConnections(partnersOf map[string]map[string]int64) []entity.NetworkConnection {
	var connections []entity.NetworkConnection
	for account, counts := range partnersOf {
		for partner, n := range counts {
			if n < a.config.MinConnectionTrades {
				continue
			}
			// Emit each undirected edge once
			if account > partner {
				if _, known := partnersOf[partner]; known {
					continue
				}
			}

			shared := 0
			if otherCounts, ok := partnersOf[partner]; ok {
				for p := range counts {
					if p == partner {
						continue
					}
					if _, both := otherCounts[p]; both {
						shared++
					}
				}
			}

			tradeFactor := float64(n) / 10
			if tradeFactor > 1 {
				tradeFactor = 1
			}
			sharedFactor := float64(shared) / 5
			if sharedFactor > 1 {
				sharedFactor = 1
			}

			connections = append(connections, entity.NetworkConnection{
				User1ID:            account,
				User2ID:            partner,
				ConnectionStrength: entity.ClampScore(0.6*tradeFactor + 0.4*sharedFactor),
				DirectTrades:       n,
				SharedBehaviors:    shared,
			})
		}
	}

	sort.Slice(connections, func(i, j int) bool {
		return connections[i].ConnectionStrength > connections[j].ConnectionStrength
	})
	return connections
}

// classify computes the connected component containing the seed and labels it
// by size and density
func (a *NetworkAnalyzer) classify(userID string, connections []entity.NetworkConnection) *entity.FraudNetwork {
	adjacency := make(map[string][]string)
	for _, c := range connections {
		adjacency[c.User1ID] = append(adjacency[c.User1ID], c.User2ID)
		adjacency[c.User2ID] = append(adjacency[c.User2ID], c.User1ID)
	}

	component := map[string]bool{userID: true}
	queue := []string{userID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, neighbor := range adjacency[current] {
			if !component[neighbor] {
				component[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}

	if len(component) < 3 {
		return nil
	}

	edges := 0
	for _, c := range connections {
		if component[c.User1ID] && component[c.User2ID] {
			edges++
		}
	}
	size := len(component)
	density := float64(2*edges) / float64(size*(size-1))

	members := make([]string, 0, size)
	for member := range component {
		members = append(members, member)
	}
	sort.Strings(members)

	networkType := entity.NetworkTypeLoose
	switch {
	case size >= a.config.LargeScaleSize:
		networkType = entity.NetworkTypeLargeScale
	case density >= a.config.TightKnitDensity:
		networkType = entity.NetworkTypeTightKnit
	}

	return &entity.FraudNetwork{
		CoreMembers:   members,
		NetworkType:   networkType,
		EstimatedSize: size,
		Density:       density,
	}
}

// score increases with density and with size beyond a normal friend group
func (a *NetworkAnalyzer) score(network *entity.FraudNetwork) float64 {
	if network == nil {
		return 0
	}

	sizeExcess := float64(network.EstimatedSize-a.config.NormalGroupSize) / float64(a.config.NormalGroupSize)
	if sizeExcess < 0 {
		sizeExcess = 0
	}
	if sizeExcess > 1 {
		sizeExcess = 1
	}

	base := 0.15
	if network.NetworkType != entity.NetworkTypeLoose {
		base = 0.35
	}

	return entity.ClampScore(base + 0.4*network.Density + 0.25*sizeExcess)
}

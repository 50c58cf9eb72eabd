package database

import (
	"context"
	"fmt"
	"time"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/domain/repository"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/shopspring/decimal"
)

// Neo4JTradeLedger implements TradeHistoryReader and TradeLedgerWriter on the
// trade graph: (:Account)-[:TRADED]->(:Account), (:Account)-[:OWNED]->(:Pokemon)
// and (:Listing) nodes for marketplace activity
type Neo4JTradeLedger struct {
	client *Neo4JClient
	logger *logger.Logger
}

// NewNeo4JTradeLedger creates a new Neo4J trade ledger
func NewNeo4JTradeLedger(client *Neo4JClient, logger *logger.Logger) *Neo4JTradeLedger {
	return &Neo4JTradeLedger{
		client: client,
		logger: logger.WithComponent("neo4j-trade-ledger"),
	}
}

var (
	_ repository.TradeHistoryReader = (*Neo4JTradeLedger)(nil)
	_ repository.TradeLedgerWriter  = (*Neo4JTradeLedger)(nil)
)

// GetTradesForUser retrieves trade edges touching a user since the given time
func (r *Neo4JTradeLedger) GetTradesForUser(ctx context.Context, userID string, since time.Time) ([]entity.TradeEdge, error) {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MATCH (a:Account {user_id: $user_id})-[t:TRADED]-(b:Account)
		WHERE t.timestamp >= datetime($since)
		RETURN t.trade_id, startNode(t).user_id, endNode(t).user_id, t.value, t.pokemon_id, t.timestamp
		ORDER BY t.timestamp
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collectEdges(ctx, tx, query, map[string]interface{}{
			"user_id": userID,
			"since":   isoTime(since),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get trades for user: %w", err)
	}
	return result.([]entity.TradeEdge), nil
}

// GetTradesBetween retrieves trade edges between two users since the given time
func (r *Neo4JTradeLedger) GetTradesBetween(ctx context.Context, user1ID, user2ID string, since time.Time) ([]entity.TradeEdge, error) {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MATCH (a:Account {user_id: $user1_id})-[t:TRADED]-(b:Account {user_id: $user2_id})
		WHERE t.timestamp >= datetime($since)
		RETURN t.trade_id, startNode(t).user_id, endNode(t).user_id, t.value, t.pokemon_id, t.timestamp
		ORDER BY t.timestamp
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collectEdges(ctx, tx, query, map[string]interface{}{
			"user1_id": user1ID,
			"user2_id": user2ID,
			"since":    isoTime(since),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get trades between users: %w", err)
	}
	return result.([]entity.TradeEdge), nil
}

// GetOwnershipHistory retrieves the ordered provenance chain of one asset
func (r *Neo4JTradeLedger) GetOwnershipHistory(ctx context.Context, pokemonID string) ([]entity.OwnershipRecord, error) {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MATCH (a:Account)-[o:OWNED]->(p:Pokemon {pokemon_id: $pokemon_id})
		RETURN a.user_id, o.obtained_at, o.method
		ORDER BY o.obtained_at
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]interface{}{"pokemon_id": pokemonID})
		if err != nil {
			return nil, err
		}

		var history []entity.OwnershipRecord
		for records.Next(ctx) {
			values := records.Record().Values
			userID := stringOrEmpty(values[0])
			if userID == "" {
				continue
			}
			history = append(history, entity.OwnershipRecord{
				UserID:     userID,
				ObtainedAt: timeOrZero(values[1]),
				Method:     obtainMethodFromStored(values[2]),
			})
		}
		return history, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get ownership history: %w", err)
	}
	return result.([]entity.OwnershipRecord), nil
}

// GetMarketListings retrieves recent listing/sale records for a species
func (r *Neo4JTradeLedger) GetMarketListings(ctx context.Context, species string, since time.Time) ([]entity.MarketActivityData, error) {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MATCH (l:Listing {species: $species})
		WHERE l.listed_at >= datetime($since)
		RETURN l.listing_id, l.species, l.seller_id, l.buyer_id, l.price, l.sold, l.listed_at
		ORDER BY l.listed_at
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]interface{}{
			"species": species,
			"since":   isoTime(since),
		})
		if err != nil {
			return nil, err
		}

		var listings []entity.MarketActivityData
		for records.Next(ctx) {
			values := records.Record().Values
			listingID := stringOrEmpty(values[0])
			if listingID == "" {
				continue
			}
			sold, _ := values[5].(bool)
			listings = append(listings, entity.MarketActivityData{
				ListingID: listingID,
				Species:   stringOrEmpty(values[1]),
				SellerID:  stringOrEmpty(values[2]),
				BuyerID:   stringOrEmpty(values[3]),
				Price:     decimalFromStored(values[4]),
				Sold:      sold,
				ListedAt:  timeOrZero(values[6]),
			})
		}
		return listings, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get market listings: %w", err)
	}
	return result.([]entity.MarketActivityData), nil
}

// RecordTradeEdge records one completed trade leg
func (r *Neo4JTradeLedger) RecordTradeEdge(ctx context.Context, edge *entity.TradeEdge) error {
	return r.BatchRecordTradeEdges(ctx, []*entity.TradeEdge{edge})
}

// BatchRecordTradeEdges records multiple trade legs in a batch
func (r *Neo4JTradeLedger) BatchRecordTradeEdges(ctx context.Context, edges []*entity.TradeEdge) error {
	if len(edges) == 0 {
		return nil
	}

	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		UNWIND $edges as edge
		MERGE (from:Account {user_id: edge.from})
		MERGE (to:Account {user_id: edge.to})
		MERGE (from)-[t:TRADED {trade_id: edge.trade_id, direction: edge.direction}]->(to)
		SET t.value = edge.value,
			t.pokemon_id = edge.pokemon_id,
			t.timestamp = datetime(edge.timestamp)
	`

	var edgeData []map[string]interface{}
	for _, edge := range edges {
		edgeData = append(edgeData, map[string]interface{}{
			"trade_id":   edge.TradeID,
			"from":       edge.From,
			"to":         edge.To,
			"direction":  edge.From + ">" + edge.To,
			"value":      edge.Value.String(),
			"pokemon_id": edge.PokemonID,
			"timestamp":  isoTime(edge.Timestamp),
		})
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]interface{}{"edges": edgeData})
	})
	if err != nil {
		return fmt.Errorf("failed to batch record trade edges: %w", err)
	}
	return nil
}

// RecordOwnershipTransfer appends an entry to an asset's provenance chain
func (r *Neo4JTradeLedger) RecordOwnershipTransfer(ctx context.Context, pokemonID string, record *entity.OwnershipRecord) error {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MERGE (a:Account {user_id: $user_id})
		MERGE (p:Pokemon {pokemon_id: $pokemon_id})
		MERGE (a)-[o:OWNED {obtained_at: datetime($obtained_at)}]->(p)
		SET o.method = $method
	`

	params := map[string]interface{}{
		"user_id":     record.UserID,
		"pokemon_id":  pokemonID,
		"obtained_at": isoTime(record.ObtainedAt),
		"method":      string(record.Method),
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, params)
	})
	if err != nil {
		return fmt.Errorf("failed to record ownership transfer: %w", err)
	}
	return nil
}

// RecordMarketListing records one marketplace listing or sale
func (r *Neo4JTradeLedger) RecordMarketListing(ctx context.Context, listing *entity.MarketActivityData) error {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MERGE (l:Listing {listing_id: $listing_id})
		SET l.species = $species,
			l.seller_id = $seller_id,
			l.buyer_id = $buyer_id,
			l.price = $price,
			l.sold = $sold,
			l.listed_at = datetime($listed_at)
	`

	params := map[string]interface{}{
		"listing_id": listing.ListingID,
		"species":    listing.Species,
		"seller_id":  listing.SellerID,
		"buyer_id":   listing.BuyerID,
		"price":      listing.Price.String(),
		"sold":       listing.Sold,
		"listed_at":  isoTime(listing.ListedAt),
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, params)
	})
	if err != nil {
		return fmt.Errorf("failed to record market listing: %w", err)
	}
	return nil
}

func collectEdges(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]interface{}) ([]entity.TradeEdge, error) {
	records, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}

	var edges []entity.TradeEdge
	for records.Next(ctx) {
		values := records.Record().Values
		from := stringOrEmpty(values[1])
		to := stringOrEmpty(values[2])
		// An edge without both endpoints is useless to every caller
		if from == "" || to == "" {
			continue
		}
		edges = append(edges, entity.TradeEdge{
			TradeID:   stringOrEmpty(values[0]),
			From:      from,
			To:        to,
			Value:     decimalFromStored(values[3]),
			PokemonID: stringOrEmpty(values[4]),
			Timestamp: timeOrZero(values[5]),
		})
	}
	return edges, records.Err()
}

// isoTime formats a timestamp as ISO-8601 for Neo4J datetime()
func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func stringOrEmpty(v interface{}) string {
	s, _ := v.(string)
	return s
}

func timeOrZero(v interface{}) time.Time {
	t, _ := v.(time.Time)
	return t
}

// obtainMethodFromStored maps a stored method string, treating null or
// mis-typed properties as unknown provenance
func obtainMethodFromStored(v interface{}) entity.ObtainMethod {
	s, _ := v.(string)
	if s == "" {
		return entity.ObtainMethodUnknown
	}
	return entity.ObtainMethod(s)
}

// decimalFromStored parses a value stored as its decimal string form.
// Unparseable values degrade to zero rather than failing the whole query.
func decimalFromStored(v interface{}) decimal.Decimal {
	s, ok := v.(string)
	if !ok {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	app_service "pokemon-trade-fraud-engine/internal/application/service"
	"pokemon-trade-fraud-engine/internal/domain/entity"
	domain_service "pokemon-trade-fraud-engine/internal/domain/service"
	"pokemon-trade-fraud-engine/internal/infrastructure/cache"
	"pokemon-trade-fraud-engine/internal/infrastructure/config"
	"pokemon-trade-fraud-engine/internal/infrastructure/database"
	"pokemon-trade-fraud-engine/internal/infrastructure/identity"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"
	"pokemon-trade-fraud-engine/internal/infrastructure/metrics"
	"pokemon-trade-fraud-engine/internal/infrastructure/valuation"
)

// Seeds an in-memory ledger with a laundering ring and runs one full analysis
// against it. Useful for eyeballing the engine without Neo4J or NATS.
func main() {
	log, err := logger.NewLogger("development", "debug")
	if err != nil {
		panic(err)
	}
	log = log.WithComponent("demo")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()
	now := time.Now()

	ledger := database.NewMemoryTradeLedger()
	accounts := identity.NewMemoryAccountDirectory()
	values := valuation.NewStaticValuationService(&cfg.Valuation)

	seedRing(ctx, ledger, accounts, now)

	engine := app_service.NewFraudOrchestrator(
		domain_service.NewBasicRiskAnalyzer(values, accounts, &cfg.Risk, log),
		domain_service.NewChainTradingDetector(ledger, &cfg.Chain, log),
		domain_service.NewBurstTradingDetector(ledger, &cfg.Burst, log),
		domain_service.NewNetworkAnalyzer(ledger, &cfg.Network, log),
		domain_service.NewMarketManipulationDetector(ledger, &cfg.Market, log),
		domain_service.NewPokemonLaunderingDetector(ledger, values, &cfg.Laundering, log),
		domain_service.NewReturnTradeChecker(ledger, &cfg.ReturnTrade, log),
		cache.NewMemoryFlagCache(),
		&cfg.Orchestrator,
		metrics.NewMetrics(),
		log,
	)

	proposal := &entity.TradeProposal{
		ProposalID: "demo-proposal-1",
		Sender: entity.TradeSide{
			UserID: "ring-a",
			Items: []entity.TradeItem{
				{PokemonID: "pkm-hot", Species: "charizard", Level: 80, Shiny: true},
			},
		},
		Receiver: entity.TradeSide{
			UserID:  "mule-1",
			Credits: decimal.NewFromInt(25),
		},
		ProposedAt: now,
	}

	analysis, err := engine.AnalyzeTrade(ctx, proposal)
	if err != nil {
		log.Fatal("Analysis failed", zap.Error(err))
	}

	fmt.Printf("analysis %s for proposal %s\n", analysis.AnalysisID, analysis.ProposalID)
	fmt.Printf("  comprehensive score: %.3f (%s)\n", analysis.ComprehensiveRiskScore, analysis.RiskLevel)
	fmt.Printf("  recommended action:  %s (%s): %s\n",
		analysis.Recommendation.Action, analysis.Recommendation.Urgency, analysis.Recommendation.Reason)
	for _, insight := range analysis.ActionableInsights {
		fmt.Printf("  - %s\n", insight)
	}
	for _, e := range analysis.AnalysisErrors {
		fmt.Printf("  ! %s: %s\n", e.Detector, e.Message)
	}
}

// seedRing populates three ring accounts relaying one shiny asset plus the
// profiles the basic analyzer reads
func seedRing(ctx context.Context, ledger *database.MemoryTradeLedger, accounts *identity.MemoryAccountDirectory, now time.Time) {
	ring := []string{"ring-a", "ring-b", "ring-c", "mule-1"}
	for i, id := range ring {
		accounts.PutProfile(entity.AccountProfile{
			UserID:        id,
			CreatedAt:     now.Add(-time.Duration(12+i) * time.Hour),
			TotalTrades:   4,
			AvgTradeValue: decimal.NewFromInt(50),
		})
	}

	// The asset hops through the ring within minutes, ending back at ring-a
	hops := []struct {
		from, to string
		offset   time.Duration
	}{
		{"ring-a", "ring-b", -50 * time.Minute},
		{"ring-b", "ring-c", -40 * time.Minute},
		{"ring-c", "mule-1", -30 * time.Minute},
		{"mule-1", "ring-a", -20 * time.Minute},
	}
	for i, hop := range hops {
		ledger.RecordTradeEdge(ctx, &entity.TradeEdge{
			TradeID:   fmt.Sprintf("demo-trade-%d", i),
			From:      hop.from,
			To:        hop.to,
			Value:     decimal.NewFromInt(20000),
			PokemonID: "pkm-hot",
			Timestamp: now.Add(hop.offset),
		})
		ledger.RecordOwnershipTransfer(ctx, "pkm-hot", &entity.OwnershipRecord{
			UserID:     hop.to,
			ObtainedAt: now.Add(hop.offset),
			Method:     entity.ObtainMethodTrade,
		})
	}
}

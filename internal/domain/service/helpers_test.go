package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/infrastructure/config"
	"pokemon-trade-fraud-engine/internal/infrastructure/database"
)

func testRiskConfig() *config.RiskConfig {
	return &config.RiskConfig{
		ValueImbalanceWeight:     0.4,
		RelationshipWeight:       0.3,
		BehavioralWeight:         0.2,
		AccountAgeWeight:         0.1,
		AccountAgeSaturation:     720 * time.Hour,
		NewbieAgeThreshold:       48 * time.Hour,
		RmtImbalanceThreshold:    0.9,
		NewbieImbalanceThreshold: 0.8,
		HighValueThreshold:       10000,
		BehaviorFlagThreshold:    0.8,
		BotTradeVolume:           500,
	}
}

func testChainConfig() *config.ChainConfig {
	return &config.ChainConfig{
		LookbackWindow:  168 * time.Hour,
		MaxDepth:        5,
		MaxBranching:    8,
		MaxVisitedNodes: 2000,
		HopTimeDelta:    time.Hour,
		ValueRetention:  0.8,
		MinChainLength:  2,
		MinChainValue:   1000,
	}
}

func testBurstConfig() *config.BurstConfig {
	return &config.BurstConfig{
		LookbackWindow:    24 * time.Hour,
		WindowSize:        10 * time.Minute,
		CountThreshold:    10,
		HumanReactionTime: 3 * time.Second,
	}
}

func testNetworkConfig() *config.NetworkConfig {
	return &config.NetworkConfig{
		LookbackWindow:      720 * time.Hour,
		MaxRadius:           3,
		MaxVisitedNodes:     500,
		MinConnectionTrades: 3,
		TightKnitDensity:    0.6,
		LargeScaleSize:      20,
		NormalGroupSize:     8,
	}
}

func testMarketConfig() *config.MarketConfig {
	return &config.MarketConfig{
		LookbackWindow:         168 * time.Hour,
		PriceFixingMinListings: 5,
		PriceFixingMaxSellers:  3,
		PriceFixingTolerance:   0.02,
		PumpEscalationFactor:   2.0,
		WashMinRoundTrips:      3,
		WashMaxPartners:        3,
	}
}

func testLaunderingConfig() *config.LaunderingConfig {
	return &config.LaunderingConfig{
		RapidTransferThreshold: time.Hour,
		HighValueThreshold:     50000,
		MinTransfersForRisk:    3,
	}
}

func testReturnTradeConfig() *config.ReturnTradeConfig {
	return &config.ReturnTradeConfig{
		MatchWindow:    168 * time.Hour,
		MinConfidence:  0.8,
		DiscountFactor: 0.5,
	}
}

func seedEdge(ledger *database.MemoryTradeLedger, id, from, to string, value int64, at time.Time) {
	seedAssetEdge(ledger, id, from, to, value, "", at)
}

func seedAssetEdge(ledger *database.MemoryTradeLedger, id, from, to string, value int64, pokemonID string, at time.Time) {
	ledger.RecordTradeEdge(context.Background(), &entity.TradeEdge{
		TradeID:   id,
		From:      from,
		To:        to,
		Value:     decimal.NewFromInt(value),
		PokemonID: pokemonID,
		Timestamp: at,
	})
}

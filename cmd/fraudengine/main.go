package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app_service "pokemon-trade-fraud-engine/internal/application/service"
	"pokemon-trade-fraud-engine/internal/domain/repository"
	domain_service "pokemon-trade-fraud-engine/internal/domain/service"
	"pokemon-trade-fraud-engine/internal/infrastructure/cache"
	"pokemon-trade-fraud-engine/internal/infrastructure/config"
	"pokemon-trade-fraud-engine/internal/infrastructure/database"
	"pokemon-trade-fraud-engine/internal/infrastructure/identity"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"
	"pokemon-trade-fraud-engine/internal/infrastructure/messaging"
	"pokemon-trade-fraud-engine/internal/infrastructure/metrics"
	"pokemon-trade-fraud-engine/internal/infrastructure/valuation"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.NewLogger(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	// Create FX application
	app := fx.New(
		// Provide dependencies
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.App),
		fx.Supply(&cfg.NATS),
		fx.Supply(&cfg.Neo4J),
		fx.Supply(&cfg.Redis),
		fx.Supply(&cfg.Risk),
		fx.Supply(&cfg.Chain),
		fx.Supply(&cfg.Burst),
		fx.Supply(&cfg.Network),
		fx.Supply(&cfg.Market),
		fx.Supply(&cfg.Laundering),
		fx.Supply(&cfg.ReturnTrade),
		fx.Supply(&cfg.Orchestrator),
		fx.Supply(&cfg.Valuation),
		fx.Provide(func() *zap.Logger { return log.Logger }),

		// Infrastructure providers
		fx.Provide(
			metrics.NewMetrics,
			database.NewNeo4JClient,
			database.NewNeo4JTradeLedger,
			identity.NewNeo4JAccountDirectory,
			valuation.NewStaticValuationService,
			messaging.NewNATSConsumer,
			provideTradeHistoryReader,
			provideTradeLedgerWriter,
			provideFlagCache,
		),

		// Domain services
		fx.Provide(
			domain_service.NewBasicRiskAnalyzer,
			domain_service.NewChainTradingDetector,
			domain_service.NewBurstTradingDetector,
			domain_service.NewNetworkAnalyzer,
			domain_service.NewMarketManipulationDetector,
			domain_service.NewPokemonLaunderingDetector,
			domain_service.NewReturnTradeChecker,
		),

		// Application providers
		fx.Provide(
			app_service.NewFraudOrchestrator,
			app_service.NewTradeIndexingService,
		),

		// Lifecycle hooks
		fx.Invoke(startEngine),
		fx.Invoke(startHealthServer),
		fx.Invoke(startMetricsServer),

		// Configure logging
		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	// Start the application
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		os.Exit(1)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down application...")

	// Stop the application
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
}

// provideTradeHistoryReader wraps the graph reader with Redis memoization when enabled
func provideTradeHistoryReader(
	ledger *database.Neo4JTradeLedger,
	cfg *config.Config,
	log *logger.Logger,
) repository.TradeHistoryReader {
	if !cfg.Redis.Enabled {
		return ledger
	}
	client := cache.NewRedisClient(&cfg.Redis)
	return cache.NewCachedTradeHistoryReader(ledger, client, &cfg.Redis, log)
}

func provideTradeLedgerWriter(ledger *database.Neo4JTradeLedger) repository.TradeLedgerWriter {
	return ledger
}

// provideFlagCache uses Redis when enabled, otherwise an in-process cache
func provideFlagCache(cfg *config.Config, log *logger.Logger) repository.FlaggedAccountCache {
	if cfg.Redis.Enabled {
		return cache.NewRedisFlagCache(cache.NewRedisClient(&cfg.Redis), log)
	}
	return cache.NewMemoryFlagCache()
}

// startEngine connects the graph store and the event pipeline
func startEngine(
	lifecycle fx.Lifecycle,
	neo4jClient *database.Neo4JClient,
	consumer *messaging.NATSConsumer,
	indexing *app_service.TradeIndexingService,
	fraudService domain_service.FraudDetectionService,
	log *logger.Logger,
	cfg *config.Config,
) {
	// The OnStart context dies when startup returns; the event pump needs a
	// context that lives until shutdown
	runCtx, cancelPump := context.WithCancel(context.Background())

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting fraud engine...")

			log.Info("Connecting to Neo4J database")
			if err := neo4jClient.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to Neo4J: %w", err)
			}

			if err := indexing.Start(ctx); err != nil {
				return err
			}

			log.Info("NATS Configuration",
				zap.String("url", cfg.NATS.URL),
				zap.String("stream_name", cfg.NATS.StreamName),
				zap.String("subject_prefix", cfg.NATS.SubjectPrefix),
				zap.Bool("enabled", cfg.NATS.Enabled),
			)

			if err := consumer.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}

			go pumpEvents(runCtx, consumer, indexing, log)

			log.Info("Fraud engine started successfully")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping fraud engine...")
			cancelPump()
			if err := consumer.Disconnect(); err != nil {
				log.Error("Failed to disconnect from NATS", zap.Error(err))
			}
			if err := indexing.Stop(ctx); err != nil {
				log.Error("Failed to stop indexing service", zap.Error(err))
			}
			if err := neo4jClient.Close(ctx); err != nil {
				log.Error("Failed to close Neo4J connection", zap.Error(err))
			}
			return nil
		},
	})
}

// pumpEvents moves consumed events into the indexing pipeline
func pumpEvents(
	ctx context.Context,
	consumer *messaging.NATSConsumer,
	indexing *app_service.TradeIndexingService,
	log *logger.Logger,
) {
	tradeEvents := consumer.TradeEvents()
	marketEvents := consumer.MarketEvents()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-tradeEvents:
			if !ok {
				return
			}
			if err := indexing.Enqueue(event); err != nil {
				log.Warn("Failed to enqueue trade event", zap.Error(err))
			}
		case event, ok := <-marketEvents:
			if !ok {
				return
			}
			if err := indexing.IndexMarketListing(ctx, event); err != nil {
				log.Warn("Failed to index market listing", zap.Error(err))
			}
		}
	}
}

// startHealthServer starts the health check server
func startHealthServer(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	neo4jClient *database.Neo4JClient,
	consumer *messaging.NATSConsumer,
	logger *logger.Logger,
) {
	var server *http.Server

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting health server...", zap.Int("port", cfg.App.HTTPPort))

			mux := http.NewServeMux()
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				checkCtx, cancel := context.WithTimeout(r.Context(), cfg.Health.Timeout)
				defer cancel()

				if !neo4jClient.IsConnected(checkCtx) {
					w.WriteHeader(http.StatusServiceUnavailable)
					w.Write([]byte(`{"status":"degraded","neo4j":"down"}`))
					return
				}
				if cfg.NATS.Enabled && !consumer.IsConnected() {
					w.WriteHeader(http.StatusServiceUnavailable)
					w.Write([]byte(`{"status":"degraded","nats":"down"}`))
					return
				}
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"status":"ok"}`))
			})

			server = &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.App.HTTPPort),
				Handler: mux,
			}

			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Health server error", zap.Error(err))
				}
			}()

			logger.Info("Health server started successfully")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping health server...")
			if server != nil {
				return server.Shutdown(ctx)
			}
			return nil
		},
	})
}

// startMetricsServer exposes the Prometheus registry
func startMetricsServer(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	m *metrics.Metrics,
	logger *logger.Logger,
) {
	if !cfg.Metrics.Enabled {
		return
	}

	var server *http.Server

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting metrics server...", zap.Int("port", cfg.Metrics.Port))

			mux := http.NewServeMux()
			mux.Handle("/metrics", m.Handler())

			server = &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
				Handler: mux,
			}

			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Metrics server error", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if server != nil {
				return server.Shutdown(ctx)
			}
			return nil
		},
	})
}

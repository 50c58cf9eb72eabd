package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/domain/repository"
	"pokemon-trade-fraud-engine/internal/infrastructure/config"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"
	"pokemon-trade-fraud-engine/internal/infrastructure/metrics"
)

// TradeIndexingService consumes executed-trade and marketplace events and
// materializes them into the trade ledger: one edge per direction of value
// flow plus one provenance entry per asset that changed hands.
type TradeIndexingService struct {
	writer    repository.TradeLedgerWriter
	valuation repository.ValuationService
	config    *config.AppConfig
	metrics   *metrics.Metrics
	logger    *logger.Logger

	events  chan *entity.TradeExecutedEvent
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	started bool
	mu      sync.Mutex
}

// NewTradeIndexingService creates a new trade indexing service
func NewTradeIndexingService(
	writer repository.TradeLedgerWriter,
	valuation repository.ValuationService,
	cfg *config.AppConfig,
	m *metrics.Metrics,
	log *logger.Logger,
) *TradeIndexingService {
	return &TradeIndexingService{
		writer:    writer,
		valuation: valuation,
		config:    cfg,
		metrics:   m,
		logger:    log.WithComponent("trade-indexing"),
		events:    make(chan *entity.TradeExecutedEvent, cfg.BatchSize*2),
	}
}

// Start launches the worker pool draining the event queue
func (s *TradeIndexingService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("trade indexing service already started")
	}
	s.started = true

	// The startup hook context is cancelled as soon as startup returns, so
	// workers run on their own context tied to Stop
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	for i := 0; i < s.config.WorkerPoolSize; i++ {
		s.wg.Add(1)
		go s.worker(runCtx, i)
	}

	s.logger.Info("Trade indexing service started",
		zap.Int("workers", s.config.WorkerPoolSize),
		zap.Int("queue_capacity", cap(s.events)))
	return nil
}

// Stop closes the queue and waits for in-flight events to drain
func (s *TradeIndexingService) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	close(s.events)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		s.logger.Info("Trade indexing service stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		return fmt.Errorf("trade indexing service shutdown timed out: %w", ctx.Err())
	}
}

// Enqueue hands a trade event to the worker pool without blocking the caller
func (s *TradeIndexingService) Enqueue(event *entity.TradeExecutedEvent) error {
	select {
	case s.events <- event:
		return nil
	default:
		s.metrics.TradesIndexed.WithLabelValues("dropped").Inc()
		return fmt.Errorf("trade event queue full, dropping trade %s", event.TradeID)
	}
}

func (s *TradeIndexingService) worker(ctx context.Context, id int) {
	defer s.wg.Done()
	for event := range s.events {
		if err := s.IndexTrade(ctx, event); err != nil {
			s.metrics.TradesIndexed.WithLabelValues("error").Inc()
			s.logger.Error("Failed to index trade",
				zap.Int("worker", id),
				zap.String("trade_id", event.TradeID),
				zap.Error(err))
			continue
		}
		s.metrics.TradesIndexed.WithLabelValues("success").Inc()
	}
}

// IndexTrade writes one executed trade: two directed edges (when value flowed)
// and an ownership transfer per asset
func (s *TradeIndexingService) IndexTrade(ctx context.Context, event *entity.TradeExecutedEvent) error {
	if event.TradeID == "" || event.SenderID == "" || event.ReceiverID == "" {
		return fmt.Errorf("trade event missing identifiers")
	}
	at := event.ExecutedAt
	if at.IsZero() {
		at = time.Now()
	}

	edges, err := s.buildEdges(ctx, event, at)
	if err != nil {
		return err
	}
	if err := s.writer.BatchRecordTradeEdges(ctx, edges); err != nil {
		return fmt.Errorf("recording trade edges for %s: %w", event.TradeID, err)
	}

	for _, item := range event.SentItems {
		if err := s.recordTransfer(ctx, item.PokemonID, event.ReceiverID, at); err != nil {
			return err
		}
	}
	for _, item := range event.ReceivedItems {
		if err := s.recordTransfer(ctx, item.PokemonID, event.SenderID, at); err != nil {
			return err
		}
	}

	s.logger.Debug("Trade indexed",
		zap.String("trade_id", event.TradeID),
		zap.Int("edges", len(edges)))
	return nil
}

// IndexMarketListing writes one marketplace listing or sale record
func (s *TradeIndexingService) IndexMarketListing(ctx context.Context, event *entity.MarketListingEvent) error {
	if event.ListingID == "" || event.Species == "" || event.SellerID == "" {
		return fmt.Errorf("market event missing identifiers")
	}
	at := event.ListedAt
	if at.IsZero() {
		at = time.Now()
	}

	listing := &entity.MarketActivityData{
		ListingID: event.ListingID,
		Species:   event.Species,
		SellerID:  event.SellerID,
		BuyerID:   event.BuyerID,
		Price:     event.Price,
		Sold:      event.Sold,
		ListedAt:  at,
	}
	if err := s.writer.RecordMarketListing(ctx, listing); err != nil {
		s.metrics.TradesIndexed.WithLabelValues("error").Inc()
		return fmt.Errorf("recording market listing %s: %w", event.ListingID, err)
	}
	s.metrics.TradesIndexed.WithLabelValues("success").Inc()
	return nil
}

// buildEdges values each direction of flow and emits an edge where value moved.
// Single-asset legs carry the asset id for provenance queries.
func (s *TradeIndexingService) buildEdges(ctx context.Context, event *entity.TradeExecutedEvent, at time.Time) ([]*entity.TradeEdge, error) {
	var edges []*entity.TradeEdge

	senderValue, err := s.sideValue(ctx, event.SentItems, event.SenderCredits)
	if err != nil {
		return nil, fmt.Errorf("valuing sent side of %s: %w", event.TradeID, err)
	}
	receiverValue, err := s.sideValue(ctx, event.ReceivedItems, event.ReceiverCredits)
	if err != nil {
		return nil, fmt.Errorf("valuing received side of %s: %w", event.TradeID, err)
	}

	if senderValue.IsPositive() || len(event.SentItems) > 0 {
		edges = append(edges, &entity.TradeEdge{
			TradeID:   event.TradeID,
			From:      event.SenderID,
			To:        event.ReceiverID,
			Value:     senderValue,
			PokemonID: soleAssetID(event.SentItems),
			Timestamp: at,
		})
	}
	if receiverValue.IsPositive() || len(event.ReceivedItems) > 0 {
		edges = append(edges, &entity.TradeEdge{
			TradeID:   event.TradeID,
			From:      event.ReceiverID,
			To:        event.SenderID,
			Value:     receiverValue,
			PokemonID: soleAssetID(event.ReceivedItems),
			Timestamp: at,
		})
	}
	return edges, nil
}

func (s *TradeIndexingService) sideValue(ctx context.Context, items []entity.TradeItem, credits decimal.Decimal) (decimal.Decimal, error) {
	total := credits
	for _, item := range items {
		v, err := s.valuation.EstimateItemValue(ctx, item)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(v)
	}
	return total, nil
}

func (s *TradeIndexingService) recordTransfer(ctx context.Context, pokemonID, newOwner string, at time.Time) error {
	if pokemonID == "" {
		return nil
	}
	record := &entity.OwnershipRecord{
		UserID:     newOwner,
		ObtainedAt: at,
		Method:     entity.ObtainMethodTrade,
	}
	if err := s.writer.RecordOwnershipTransfer(ctx, pokemonID, record); err != nil {
		return fmt.Errorf("recording ownership transfer of %s: %w", pokemonID, err)
	}
	return nil
}

// soleAssetID returns the asset id only when the leg moved exactly one asset
func soleAssetID(items []entity.TradeItem) string {
	if len(items) == 1 {
		return items[0].PokemonID
	}
	return ""
}

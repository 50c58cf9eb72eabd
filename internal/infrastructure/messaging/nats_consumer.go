package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pokemon-trade-fraud-engine/internal/domain/entity"
	"pokemon-trade-fraud-engine/internal/infrastructure/config"
	"pokemon-trade-fraud-engine/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSConsumer subscribes to executed-trade and marketplace events and fans
// them out on typed channels for the indexing pipeline
type NATSConsumer struct {
	conn      *nats.Conn
	js        nats.JetStreamContext
	subs      []*nats.Subscription
	config    *config.NATSConfig
	logger    *logger.Logger
	tradeChan chan *entity.TradeExecutedEvent
	listChan  chan *entity.MarketListingEvent
	isRunning bool
}

// NewNATSConsumer creates a new NATS consumer
func NewNATSConsumer(cfg *config.NATSConfig, logger *logger.Logger) *NATSConsumer {
	return &NATSConsumer{
		config:    cfg,
		logger:    logger.WithComponent("nats-consumer"),
		tradeChan: make(chan *entity.TradeExecutedEvent, cfg.MaxPendingMessages),
		listChan:  make(chan *entity.MarketListingEvent, cfg.MaxPendingMessages),
	}
}

// Connect connects to NATS server and sets up the subscriptions
func (n *NATSConsumer) Connect(ctx context.Context) error {
	if !n.config.Enabled {
		n.logger.Info("NATS is disabled, skipping connection")
		return nil
	}

	n.logger.Info("Connecting to NATS server", zap.String("url", n.config.URL))

	opts := []nats.Option{
		nats.Name("trade-fraud-engine"),
		nats.Timeout(n.config.ConnectTimeout),
		nats.ReconnectWait(n.config.ReconnectDelay),
		nats.MaxReconnects(n.config.ReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			n.logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		n.logger.Error("Failed to connect to NATS", zap.Error(err))
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n.conn = conn

	// Try JetStream first, if not available fall back to core NATS
	js, err := conn.JetStream()
	if err != nil {
		n.logger.Warn("JetStream not available, using core NATS", zap.Error(err))
		return n.setupCoreNATSSubscriptions()
	}

	n.js = js
	return n.setupJetStreamSubscriptions()
}

// setupJetStreamSubscriptions sets up durable JetStream subscriptions
func (n *NATSConsumer) setupJetStreamSubscriptions() error {
	tradeSubject := fmt.Sprintf("%s.executed", n.config.SubjectPrefix)
	marketSubject := fmt.Sprintf("%s.market", n.config.SubjectPrefix)

	n.logger.Info("Setting up JetStream subscriptions",
		zap.String("trade_subject", tradeSubject),
		zap.String("market_subject", marketSubject),
		zap.String("stream", n.config.StreamName))

	tradeSub, err := n.js.PullSubscribe(tradeSubject, n.config.ConsumerGroup,
		nats.BindStream(n.config.StreamName))
	if err != nil {
		n.logger.Warn("Failed to create JetStream trade consumer, falling back to core NATS", zap.Error(err))
		return n.setupCoreNATSSubscriptions()
	}
	marketSub, err := n.js.PullSubscribe(marketSubject, n.config.ConsumerGroup+"-market",
		nats.BindStream(n.config.StreamName))
	if err != nil {
		tradeSub.Unsubscribe()
		n.logger.Warn("Failed to create JetStream market consumer, falling back to core NATS", zap.Error(err))
		return n.setupCoreNATSSubscriptions()
	}

	n.subs = []*nats.Subscription{tradeSub, marketSub}
	n.isRunning = true

	go n.processJetStreamMessages(tradeSub)
	go n.processJetStreamMessages(marketSub)

	n.logger.Info("Successfully connected to NATS JetStream")
	return nil
}

// processJetStreamMessages drains one pull subscription in batches
func (n *NATSConsumer) processJetStreamMessages(sub *nats.Subscription) {
	for n.isRunning {
		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil {
			if err == nats.ErrTimeout {
				continue
			}
			n.logger.Error("Failed to fetch messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			n.handleMessage(msg)
		}
	}
}

// setupCoreNATSSubscriptions sets up core NATS queue subscriptions
func (n *NATSConsumer) setupCoreNATSSubscriptions() error {
	queueGroup := n.config.ConsumerGroup
	subjects := []string{
		fmt.Sprintf("%s.executed", n.config.SubjectPrefix),
		fmt.Sprintf("%s.market", n.config.SubjectPrefix),
	}

	for _, subject := range subjects {
		sub, err := n.conn.QueueSubscribe(subject, queueGroup, func(msg *nats.Msg) {
			n.handleMessage(msg)
		})
		if err != nil {
			n.logger.Error("Failed to subscribe to subject", zap.String("subject", subject), zap.Error(err))
			return fmt.Errorf("failed to subscribe: %w", err)
		}
		n.subs = append(n.subs, sub)
	}

	n.isRunning = true
	n.logger.Info("Successfully connected to core NATS",
		zap.Strings("subjects", subjects),
		zap.String("queue_group", queueGroup))
	return nil
}

// handleMessage decodes one event by subject suffix and queues it
func (n *NATSConsumer) handleMessage(msg *nats.Msg) {
	switch {
	case strings.HasSuffix(msg.Subject, ".market"):
		n.handleMarketMessage(msg)
	default:
		n.handleTradeMessage(msg)
	}
}

func (n *NATSConsumer) handleTradeMessage(msg *nats.Msg) {
	var event entity.TradeExecutedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		n.logger.Error("Failed to unmarshal trade event", zap.Error(err))
		msg.Term()
		return
	}

	select {
	case n.tradeChan <- &event:
		msg.Ack()
	default:
		n.logger.Warn("Trade event channel is full, requeueing message",
			zap.String("trade_id", event.TradeID))
		msg.Nak()
	}
}

func (n *NATSConsumer) handleMarketMessage(msg *nats.Msg) {
	var event entity.MarketListingEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		n.logger.Error("Failed to unmarshal market event", zap.Error(err))
		msg.Term()
		return
	}

	select {
	case n.listChan <- &event:
		msg.Ack()
	default:
		n.logger.Warn("Market event channel is full, requeueing message",
			zap.String("listing_id", event.ListingID))
		msg.Nak()
	}
}

// Disconnect disconnects from NATS server
func (n *NATSConsumer) Disconnect() error {
	n.isRunning = false

	for _, sub := range n.subs {
		sub.Unsubscribe()
	}
	n.subs = nil
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
	close(n.tradeChan)
	close(n.listChan)
	n.logger.Info("Disconnected from NATS")
	return nil
}

// IsConnected checks if connected to NATS
func (n *NATSConsumer) IsConnected() bool {
	return n.isRunning && n.conn != nil && n.conn.IsConnected()
}

// TradeEvents returns the executed-trade event channel
func (n *NATSConsumer) TradeEvents() <-chan *entity.TradeExecutedEvent {
	return n.tradeChan
}

// MarketEvents returns the marketplace event channel
func (n *NATSConsumer) MarketEvents() <-chan *entity.MarketListingEvent {
	return n.listChan
}

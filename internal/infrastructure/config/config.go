package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	NATS         NATSConfig         `mapstructure:"nats"`
	Neo4J        Neo4JConfig        `mapstructure:"neo4j"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Health       HealthConfig       `mapstructure:"health"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Risk         RiskConfig         `mapstructure:"risk"`
	Chain        ChainConfig        `mapstructure:"chain"`
	Burst        BurstConfig        `mapstructure:"burst"`
	Network      NetworkConfig      `mapstructure:"network"`
	Market       MarketConfig       `mapstructure:"market"`
	Laundering   LaunderingConfig   `mapstructure:"laundering"`
	ReturnTrade  ReturnTradeConfig  `mapstructure:"return_trade"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Valuation    ValuationConfig    `mapstructure:"valuation"`
}

// AppConfig represents application-specific configuration
type AppConfig struct {
	Env            string `mapstructure:"env"`
	LogLevel       string `mapstructure:"log_level"`
	HTTPPort       int    `mapstructure:"http_port"`
	WorkerPoolSize int    `mapstructure:"worker_pool_size"`
	BatchSize      int    `mapstructure:"batch_size"`
}

// NATSConfig represents NATS configuration for the trade-event consumer
type NATSConfig struct {
	URL                string        `mapstructure:"url"`
	StreamName         string        `mapstructure:"stream_name"`
	SubjectPrefix      string        `mapstructure:"subject_prefix"`
	ConsumerGroup      string        `mapstructure:"consumer_group"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout"`
	ReconnectAttempts  int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay     time.Duration `mapstructure:"reconnect_delay"`
	MaxPendingMessages int           `mapstructure:"max_pending_messages"`
	Enabled            bool          `mapstructure:"enabled"`
}

// Neo4JConfig represents Neo4J configuration for the trade-graph ledger
type Neo4JConfig struct {
	URI                          string        `mapstructure:"uri"`
	Username                     string        `mapstructure:"username"`
	Password                     string        `mapstructure:"password"`
	Database                     string        `mapstructure:"database"`
	ConnectTimeout               time.Duration `mapstructure:"connect_timeout"`
	MaxConnectionPoolSize        int           `mapstructure:"max_connection_pool_size"`
	ConnectionAcquisitionTimeout time.Duration `mapstructure:"connection_acquisition_timeout"`
}

// RedisConfig represents Redis configuration for query memoization
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Enabled  bool          `mapstructure:"enabled"`
}

// HealthConfig represents health check configuration
type HealthConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// RiskConfig represents the basic risk analyzer tunables.
// Weights are policy, not business logic; they must sum to 1.
type RiskConfig struct {
	ValueImbalanceWeight float64 `mapstructure:"value_imbalance_weight"`
	RelationshipWeight   float64 `mapstructure:"relationship_weight"`
	BehavioralWeight     float64 `mapstructure:"behavioral_weight"`
	AccountAgeWeight     float64 `mapstructure:"account_age_weight"`

	AccountAgeSaturation time.Duration `mapstructure:"account_age_saturation"`
	NewbieAgeThreshold   time.Duration `mapstructure:"newbie_age_threshold"`

	RmtImbalanceThreshold    float64 `mapstructure:"rmt_imbalance_threshold"`
	NewbieImbalanceThreshold float64 `mapstructure:"newbie_imbalance_threshold"`
	HighValueThreshold       float64 `mapstructure:"high_value_threshold"`
	BehaviorFlagThreshold    float64 `mapstructure:"behavior_flag_threshold"`
	BotTradeVolume           int64   `mapstructure:"bot_trade_volume"`
}

// ChainConfig represents the chain trading detector tunables
type ChainConfig struct {
	LookbackWindow    time.Duration `mapstructure:"lookback_window"`
	MaxDepth          int           `mapstructure:"max_depth"`
	MaxBranching      int           `mapstructure:"max_branching"`
	MaxVisitedNodes   int           `mapstructure:"max_visited_nodes"`
	HopTimeDelta      time.Duration `mapstructure:"hop_time_delta"`
	ValueRetention    float64       `mapstructure:"value_retention"`
	MinChainLength    int           `mapstructure:"min_chain_length"`
	MinChainValue     float64       `mapstructure:"min_chain_value"`
}

// BurstConfig represents the burst trading detector tunables
type BurstConfig struct {
	LookbackWindow    time.Duration `mapstructure:"lookback_window"`
	WindowSize        time.Duration `mapstructure:"window_size"`
	CountThreshold    int           `mapstructure:"count_threshold"`
	HumanReactionTime time.Duration `mapstructure:"human_reaction_time"`
}

// NetworkConfig represents the network analyzer tunables
type NetworkConfig struct {
	LookbackWindow     time.Duration `mapstructure:"lookback_window"`
	MaxRadius          int           `mapstructure:"max_radius"`
	MaxVisitedNodes    int           `mapstructure:"max_visited_nodes"`
	MinConnectionTrades int64        `mapstructure:"min_connection_trades"`
	TightKnitDensity   float64       `mapstructure:"tight_knit_density"`
	LargeScaleSize     int           `mapstructure:"large_scale_size"`
	NormalGroupSize    int           `mapstructure:"normal_group_size"`
}

// MarketConfig represents the market manipulation detector tunables
type MarketConfig struct {
	LookbackWindow         time.Duration `mapstructure:"lookback_window"`
	PriceFixingMinListings int           `mapstructure:"price_fixing_min_listings"`
	PriceFixingMaxSellers  int           `mapstructure:"price_fixing_max_sellers"`
	PriceFixingTolerance   float64       `mapstructure:"price_fixing_tolerance"`
	PumpEscalationFactor   float64       `mapstructure:"pump_escalation_factor"`
	WashMinRoundTrips      int           `mapstructure:"wash_min_round_trips"`
	WashMaxPartners        int           `mapstructure:"wash_max_partners"`
}

// LaunderingConfig represents the per-asset laundering detector tunables
type LaunderingConfig struct {
	RapidTransferThreshold time.Duration `mapstructure:"rapid_transfer_threshold"`
	HighValueThreshold     float64       `mapstructure:"high_value_threshold"`
	MinTransfersForRisk    int           `mapstructure:"min_transfers_for_risk"`
}

// ReturnTradeConfig represents the return-trade suppressor tunables
type ReturnTradeConfig struct {
	MatchWindow       time.Duration `mapstructure:"match_window"`
	MinConfidence     float64       `mapstructure:"min_confidence"`
	DiscountFactor    float64       `mapstructure:"discount_factor"`
}

// OrchestratorConfig represents the fraud orchestrator tunables
type OrchestratorConfig struct {
	SafeThreshold        float64       `mapstructure:"safe_threshold"`
	DetectorTimeout      time.Duration `mapstructure:"detector_timeout"`
	OverallTimeout       time.Duration `mapstructure:"overall_timeout"`
	CorroborationBonus   float64       `mapstructure:"corroboration_bonus"`
	CorroborationMinimum float64       `mapstructure:"corroboration_minimum"`
	VerdictCacheTTL      time.Duration `mapstructure:"verdict_cache_ttl"`
}

// ValuationConfig represents the static valuation service tunables
type ValuationConfig struct {
	DefaultBaseValue float64            `mapstructure:"default_base_value"`
	SpeciesBaseValue map[string]float64 `mapstructure:"species_base_value"`
	LevelMultiplier  float64            `mapstructure:"level_multiplier"`
	ShinyMultiplier  float64            `mapstructure:"shiny_multiplier"`
}

// Load loads configuration from environment variables and files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/pokemon-trade-fraud-engine")

	// Environment variables
	viper.AutomaticEnv()
	viper.SetEnvPrefix("")

	// Map environment variables to nested config keys
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Default values
	setDefaults()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.http_port", 8080)
	viper.SetDefault("app.worker_pool_size", 10)
	viper.SetDefault("app.batch_size", 100)

	// NATS defaults
	viper.SetDefault("nats.url", "nats://pokemon-nats:4222")
	viper.SetDefault("nats.stream_name", "TRADES")
	viper.SetDefault("nats.subject_prefix", "trades")
	viper.SetDefault("nats.consumer_group", "trade-fraud-engine")
	viper.SetDefault("nats.connect_timeout", "10s")
	viper.SetDefault("nats.reconnect_attempts", 5)
	viper.SetDefault("nats.reconnect_delay", "2s")
	viper.SetDefault("nats.max_pending_messages", 10000)
	viper.SetDefault("nats.enabled", true)

	// Neo4J defaults
	viper.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	viper.SetDefault("neo4j.username", "neo4j")
	viper.SetDefault("neo4j.password", "password")
	viper.SetDefault("neo4j.database", "neo4j")
	viper.SetDefault("neo4j.connect_timeout", "10s")
	viper.SetDefault("neo4j.max_connection_pool_size", 50)
	viper.SetDefault("neo4j.connection_acquisition_timeout", "60s")

	// Redis defaults
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttl", "30s")
	viper.SetDefault("redis.enabled", false)

	// Health defaults
	viper.SetDefault("health.interval", "30s")
	viper.SetDefault("health.timeout", "5s")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)

	// Basic risk analyzer defaults
	viper.SetDefault("risk.value_imbalance_weight", 0.4)
	viper.SetDefault("risk.relationship_weight", 0.3)
	viper.SetDefault("risk.behavioral_weight", 0.2)
	viper.SetDefault("risk.account_age_weight", 0.1)
	viper.SetDefault("risk.account_age_saturation", "720h") // 30 days
	viper.SetDefault("risk.newbie_age_threshold", "48h")
	viper.SetDefault("risk.rmt_imbalance_threshold", 0.9)
	viper.SetDefault("risk.newbie_imbalance_threshold", 0.8)
	viper.SetDefault("risk.high_value_threshold", 10000)
	viper.SetDefault("risk.behavior_flag_threshold", 0.8)
	viper.SetDefault("risk.bot_trade_volume", 500)

	// Chain detector defaults
	viper.SetDefault("chain.lookback_window", "168h") // 7 days
	viper.SetDefault("chain.max_depth", 5)
	viper.SetDefault("chain.max_branching", 8)
	viper.SetDefault("chain.max_visited_nodes", 2000)
	viper.SetDefault("chain.hop_time_delta", "1h")
	viper.SetDefault("chain.value_retention", 0.8)
	viper.SetDefault("chain.min_chain_length", 2)
	viper.SetDefault("chain.min_chain_value", 1000)

	// Burst detector defaults
	viper.SetDefault("burst.lookback_window", "24h")
	viper.SetDefault("burst.window_size", "10m")
	viper.SetDefault("burst.count_threshold", 10)
	viper.SetDefault("burst.human_reaction_time", "3s")

	// Network analyzer defaults
	viper.SetDefault("network.lookback_window", "720h") // 30 days
	viper.SetDefault("network.max_radius", 3)
	viper.SetDefault("network.max_visited_nodes", 500)
	viper.SetDefault("network.min_connection_trades", 3)
	viper.SetDefault("network.tight_knit_density", 0.6)
	viper.SetDefault("network.large_scale_size", 20)
	viper.SetDefault("network.normal_group_size", 8)

	// Market detector defaults
	viper.SetDefault("market.lookback_window", "168h") // 7 days
	viper.SetDefault("market.price_fixing_min_listings", 5)
	viper.SetDefault("market.price_fixing_max_sellers", 3)
	viper.SetDefault("market.price_fixing_tolerance", 0.02)
	viper.SetDefault("market.pump_escalation_factor", 2.0)
	viper.SetDefault("market.wash_min_round_trips", 3)
	viper.SetDefault("market.wash_max_partners", 3)

	// Laundering detector defaults
	viper.SetDefault("laundering.rapid_transfer_threshold", "1h")
	viper.SetDefault("laundering.high_value_threshold", 50000)
	viper.SetDefault("laundering.min_transfers_for_risk", 3)

	// Return trade defaults
	viper.SetDefault("return_trade.match_window", "168h") // 7 days
	viper.SetDefault("return_trade.min_confidence", 0.8)
	viper.SetDefault("return_trade.discount_factor", 0.5)

	// Orchestrator defaults
	viper.SetDefault("orchestrator.safe_threshold", 0.2)
	viper.SetDefault("orchestrator.detector_timeout", "2s")
	viper.SetDefault("orchestrator.overall_timeout", "5s")
	viper.SetDefault("orchestrator.corroboration_bonus", 0.1)
	viper.SetDefault("orchestrator.corroboration_minimum", 0.4)
	viper.SetDefault("orchestrator.verdict_cache_ttl", "60s")

	// Valuation defaults
	viper.SetDefault("valuation.default_base_value", 100)
	viper.SetDefault("valuation.level_multiplier", 0.02)
	viper.SetDefault("valuation.shiny_multiplier", 10.0)

	// Bind env for NATS URL
	viper.BindEnv("nats.url", "NATS_URL")
}

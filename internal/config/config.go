// Package config provides configuration management for the oddsedge engine.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	Provider    ProviderConfig    `mapstructure:"provider" validate:"required"`
	Analysis    AnalysisConfig    `mapstructure:"analysis" validate:"required"`
	Persistence PersistenceConfig `mapstructure:"persistence" validate:"required"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Publisher   PublisherConfig   `mapstructure:"publisher"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Secrets     SecretsConfig     `mapstructure:"secrets"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	LogFormat   string `mapstructure:"log_format" validate:"omitempty,oneof=text json"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MinConnections int    `mapstructure:"min_connections" validate:"gte=0"`
}

// ProviderConfig configures the upstream odds provider
type ProviderConfig struct {
	BaseURL           string              `mapstructure:"base_url" validate:"required,url"`
	APIKey            string              `mapstructure:"api_key"`
	Regions           string              `mapstructure:"regions" validate:"required"`
	OddsFormat        string              `mapstructure:"odds_format" validate:"required,oneof=american"`
	GameMarkets       []string            `mapstructure:"game_markets" validate:"required,min=1"`
	Sports            []string            `mapstructure:"sports"`
	PropMarkets       map[string][]string `mapstructure:"prop_markets"`
	ScoresDaysFrom    int                 `mapstructure:"scores_days_from" validate:"min=1,max=3"`
	Workers           int                 `mapstructure:"workers" validate:"required,gt=0"`
	TimeoutSeconds    int                 `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries        int                 `mapstructure:"max_retries" validate:"gte=0"`
	RequestsPerSecond float64             `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int                 `mapstructure:"burst" validate:"gt=0"`
}

// AnalysisConfig holds every tunable of the analysis engine. It is loaded
// once per process and shared by the estimator, EV analyzer and arbitrage
// detector.
type AnalysisConfig struct {
	Stake               float64         `mapstructure:"stake" validate:"gt=0"`
	MaxOdds             int             `mapstructure:"max_odds" validate:"gte=100"`
	MinBookies          int             `mapstructure:"min_bookies" validate:"min=1"`
	MinBookiesOverrides map[string]int  `mapstructure:"min_bookies_overrides"`
	EVTarget            float64         `mapstructure:"ev_target" validate:"gte=0"`
	ZScoreCeiling       float64         `mapstructure:"z_score_ceiling" validate:"gt=0"`
	ZScoreMinSamples    int             `mapstructure:"z_score_min_samples" validate:"min=2"`
	MultiOutcomeMarkets []string        `mapstructure:"multi_outcome_markets"`
	Overround           OverroundConfig `mapstructure:"overround"`
	Arbitrage           ArbitrageConfig `mapstructure:"arbitrage"`
}

// OverroundConfig drives the assumed-overround fallback
type OverroundConfig struct {
	Buckets             []OverroundBucket `mapstructure:"buckets" validate:"required,min=1,dive"`
	LongshotThreshold   int               `mapstructure:"longshot_threshold" validate:"american_odds"`
	LongshotInflation   float64           `mapstructure:"longshot_inflation" validate:"gte=0"`
	FavoriteThreshold   int               `mapstructure:"favorite_threshold" validate:"american_odds"`
	FavoriteDeflation   float64           `mapstructure:"favorite_deflation" validate:"gte=0,lt=1"`
	MinSamples          int               `mapstructure:"min_samples" validate:"min=1"`
	MultiOutcomeDefault float64           `mapstructure:"multi_outcome_default" validate:"gte=1"`
}

// OverroundBucket covers odds up to and including UpTo. A nil UpTo marks the
// catch-all bucket, which must come last.
type OverroundBucket struct {
	UpTo      *int    `mapstructure:"up_to"`
	Overround float64 `mapstructure:"overround" validate:"gte=1"`
}

// ArbitrageConfig configures the arbitrage detector
type ArbitrageConfig struct {
	TotalStake          float64 `mapstructure:"total_stake" validate:"gt=0"`
	MinProfitPercentage float64 `mapstructure:"min_profit_percentage" validate:"gt=0"`
}

// PersistenceConfig configures batch writes and retention
type PersistenceConfig struct {
	BatchSize      int           `mapstructure:"batch_size" validate:"gt=0"`
	Concurrency    int           `mapstructure:"concurrency" validate:"min=1"`
	MaxRetries     int           `mapstructure:"max_retries" validate:"min=1"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" validate:"gt=0"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay" validate:"gt=0"`
	Retention      time.Duration `mapstructure:"retention" validate:"gt=0"`
	StaleGameAfter time.Duration `mapstructure:"stale_game_after" validate:"gt=0"`
	GameCacheTTL   time.Duration `mapstructure:"game_cache_ttl" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path           string `mapstructure:"path"`
	PushGatewayURL string `mapstructure:"push_gateway_url" validate:"omitempty,url"`
	JobName        string `mapstructure:"job_name"`
}

// PublisherConfig configures the Redis stream fan-out of opportunities
type PublisherConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	RedisAddr    string `mapstructure:"redis_addr"`
	RedisDB      int    `mapstructure:"redis_db" validate:"gte=0"`
	Password     string `mapstructure:"password"`
	StreamPrefix string `mapstructure:"stream_prefix"`
	MaxLen       int64  `mapstructure:"max_len" validate:"gte=0"`
}

// SchedulerConfig configures the long-running schedule mode
type SchedulerConfig struct {
	Cron       string        `mapstructure:"cron" validate:"omitempty,cron"`
	RunOnStart bool          `mapstructure:"run_on_start"`
	RunTimeout time.Duration `mapstructure:"run_timeout" validate:"gte=0"`
}

// TracingConfig configures AWS X-Ray tracing
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	DaemonAddr   string  `mapstructure:"daemon_addr"`
	SamplingRate float64 `mapstructure:"sampling_rate" validate:"gte=0,lte=1"`
}

// SecretsConfig points at the AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return c.Database.DSN()
}

// DSN returns a PostgreSQL connection string for the database
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
}

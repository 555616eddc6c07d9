// Package config provides configuration management for the oddsedge engine.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (ODDSEDGE_PROVIDER_API_KEY)
const EnvPrefix = "ODDSEDGE"

const defaultConfigPath = "config/config.yaml"

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return parse(data)
}

// LoadWithDefaults behaves like Load but tolerates a missing file, in which
// case only defaults and environment variables are used
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return parse(data)
}

func parse(data []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if len(data) > 0 {
		// Expand environment variables in the configuration (${VAR} syntax)
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	applyCollectionDefaults(v, cfg)
	return cfg, nil
}

// setDefaults registers scalar defaults so that environment overrides work
// even for keys the file omits
func setDefaults(v *viper.Viper) {
	a := DefaultAnalysisConfig()

	v.SetDefault("app.name", "oddsedge")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "text")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "oddsedge")
	v.SetDefault("database.user", "oddsedge")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)

	v.SetDefault("provider.base_url", "https://api.the-odds-api.com")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.regions", "us")
	v.SetDefault("provider.odds_format", "american")
	v.SetDefault("provider.game_markets", []string{"h2h", "spreads", "totals"})
	v.SetDefault("provider.scores_days_from", 3)
	v.SetDefault("provider.workers", 4)
	v.SetDefault("provider.timeout_seconds", 30)
	v.SetDefault("provider.max_retries", 3)
	v.SetDefault("provider.requests_per_second", 1.0)
	v.SetDefault("provider.burst", 2)

	v.SetDefault("analysis.stake", a.Stake)
	v.SetDefault("analysis.max_odds", a.MaxOdds)
	v.SetDefault("analysis.min_bookies", a.MinBookies)
	v.SetDefault("analysis.ev_target", a.EVTarget)
	v.SetDefault("analysis.z_score_ceiling", a.ZScoreCeiling)
	v.SetDefault("analysis.z_score_min_samples", a.ZScoreMinSamples)
	v.SetDefault("analysis.overround.longshot_threshold", a.Overround.LongshotThreshold)
	v.SetDefault("analysis.overround.longshot_inflation", a.Overround.LongshotInflation)
	v.SetDefault("analysis.overround.favorite_threshold", a.Overround.FavoriteThreshold)
	v.SetDefault("analysis.overround.favorite_deflation", a.Overround.FavoriteDeflation)
	v.SetDefault("analysis.overround.min_samples", a.Overround.MinSamples)
	v.SetDefault("analysis.overround.multi_outcome_default", a.Overround.MultiOutcomeDefault)
	v.SetDefault("analysis.arbitrage.total_stake", a.Arbitrage.TotalStake)
	v.SetDefault("analysis.arbitrage.min_profit_percentage", a.Arbitrage.MinProfitPercentage)

	v.SetDefault("persistence.batch_size", 1000)
	v.SetDefault("persistence.concurrency", 1)
	v.SetDefault("persistence.max_retries", 5)
	v.SetDefault("persistence.retry_base_delay", "100ms")
	v.SetDefault("persistence.retry_max_delay", "5s")
	v.SetDefault("persistence.retention", "72h")
	v.SetDefault("persistence.stale_game_after", "48h")
	v.SetDefault("persistence.game_cache_ttl", "10m")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.job_name", "oddsedge")

	v.SetDefault("publisher.enabled", false)
	v.SetDefault("publisher.stream_prefix", "opportunities")
	v.SetDefault("publisher.max_len", 10000)

	v.SetDefault("scheduler.cron", "*/15 * * * *")
	v.SetDefault("scheduler.run_timeout", "10m")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.daemon_addr", "127.0.0.1:2000")
	v.SetDefault("tracing.sampling_rate", 0.05)
}

// applyCollectionDefaults fills slices and maps that viper cannot merge
// key by key. A collection set in the file replaces the default whole.
func applyCollectionDefaults(v *viper.Viper, cfg *Config) {
	if !v.IsSet("provider.prop_markets") {
		cfg.Provider.PropMarkets = DefaultPropMarkets()
	}
	if !v.IsSet("analysis.min_bookies_overrides") {
		cfg.Analysis.MinBookiesOverrides = DefaultMinBookiesOverrides()
	}
	if !v.IsSet("analysis.multi_outcome_markets") {
		cfg.Analysis.MultiOutcomeMarkets = DefaultMultiOutcomeMarkets()
	}
	if len(cfg.Analysis.Overround.Buckets) == 0 {
		cfg.Analysis.Overround.Buckets = DefaultOverroundBuckets()
	}
}

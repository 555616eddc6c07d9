// Package main provides the oddsedge command line.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/oddsedge/internal/config"
	"github.com/yourusername/oddsedge/internal/database"
	"github.com/yourusername/oddsedge/internal/datasource"
	"github.com/yourusername/oddsedge/internal/logger"
	"github.com/yourusername/oddsedge/internal/metrics"
	"github.com/yourusername/oddsedge/internal/publisher"
	"github.com/yourusername/oddsedge/internal/repository"
	"github.com/yourusername/oddsedge/internal/service"
	"github.com/yourusername/oddsedge/internal/tracing"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	cfg        *config.Config
	appLog     *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "oddsedge",
	Short: "Odds ingestion and EV/arbitrage analysis engine",
	Long: `Fetches bookmaker odds, estimates fair probabilities, flags positive
expected value bets and arbitrage opportunities, and stores the results.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(runCmd, scheduleCmd, migrateCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// bootstrap loads .env, the configuration and the secrets overlay, then
// validates it and sets up logging and tracing
func bootstrap(ctx context.Context) error {
	// A missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.Secrets.Enabled {
		if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLog = logger.NewLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     Version,
	}).Info("oddsedge starting")

	if err := tracing.Initialize(cfg.Tracing, Version, appLog); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	return nil
}

// app holds the long-lived dependencies of a run
type app struct {
	db       *database.DB
	redis    *redis.Client
	pipeline *service.Pipeline
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			appLog.WithError(err).Warn("Failed to close redis client")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

// newApp wires the database, repositories, provider, publisher and pipeline
func newApp(ctx context.Context) (*app, error) {
	metrics.InitRegistry()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a := &app{db: db}

	repos, err := repository.NewRepositories(db, cfg.Persistence, logger.NewPersistenceLogger(appLog))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	provider, err := datasource.NewProvider(cfg.Provider, appLog)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize odds provider: %w", err)
	}

	var pub service.Publisher
	if cfg.Publisher.Enabled {
		a.redis = publisher.NewRedisClient(cfg.Publisher)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		pub = publisher.NewStreamPublisher(a.redis, cfg.Publisher)
	}

	ingestion := service.NewIngestionService(provider, cfg.Provider)
	a.pipeline = service.NewPipeline(cfg, ingestion, repos.Game, repos.Quote, repos.Opportunity, pub, appLog)
	return a, nil
}

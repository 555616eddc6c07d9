package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/oddsedge/internal/config"
)

// NewProvider creates the odds provider described by the configuration
func NewProvider(cfg config.ProviderConfig, logger *logrus.Logger) (*OddsAPIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider API key is required")
	}

	entry := logger.WithField("component", "provider")

	httpCfg := DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	httpCfg.MaxRetries = cfg.MaxRetries
	httpCfg.RateLimit = cfg.RequestsPerSecond
	httpCfg.Burst = cfg.Burst

	return NewOddsAPIClient(NewRateLimitedHTTPClient(httpCfg, entry), OddsAPIOptions{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Regions:     cfg.Regions,
		OddsFormat:  cfg.OddsFormat,
		GameMarkets: cfg.GameMarkets,
	}, entry), nil
}

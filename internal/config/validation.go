// Package config provides configuration management for the oddsedge engine.
package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Registration only fails for empty tags or nil functions
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("american_odds", validateAmericanOdds)
	_ = v.RegisterValidation("cron", validateCron)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateAmericanOdds accepts signed prices with magnitude of at least 100
func validateAmericanOdds(fl validator.FieldLevel) bool {
	odds := fl.Field().Int()
	return odds <= -100 || odds >= 100
}

func validateCron(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if err := validateBuckets(cfg.Analysis.Overround.Buckets); err != nil {
		return err
	}

	o := cfg.Analysis.Overround
	if o.FavoriteThreshold >= o.LongshotThreshold {
		return fmt.Errorf("favorite_threshold (%d) must be below longshot_threshold (%d)", o.FavoriteThreshold, o.LongshotThreshold)
	}

	for market, n := range cfg.Analysis.MinBookiesOverrides {
		if n < 1 {
			return fmt.Errorf("min_bookies_overrides[%s] must be at least 1, got %d", market, n)
		}
	}

	if cfg.Persistence.RetryBaseDelay > cfg.Persistence.RetryMaxDelay {
		return fmt.Errorf("retry_base_delay cannot exceed retry_max_delay")
	}

	if cfg.Database.MinConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("min_connections cannot exceed max_connections")
	}

	if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	if cfg.Publisher.Enabled && cfg.Publisher.RedisAddr == "" {
		return fmt.Errorf("publisher.redis_addr is required when the publisher is enabled")
	}

	if cfg.Secrets.Enabled {
		if cfg.Secrets.Region == "" || cfg.Secrets.SecretName == "" {
			return fmt.Errorf("secrets.region and secrets.secret_name are required when secrets are enabled")
		}
	} else if cfg.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required unless secrets are loaded from AWS")
	}

	return nil
}

// validateBuckets requires strictly ascending bounds closed by one catch-all
func validateBuckets(buckets []OverroundBucket) error {
	for i, b := range buckets {
		last := i == len(buckets)-1
		if b.UpTo == nil {
			if !last {
				return fmt.Errorf("overround bucket %d has no upper bound but is not the last bucket", i)
			}
			continue
		}
		if last {
			return fmt.Errorf("the last overround bucket must be a catch-all without up_to")
		}
		if i > 0 && *b.UpTo <= *buckets[i-1].UpTo {
			return fmt.Errorf("overround bucket bounds must be strictly ascending at index %d", i)
		}
	}
	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "american_odds":
			errMsg += fmt.Sprintf("- Field '%s' must be American odds (<= -100 or >= 100), got '%v'\n", field, value)
		case "cron":
			errMsg += fmt.Sprintf("- Field '%s' must be a standard cron expression, got '%v'\n", field, value)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// Package config provides configuration management for the Pitch Edge engine.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
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
	}
	return false
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// validateCrossField checks relations a single struct tag cannot express
func validateCrossField(cfg *Config) error {
	if cfg.Freshness.FreshDays >= cfg.Freshness.AgingDays ||
		cfg.Freshness.AgingDays >= cfg.Freshness.StaleDays {
		return fmt.Errorf("freshness thresholds must be strictly increasing: fresh=%d aging=%d stale=%d",
			cfg.Freshness.FreshDays, cfg.Freshness.AgingDays, cfg.Freshness.StaleDays)
	}

	if cfg.Kelly.MinStakePct > cfg.Kelly.MaxStakePct {
		return fmt.Errorf("kelly.min_stake_pct (%.2f) exceeds kelly.max_stake_pct (%.2f)",
			cfg.Kelly.MinStakePct, cfg.Kelly.MaxStakePct)
	}

	if cfg.CLV.SweetSpotLowPct >= cfg.CLV.SweetSpotHighPct {
		return fmt.Errorf("clv.sweet_spot_low_pct (%.2f) must be below clv.sweet_spot_high_pct (%.2f)",
			cfg.CLV.SweetSpotLowPct, cfg.CLV.SweetSpotHighPct)
	}

	if cfg.MonteCarlo.MinSamples > cfg.MonteCarlo.Samples {
		return fmt.Errorf("monte_carlo.min_samples (%d) exceeds monte_carlo.samples (%d)",
			cfg.MonteCarlo.MinSamples, cfg.MonteCarlo.Samples)
	}

	if cfg.Notify.Enabled && cfg.Notify.WebhookURL == "" {
		return fmt.Errorf("notify.webhook_url is required when notifications are enabled")
	}

	return nil
}

func formatValidationErrors(errs validator.ValidationErrors) error {
	msg := "configuration validation failed:"
	for _, e := range errs {
		msg += fmt.Sprintf("\n  - %s: failed on '%s' rule", e.Namespace(), e.Tag())
	}
	return fmt.Errorf("%s", msg)
}

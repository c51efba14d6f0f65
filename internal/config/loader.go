// Package config provides configuration management for the Pitch Edge engine.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment
// variables. ${VAR} placeholders in the YAML file are expanded before
// parsing so secrets can stay out of the file.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix("PITCH_EDGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// A missing file falls through to defaults plus environment variables

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults applies the engine's documented default tuning. Every value
// here matches the calibration the pipeline was validated against.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pitch-edge")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.version", "dev")

	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("models.team_strategy_weight", 1.25)
	v.SetDefault("models.quantum_weight", 1.15)
	v.SetDefault("models.matchup_weight", 1.10)
	v.SetDefault("models.dixon_coles_weight", 1.00)
	v.SetDefault("models.scenarios_weight", 0.85)
	v.SetDefault("models.dna_features_weight", 1.05)

	v.SetDefault("consensus.min_positive_votes", 3)
	v.SetDefault("consensus.min_weighted_mass", 0.50)

	v.SetDefault("monte_carlo.samples", 5000)
	v.SetDefault("monte_carlo.min_samples", 1000)
	v.SetDefault("monte_carlo.noise_amplitude", 0.15)
	v.SetDefault("monte_carlo.rock_solid_threshold", 0.70)
	v.SetDefault("monte_carlo.robust_threshold", 0.55)
	v.SetDefault("monte_carlo.unreliable_threshold", 0.40)
	v.SetDefault("monte_carlo.workers", 4)

	v.SetDefault("clv.sweet_spot_low_pct", 5.0)
	v.SetDefault("clv.sweet_spot_high_pct", 10.0)
	v.SetDefault("clv.min_signal_pct", 2.0)

	v.SetDefault("kelly.fraction", 0.25)
	v.SetDefault("kelly.min_stake_pct", 0.5)
	v.SetDefault("kelly.max_stake_pct", 5.0)
	v.SetDefault("kelly.step_pct", 0.5)

	v.SetDefault("risk.max_exposure_pct", 30.0)

	v.SetDefault("freshness.fresh_days", 7)
	v.SetDefault("freshness.aging_days", 14)
	v.SetDefault("freshness.stale_days", 21)

	v.SetDefault("odds.sharp_bookmakers", []string{"pinnacle"})

	v.SetDefault("pipeline.match_timeout_seconds", 30)
	v.SetDefault("pipeline.version", "1")
	v.SetDefault("pipeline.dna_cache_ttl_seconds", 600)

	v.SetDefault("notify.timeout_seconds", 10)
	v.SetDefault("notify.retry_max", 3)
	v.SetDefault("notify.rate_per_second", 2.0)

	v.SetDefault("scheduler.analyze_cron", "0 * * * *")
	v.SetDefault("scheduler.lookahead_hours", 48)
	v.SetDefault("scheduler.fixtures_file", "config/fixtures.json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("health.port", "8080")
}

// Package config provides configuration management for the Pitch Edge engine.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Models    ModelsConfig    `mapstructure:"models" validate:"required"`
	Consensus ConsensusConfig `mapstructure:"consensus" validate:"required"`
	MonteCarlo MonteCarloConfig `mapstructure:"monte_carlo" validate:"required"`
	CLV       CLVConfig       `mapstructure:"clv" validate:"required"`
	Kelly     KellyConfig     `mapstructure:"kelly" validate:"required"`
	Risk      RiskConfig      `mapstructure:"risk" validate:"required"`
	Freshness FreshnessConfig `mapstructure:"freshness" validate:"required"`
	Odds      OddsConfig      `mapstructure:"odds" validate:"required"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline" validate:"required"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	Version     string `mapstructure:"version"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password" validate:"required"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"required,gt=0"`
}

// ModelsConfig carries the ensemble model weights
type ModelsConfig struct {
	TeamStrategyWeight float64 `mapstructure:"team_strategy_weight" validate:"required,gt=0"`
	QuantumWeight      float64 `mapstructure:"quantum_weight" validate:"required,gt=0"`
	MatchupWeight      float64 `mapstructure:"matchup_weight" validate:"required,gt=0"`
	DixonColesWeight   float64 `mapstructure:"dixon_coles_weight" validate:"required,gt=0"`
	ScenariosWeight    float64 `mapstructure:"scenarios_weight" validate:"required,gt=0"`
	DNAFeaturesWeight  float64 `mapstructure:"dna_features_weight" validate:"required,gt=0"`
}

// Weights returns the model name -> weight map used by fusion and consensus
func (m ModelsConfig) Weights() map[string]float64 {
	return map[string]float64{
		"team_strategy": m.TeamStrategyWeight,
		"quantum":       m.QuantumWeight,
		"matchup":       m.MatchupWeight,
		"dixon_coles":   m.DixonColesWeight,
		"scenarios":     m.ScenariosWeight,
		"dna_features":  m.DNAFeaturesWeight,
	}
}

// ConsensusConfig carries vote-tally thresholds
type ConsensusConfig struct {
	MinPositiveVotes int     `mapstructure:"min_positive_votes" validate:"required,gt=0"`
	MinWeightedMass  float64 `mapstructure:"min_weighted_mass" validate:"required,gt=0,lte=1"`
}

// MonteCarloConfig carries robustness simulation settings
type MonteCarloConfig struct {
	Samples            int     `mapstructure:"samples" validate:"required,gt=0"`
	MinSamples         int     `mapstructure:"min_samples" validate:"required,gt=0"`
	NoiseAmplitude     float64 `mapstructure:"noise_amplitude" validate:"required,gt=0"`
	RockSolidThreshold float64 `mapstructure:"rock_solid_threshold" validate:"required,gt=0,lte=1"`
	RobustThreshold    float64 `mapstructure:"robust_threshold" validate:"required,gt=0,lte=1"`
	UnreliableThreshold float64 `mapstructure:"unreliable_threshold" validate:"required,gt=0,lte=1"`
	Workers            int     `mapstructure:"workers" validate:"gte=0"`
}

// CLVConfig carries closing-line-value band settings (percent)
type CLVConfig struct {
	SweetSpotLowPct  float64 `mapstructure:"sweet_spot_low_pct" validate:"required,gt=0"`
	SweetSpotHighPct float64 `mapstructure:"sweet_spot_high_pct" validate:"required,gt=0"`
	MinSignalPct     float64 `mapstructure:"min_signal_pct" validate:"required,gt=0"`
}

// KellyConfig carries staking settings
type KellyConfig struct {
	Fraction    float64 `mapstructure:"fraction" validate:"required,gt=0,lte=1"`
	MinStakePct float64 `mapstructure:"min_stake_pct" validate:"required,gt=0"`
	MaxStakePct float64 `mapstructure:"max_stake_pct" validate:"required,gt=0"`
	StepPct     float64 `mapstructure:"step_pct" validate:"required,gt=0"`
}

// RiskConfig carries portfolio-level limits
type RiskConfig struct {
	MaxExposurePct float64  `mapstructure:"max_exposure_pct" validate:"required,gt=0,lte=100"`
	EliteTeams     []string `mapstructure:"elite_teams"`
}

// FreshnessConfig carries data-age thresholds in days
type FreshnessConfig struct {
	FreshDays int `mapstructure:"fresh_days" validate:"required,gt=0"`
	AgingDays int `mapstructure:"aging_days" validate:"required,gt=0"`
	StaleDays int `mapstructure:"stale_days" validate:"required,gt=0"`
}

// OddsConfig carries bookmaker priority settings
type OddsConfig struct {
	SharpBookmakers []string `mapstructure:"sharp_bookmakers" validate:"required,min=1"`
}

// PipelineConfig carries orchestrator settings
type PipelineConfig struct {
	MatchTimeoutSeconds int    `mapstructure:"match_timeout_seconds" validate:"required,gt=0"`
	Version             string `mapstructure:"version" validate:"required"`
	StrictValidation    bool   `mapstructure:"strict_validation"`
	DNACacheTTLSeconds  int    `mapstructure:"dna_cache_ttl_seconds" validate:"required,gt=0,lte=600"`
}

// MatchTimeout returns the per-match deadline as a duration
func (p PipelineConfig) MatchTimeout() time.Duration {
	return time.Duration(p.MatchTimeoutSeconds) * time.Second
}

// DNACacheTTL returns the TeamDNA cache TTL as a duration
func (p PipelineConfig) DNACacheTTL() time.Duration {
	return time.Duration(p.DNACacheTTLSeconds) * time.Second
}

// NotifyConfig carries outbound notification settings
type NotifyConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	WebhookURL     string  `mapstructure:"webhook_url" validate:"omitempty,url"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"omitempty,gt=0"`
	RetryMax       int     `mapstructure:"retry_max" validate:"omitempty,gte=0"`
	RatePerSecond  float64 `mapstructure:"rate_per_second" validate:"omitempty,gt=0"`
}

// SchedulerConfig carries cron settings for the daemon
type SchedulerConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	AnalyzeCron    string `mapstructure:"analyze_cron"`
	LookaheadHours int    `mapstructure:"lookahead_hours" validate:"omitempty,gt=0"`
	FixturesFile   string `mapstructure:"fixtures_file"`
}

// Lookahead returns the fixture lookahead window as a duration
func (s SchedulerConfig) Lookahead() time.Duration {
	return time.Duration(s.LookaheadHours) * time.Hour
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// HealthConfig represents the health server configuration
type HealthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

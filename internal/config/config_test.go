package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	cfg, _ := Load(filepath.Join("testdata", "does-not-exist.yaml"))
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.Name = "pitchedge"
	cfg.Database.User = "engine"
	cfg.Database.Password = "secret"
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 1.25, cfg.Models.TeamStrategyWeight)
	assert.Equal(t, 1.15, cfg.Models.QuantumWeight)
	assert.Equal(t, 1.10, cfg.Models.MatchupWeight)
	assert.Equal(t, 1.00, cfg.Models.DixonColesWeight)
	assert.Equal(t, 0.85, cfg.Models.ScenariosWeight)
	assert.Equal(t, 1.05, cfg.Models.DNAFeaturesWeight)

	assert.Equal(t, 3, cfg.Consensus.MinPositiveVotes)
	assert.Equal(t, 0.50, cfg.Consensus.MinWeightedMass)

	assert.Equal(t, 5000, cfg.MonteCarlo.Samples)
	assert.Equal(t, 1000, cfg.MonteCarlo.MinSamples)
	assert.Equal(t, 0.15, cfg.MonteCarlo.NoiseAmplitude)

	assert.Equal(t, 0.25, cfg.Kelly.Fraction)
	assert.Equal(t, 5.0, cfg.Kelly.MaxStakePct)
	assert.Equal(t, 30.0, cfg.Risk.MaxExposurePct)

	assert.Equal(t, 7, cfg.Freshness.FreshDays)
	assert.Equal(t, 14, cfg.Freshness.AgingDays)
	assert.Equal(t, 21, cfg.Freshness.StaleDays)

	assert.Equal(t, 10, cfg.Database.MaxConnections)
	assert.Equal(t, 30, cfg.Pipeline.MatchTimeoutSeconds)
}

func TestLoadExpandsEnvPlaceholders(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "database:\n  host: localhost\n  port: 5432\n  name: pitchedge\n  user: engine\n  password: ${TEST_DB_PASSWORD}\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("TEST_DB_PASSWORD", "hunter2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.Database.Password)
}

func TestValidate(t *testing.T) {
	cfg := validTestConfig()
	require.NoError(t, Validate(cfg))
}

func TestValidateRejectsBadEnvironment(t *testing.T) {
	cfg := validTestConfig()
	cfg.App.Environment = "sandbox"
	assert.Error(t, Validate(cfg))
}

func TestValidateCrossField(t *testing.T) {
	t.Run("freshness ordering", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Freshness.AgingDays = 21
		assert.Error(t, Validate(cfg))
	})

	t.Run("kelly bounds", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Kelly.MinStakePct = 6.0
		assert.Error(t, Validate(cfg))
	})

	t.Run("notify requires url", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Notify.Enabled = true
		cfg.Notify.WebhookURL = ""
		assert.Error(t, Validate(cfg))
	})
}

func TestModelWeightsMap(t *testing.T) {
	cfg := validTestConfig()
	w := cfg.Models.Weights()
	assert.Len(t, w, 6)
	assert.Equal(t, 1.25, w["team_strategy"])
	assert.Equal(t, 0.85, w["scenarios"])
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/pitch-edge/internal/models"
)

func seedKey() models.TeamKey {
	return models.TeamKey{Name: "Liverpool FC", League: "EPL", Season: "2025-26"}
}

func TestMemoryGatewayNormalizedLookup(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()
	gw.SeedTeam(seedKey(), &models.TeamProfileRecord{
		Tier:      models.TierGold,
		UpdatedAt: time.Now(),
	}, nil, nil, nil)

	// Variant spellings resolve to the same profile
	for _, name := range []string{"Liverpool FC", "liverpool", "LIVERPOOL", " Liverpool  "} {
		rec, err := gw.GetProfile(ctx, models.TeamKey{Name: name, League: "EPL", Season: "2025-26"})
		require.NoError(t, err, "lookup %q", name)
		assert.Equal(t, models.TierGold, rec.Tier)
	}
}

func TestMemoryGatewayFuzzyFallbackThreshold(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()
	gw.SeedTeam(models.TeamKey{Name: "Paris Saint-Germain Football Club", League: "ligue_1", Season: "2025-26"},
		&models.TeamProfileRecord{Tier: models.TierElite, UpdatedAt: time.Now()}, nil, nil, nil)

	// Near-complete name wins through the fuzzy fallback
	rec, err := gw.GetProfile(ctx, models.TeamKey{Name: "Paris Saint-Germain Football", League: "ligue_1", Season: "2025-26"})
	require.NoError(t, err)
	assert.Equal(t, models.TierElite, rec.Tier)

	// A loose containment hit stays below the threshold and misses
	_, err = gw.GetProfile(ctx, models.TeamKey{Name: "Saint-Germain", League: "ligue_1", Season: "2025-26"})
	assert.ErrorIs(t, err, models.ErrTeamNotFound)
}

func TestMemoryGatewayTeamNotFound(t *testing.T) {
	gw := NewMemoryGateway()
	_, err := gw.GetProfile(context.Background(), seedKey())
	assert.ErrorIs(t, err, models.ErrTeamNotFound)
}

func TestMemoryGatewaySymmetricFriction(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()
	gw.SeedFriction(&models.MatchupFriction{
		TeamA: "liverpool", TeamB: "bournemouth",
		FrictionScore: 55, ChaosPotential: 40,
	})

	ab, err := gw.GetMatchupFriction(ctx, "Liverpool FC", "AFC Bournemouth")
	require.NoError(t, err)
	ba, err := gw.GetMatchupFriction(ctx, "AFC Bournemouth", "Liverpool FC")
	require.NoError(t, err)
	assert.Same(t, ab, ba)
}

func TestMemoryGatewayPredictionDuplicate(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()
	p := &models.MarketPrediction{ID: uuid.New(), MatchID: "m1", Market: models.MarketOver25, Probability: 0.58}

	_, err := gw.Create(ctx, p)
	require.NoError(t, err)
	_, err = gw.Create(ctx, p)
	assert.ErrorIs(t, err, models.ErrDuplicateKey)
}

func TestMemoryGatewayPredictionUpdateNotFound(t *testing.T) {
	gw := NewMemoryGateway()
	prob := 0.6
	err := gw.Update(context.Background(), uuid.New(), models.PredictionPatch{Probability: &prob})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryGatewayDecisionIdempotence(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()
	d := &models.Decision{
		ID: uuid.New(), MatchID: "m1", Market: models.MarketOver25,
		Tier: models.TierBetNormal, PipelineRunID: "run-1", DecidedAt: time.Now(),
	}

	first, err := gw.WriteDecision(ctx, d)
	require.NoError(t, err)

	rerun := &models.Decision{
		ID: uuid.New(), MatchID: "m1", Market: models.MarketOver25,
		Tier: models.TierSkip, PipelineRunID: "run-1", DecidedAt: time.Now(),
	}
	second, err := gw.WriteDecision(ctx, rerun)
	require.NoError(t, err)

	assert.Same(t, first, second, "rerun must return the stored record")
	assert.Equal(t, 1, gw.DecisionCount())
}

func TestMemoryGatewayDecisionBatchVisibleTogether(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()
	batch := []*models.Decision{
		{ID: uuid.New(), MatchID: "m2", Market: models.MarketHomeWin, Tier: models.TierSkip, PipelineRunID: "r"},
		{ID: uuid.New(), MatchID: "m2", Market: models.MarketOver25, Tier: models.TierBetNormal, PipelineRunID: "r"},
	}

	out, err := gw.WriteDecisionBatch(ctx, batch)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	listed, err := gw.ListByMatch(ctx, "m2")
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestClosingSnapshotPrefersSharp(t *testing.T) {
	kickoff := time.Now()
	series := []*models.OddsSnapshot{
		{Bookmaker: "softbook", Price: 2.00, TakenAt: kickoff.Add(-30 * time.Minute), Class: models.BookSoft},
		{Bookmaker: "pinnacle", Price: 1.80, TakenAt: kickoff.Add(-2 * time.Hour), Class: models.BookSharp},
		{Bookmaker: "pinnacle", Price: 1.85, TakenAt: kickoff.Add(-1 * time.Hour), Class: models.BookSharp},
		{Bookmaker: "pinnacle", Price: 1.70, TakenAt: kickoff.Add(time.Minute), Class: models.BookSharp},
	}

	closing := models.ClosingSnapshot(series, kickoff, nil)
	require.NotNil(t, closing)
	assert.Equal(t, 1.85, closing.Price, "latest sharp price before kickoff wins")
}

func TestClosingSnapshotConfiguredListOverridesClass(t *testing.T) {
	kickoff := time.Now()
	series := []*models.OddsSnapshot{
		{Bookmaker: "softbook", Price: 2.00, TakenAt: kickoff.Add(-30 * time.Minute), Class: models.BookSoft},
		{Bookmaker: "Betfair", Price: 1.92, TakenAt: kickoff.Add(-45 * time.Minute), Class: models.BookSoft},
		{Bookmaker: "Betfair", Price: 1.88, TakenAt: kickoff.Add(-2 * time.Hour), Class: models.BookSoft},
	}

	// A feed that never tags its exchange rows still yields a sharp
	// closing line when the bookmaker is on the configured list.
	closing := models.ClosingSnapshot(series, kickoff, []string{"betfair"})
	require.NotNil(t, closing)
	assert.Equal(t, "Betfair", closing.Bookmaker)
	assert.Equal(t, 1.92, closing.Price)

	// Without the list the same series falls back to soft books.
	closing = models.ClosingSnapshot(series, kickoff, nil)
	require.NotNil(t, closing)
	assert.Equal(t, 2.00, closing.Price)
}

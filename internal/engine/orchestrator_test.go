package engine

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/dna"
	"github.com/yourusername/pitch-edge/internal/ensemble"
	"github.com/yourusername/pitch-edge/internal/models"
	"github.com/yourusername/pitch-edge/internal/repository"
	"github.com/yourusername/pitch-edge/internal/scoring"
)

const (
	testLeague = "Premier League"
	testSeason = "2025-2026"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("testdata/absent.yaml")
	require.NoError(t, err)
	// Fewer samples keep the perturbation stage fast
	cfg.MonteCarlo.Samples = 400
	cfg.MonteCarlo.MinSamples = 100
	cfg.MonteCarlo.Workers = 2
	return cfg
}

func newTestOrchestrator(cfg *config.Config, gw *repository.MemoryGateway) *Orchestrator {
	log := logrus.New()
	log.SetOutput(io.Discard)
	loader := dna.NewLoader(gw, gw, nil, log)
	return NewOrchestrator(cfg, gw.Gateway(), loader, log, nil)
}

func matchRequest(matchID, home, away string, kickoff time.Time) models.MatchRequest {
	return models.MatchRequest{
		MatchID:  matchID,
		HomeTeam: home,
		AwayTeam: away,
		League:   testLeague,
		Season:   testSeason,
		Kickoff:  kickoff,
	}
}

func seedTeam(gw *repository.MemoryGateway, name string, tier models.TeamTier, keeper models.KeeperStatus,
	doc string, xg *models.XGAggregateRecord, st *models.StandingsRecord, updated time.Time) {
	key := models.TeamKey{Name: name, League: testLeague, Season: testSeason}
	xg.UpdatedAt = updated
	st.UpdatedAt = updated
	gw.SeedTeam(key, &models.TeamProfileRecord{
		Key:          key,
		Tier:         tier,
		KeeperStatus: keeper,
		DNA:          json.RawMessage(doc),
		UpdatedAt:    updated,
	}, xg, nil, st)
}

func snap(matchID string, market models.Market, book string, class models.BookmakerClass, price float64, at time.Time) *models.OddsSnapshot {
	return &models.OddsSnapshot{
		MatchID:   matchID,
		Market:    market,
		Bookmaker: book,
		TakenAt:   at,
		Price:     price,
		Class:     class,
	}
}

func adjustment(t *testing.T, d *models.Decision, source string) models.Adjustment {
	t.Helper()
	for _, a := range d.Adjustments {
		if a.Source == source {
			return a
		}
	}
	t.Fatalf("decision on %s carries no %q adjustment", d.Market, source)
	return models.Adjustment{}
}

// seedTotalsFixture sets up a fixture where both sides are proven late
// scorers with strong over-2.5 histories and the over price drifted up
// after the sharp close.
func seedTotalsFixture(gw *repository.MemoryGateway, now time.Time) models.MatchRequest {
	updated := now.Add(-48 * time.Hour)

	homeDoc := `{
		"context": {"home_strength": 0.70, "away_strength": 0.50, "btts_tendency": 0.55, "goals_tendency": 0.62},
		"temporal": {"diesel_factor": 0.70},
		"market": {
			"roi": 12.5, "error_rate": 18,
			"pepites": ["over_2.5"], "markets_focus": ["over_2.5"],
			"over_rates": {"over_2.5": 0.72}, "btts_yes_rate": 0.58
		},
		"meta": {"global_reliability": 0.80},
		"status": {"reliability_multiplier": 1.0}
	}`
	seedTeam(gw, "Brighton", models.TierGold, models.KeeperSteady, homeDoc,
		&models.XGAggregateRecord{
			XGFor90: 1.9, XGAgainst90: 1.4, Shots90: 14, ShotsOnTgt90: 5.2,
			PossessionPct: 52, CleanSheetPct: 30, BTTSPct: 55,
			MatchesPlayed: 20, Wins: 11, Draws: 5, Losses: 4, PPG: 1.9,
		},
		&models.StandingsRecord{Rank: 5, Points: 38, PtsToLeader: 10, PtsToRelegation: 18,
			SeasonPhase: models.PhaseMid, MotivationZone: models.ZoneEurope},
		updated)

	awayDoc := `{
		"context": {"home_strength": 0.50, "away_strength": 0.55, "btts_tendency": 0.56, "goals_tendency": 0.60},
		"temporal": {"diesel_factor": 0.68},
		"market": {"roi": 4.0, "error_rate": 22, "over_rates": {"over_2.5": 0.70}, "btts_yes_rate": 0.56},
		"meta": {"global_reliability": 0.75},
		"status": {"reliability_multiplier": 1.0}
	}`
	seedTeam(gw, "Aston Villa", models.TierSilver, models.KeeperSteady, awayDoc,
		&models.XGAggregateRecord{
			XGFor90: 1.7, XGAgainst90: 1.5, Shots90: 13, ShotsOnTgt90: 4.8,
			PossessionPct: 48, CleanSheetPct: 28, BTTSPct: 57,
			MatchesPlayed: 20, Wins: 9, Draws: 5, Losses: 6, PPG: 1.6,
		},
		&models.StandingsRecord{Rank: 8, Points: 31, PtsToLeader: 17, PtsToRelegation: 11,
			SeasonPhase: models.PhaseMid, MotivationZone: models.ZoneEurope},
		updated)

	gw.SeedOdds(
		snap("m-bha-avl", models.MarketOver25, "pinnacle", models.BookSharp, 1.80, now.Add(-3*time.Hour)),
		snap("m-bha-avl", models.MarketOver25, "bet365", models.BookSoft, 1.95, now.Add(-1*time.Hour)),
	)

	return matchRequest("m-bha-avl", "Brighton", "Aston Villa", now.Add(6*time.Hour))
}

func TestAnalyzeMatchStrongTotalsSignal(t *testing.T) {
	gw := repository.NewMemoryGateway()
	now := time.Now().UTC()
	req := seedTotalsFixture(gw, now)
	o := newTestOrchestrator(testConfig(t), gw)

	bundle, err := o.AnalyzeMatch(context.Background(), req)
	require.NoError(t, err)
	require.False(t, bundle.Skipped)
	require.NotEmpty(t, bundle.PipelineRunID)
	require.Len(t, bundle.Decisions, 1)

	d := bundle.Decisions[0]
	assert.Equal(t, models.MarketOver25, d.Market)
	assert.Equal(t, models.TierBetStrong, d.Tier)
	assert.Equal(t, 1.95, d.MarketOdds)
	assert.Greater(t, d.EdgePct, 0.0)

	// The raw Kelly stake blows through the ceiling, so the clamp binds
	assert.InDelta(t, 5.0, d.StakePct, 1e-9)

	// Taken 1.95 against a 1.80 sharp close sits in the CLV sweet spot
	assert.InDelta(t, 1.20, adjustment(t, d, "clv").Multiplier, 1e-9)
	// Five of six models back the over
	assert.InDelta(t, 1.15, adjustment(t, d, "consensus").Multiplier, 1e-9)
	assert.Equal(t, "ROCK_SOLID", adjustment(t, d, "robustness").Note)

	assert.Equal(t, 1, gw.DecisionCount())
	assert.Len(t, bundle.Bets(), 1)

	// Fresh data with zero validation warnings grades EXCELLENT, and the
	// committee's rationale rides along on the persisted prediction.
	pred := bundle.Ensemble.Predictions[models.MarketOver25]
	require.NotNil(t, pred)
	assert.Equal(t, models.QualityExcellent, pred.DataQuality)
	assert.Empty(t, pred.WarningFlags)
	assert.NotEmpty(t, pred.ContributingFactors)
}

func TestAnalyzeMatchRerunIsIdempotent(t *testing.T) {
	gw := repository.NewMemoryGateway()
	now := time.Now().UTC()
	req := seedTotalsFixture(gw, now)
	o := newTestOrchestrator(testConfig(t), gw)

	first, err := o.AnalyzeMatch(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, gw.DecisionCount())

	second, err := o.AnalyzeMatch(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.PipelineRunID, second.PipelineRunID)
	assert.Equal(t, 1, gw.DecisionCount(), "identical inputs must not duplicate decisions")
}

func TestAnalyzeMatchStaleDataSkipsWholeMatch(t *testing.T) {
	gw := repository.NewMemoryGateway()
	now := time.Now().UTC()
	req := seedTotalsFixture(gw, now)

	// Overwrite both sides with 25-day-old records
	old := now.Add(-25 * 24 * time.Hour)
	for _, team := range []string{"Brighton", "Aston Villa"} {
		key := models.TeamKey{Name: team, League: testLeague, Season: testSeason}
		gw.SeedTeam(key, &models.TeamProfileRecord{
			Key: key, Tier: models.TierSilver, KeeperStatus: models.KeeperSteady,
			DNA: json.RawMessage(`{}`), UpdatedAt: old,
		}, &models.XGAggregateRecord{
			XGFor90: 1.4, XGAgainst90: 1.3, Shots90: 12, ShotsOnTgt90: 4.0,
			PossessionPct: 50, CleanSheetPct: 25, BTTSPct: 50,
			MatchesPlayed: 18, Wins: 7, Draws: 5, Losses: 6, PPG: 1.4, UpdatedAt: old,
		}, nil, &models.StandingsRecord{Rank: 10, SeasonPhase: models.PhaseMid,
			MotivationZone: models.ZoneMidTable, UpdatedAt: old})
	}

	o := newTestOrchestrator(testConfig(t), gw)
	bundle, err := o.AnalyzeMatch(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, bundle.Skipped)
	assert.Equal(t, models.SkipDataStale, bundle.SkipReason)
	assert.Empty(t, bundle.Decisions)
	assert.Equal(t, 0, gw.DecisionCount(), "match-level skips never reach the store")
}

func TestAnalyzeMatchElitePriceTax(t *testing.T) {
	gw := repository.NewMemoryGateway()
	now := time.Now().UTC()
	updated := now.Add(-48 * time.Hour)

	homeDoc := `{
		"context": {"home_strength": 0.90, "away_strength": 0.50},
		"psyche": {"killer_instinct": 0.95, "profile": "PREDATOR"},
		"tactical": {"verticality": 0.80, "pressing_intensity": 0.90, "set_piece_threat": 0.80},
		"market": {"roi": 15.0, "error_rate": 12, "pepites": ["home_win"]},
		"luck": {"profile": "UNLUCKY", "total_luck": -1.5},
		"meta": {"global_reliability": 0.85},
		"status": {"reliability_multiplier": 1.0}
	}`
	seedTeam(gw, "Manchester City", models.TierElite, models.KeeperOnFire, homeDoc,
		&models.XGAggregateRecord{
			XGFor90: 3.2, XGAgainst90: 0.6, Shots90: 20, ShotsOnTgt90: 8.0,
			PossessionPct: 65, CleanSheetPct: 60, BTTSPct: 30,
			MatchesPlayed: 20, Wins: 18, Draws: 1, Losses: 1, PPG: 2.75,
		},
		&models.StandingsRecord{Rank: 1, Points: 55, PtsToLeader: 0, PtsToRelegation: 40,
			SeasonPhase: models.PhaseMid, MotivationZone: models.ZoneEurope},
		updated)

	awayDoc := `{
		"context": {"home_strength": 0.40, "away_strength": 0.20},
		"psyche": {"killer_instinct": 0.50, "panic_factor": 1.4, "profile": "FRAGILE"},
		"tactical": {"verticality": 0.30, "pressing_intensity": 0.30, "set_piece_threat": 0.30},
		"market": {"roi": -8.0, "error_rate": 30},
		"luck": {"profile": "LUCKY", "total_luck": 1.5},
		"meta": {"global_reliability": 0.60},
		"status": {"reliability_multiplier": 1.0}
	}`
	seedTeam(gw, "Luton", models.TierBronze, models.KeeperLeaky, awayDoc,
		&models.XGAggregateRecord{
			XGFor90: 0.4, XGAgainst90: 2.6, Shots90: 6, ShotsOnTgt90: 2.0,
			PossessionPct: 35, CleanSheetPct: 10, BTTSPct: 40,
			MatchesPlayed: 20, Wins: 2, Draws: 4, Losses: 14, PPG: 0.5,
		},
		&models.StandingsRecord{Rank: 20, Points: 10, PtsToLeader: 45, PtsToRelegation: 0,
			SeasonPhase: models.PhaseMid, MotivationZone: models.ZoneRelegation},
		updated)

	taken := now.Add(-2 * time.Hour)
	gw.SeedOdds(
		snap("m-mci-lut", models.MarketHomeWin, "pinnacle", models.BookSharp, 1.45, taken),
		snap("m-mci-lut", models.MarketDraw, "pinnacle", models.BookSharp, 4.80, taken),
		snap("m-mci-lut", models.MarketAwayWin, "pinnacle", models.BookSharp, 8.00, taken),
	)

	cfg := testConfig(t)
	cfg.Risk.EliteTeams = []string{"Manchester City"}
	o := newTestOrchestrator(cfg, gw)

	req := matchRequest("m-mci-lut", "Manchester City", "Luton", now.Add(6*time.Hour))
	bundle, err := o.AnalyzeMatch(context.Background(), req)
	require.NoError(t, err)
	require.False(t, bundle.Skipped)
	require.Len(t, bundle.Decisions, 1)

	d := bundle.Decisions[0]
	assert.Equal(t, models.MarketHomeWin, d.Market)
	assert.Equal(t, models.TierBetCautious, d.Tier)
	assert.Contains(t, d.Reasons, "ELITE -50%")
	// Pepite bonus +0.25, elite short-odds tax -0.50
	assert.InDelta(t, 0.75, adjustment(t, d, "bet_validator").Multiplier, 1e-9)
	assert.True(t, d.Tier.IsBet())
	assert.Greater(t, d.StakePct, 0.0)
	assert.Equal(t, 1, gw.DecisionCount())
}

func TestAnalyzeMatchNoConsensusPersistsSkip(t *testing.T) {
	gw := repository.NewMemoryGateway()
	now := time.Now().UTC()
	updated := now.Add(-48 * time.Hour)

	homeDoc := `{"market": {"btts_yes_rate": 0.62}, "meta": {"global_reliability": 0.7}}`
	seedTeam(gw, "Everton", models.TierSilver, models.KeeperSteady, homeDoc,
		&models.XGAggregateRecord{
			XGFor90: 1.8, XGAgainst90: 1.4, Shots90: 13, ShotsOnTgt90: 4.6,
			PossessionPct: 50, CleanSheetPct: 30, BTTSPct: 60,
			MatchesPlayed: 20, Wins: 8, Draws: 6, Losses: 6, PPG: 1.5,
		},
		&models.StandingsRecord{Rank: 9, SeasonPhase: models.PhaseMid, MotivationZone: models.ZoneMidTable},
		updated)

	awayDoc := `{"market": {"btts_yes_rate": 0.60}, "meta": {"global_reliability": 0.7}}`
	seedTeam(gw, "Fulham", models.TierSilver, models.KeeperSteady, awayDoc,
		&models.XGAggregateRecord{
			XGFor90: 1.6, XGAgainst90: 1.5, Shots90: 12, ShotsOnTgt90: 4.2,
			PossessionPct: 50, CleanSheetPct: 28, BTTSPct: 58,
			MatchesPlayed: 20, Wins: 7, Draws: 6, Losses: 7, PPG: 1.35,
		},
		&models.StandingsRecord{Rank: 11, SeasonPhase: models.PhaseMid, MotivationZone: models.ZoneMidTable},
		updated)

	gw.SeedOdds(snap("m-eve-ful", models.MarketBTTSYes, "pinnacle", models.BookSharp, 1.85, now.Add(-2*time.Hour)))

	o := newTestOrchestrator(testConfig(t), gw)
	req := matchRequest("m-eve-ful", "Everton", "Fulham", now.Add(6*time.Hour))

	bundle, err := o.AnalyzeMatch(context.Background(), req)
	require.NoError(t, err)
	require.False(t, bundle.Skipped)
	require.Len(t, bundle.Decisions, 1)

	// Only the two Poisson models clear the implied bar; the committee
	// never reaches three positive votes.
	d := bundle.Decisions[0]
	assert.Equal(t, models.MarketBTTSYes, d.Market)
	assert.Equal(t, models.TierSkip, d.Tier)
	assert.Equal(t, models.SkipNoConsensus, d.SkipReason)
	assert.Equal(t, 1, gw.DecisionCount(), "market-level skips are persisted")
}

// fragileRobustness grades every scored market FRAGILE
type fragileRobustness struct{}

func (fragileRobustness) Validate(_ context.Context, _ *scoring.Input, _ []*models.ModelVote, original *models.EnsemblePrediction) map[models.Market]ensemble.RobustnessResult {
	out := make(map[models.Market]ensemble.RobustnessResult, len(original.Predictions))
	for market := range original.Predictions {
		out[market] = ensemble.RobustnessResult{
			Market:      market,
			Class:       ensemble.RobustnessFragile,
			SuccessRate: 0.21,
			StdDevPts:   28,
			Samples:     100,
		}
	}
	return out
}

func TestAnalyzeMatchFragileSignalSkips(t *testing.T) {
	gw := repository.NewMemoryGateway()
	now := time.Now().UTC()
	req := seedTotalsFixture(gw, now)

	o := newTestOrchestrator(testConfig(t), gw)
	o.robustness = fragileRobustness{}

	bundle, err := o.AnalyzeMatch(context.Background(), req)
	require.NoError(t, err)
	require.False(t, bundle.Skipped)
	require.Len(t, bundle.Decisions, 1)

	d := bundle.Decisions[0]
	assert.Equal(t, models.TierSkip, d.Tier)
	assert.Equal(t, models.SkipRobustnessFail, d.SkipReason)
	assert.Empty(t, bundle.Bets())
	assert.Equal(t, 1, gw.DecisionCount())
}

// expiringRobustness cancels the run's context before returning a solid
// grade, the shape of a deadline breach mid-perturbation.
type expiringRobustness struct {
	cancel context.CancelFunc
}

func (e expiringRobustness) Validate(_ context.Context, _ *scoring.Input, _ []*models.ModelVote, original *models.EnsemblePrediction) map[models.Market]ensemble.RobustnessResult {
	e.cancel()
	out := make(map[models.Market]ensemble.RobustnessResult, len(original.Predictions))
	for market := range original.Predictions {
		out[market] = ensemble.RobustnessResult{
			Market:      market,
			Class:       ensemble.RobustnessRobust,
			SuccessRate: 0.62,
			StdDevPts:   12,
			Samples:     1000,
		}
	}
	return out
}

func TestAnalyzeMatchDeadlineDuringRobustnessStillDecides(t *testing.T) {
	gw := repository.NewMemoryGateway()
	now := time.Now().UTC()
	req := seedTotalsFixture(gw, now)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o := newTestOrchestrator(testConfig(t), gw)
	o.robustness = expiringRobustness{cancel: cancel}

	bundle, err := o.AnalyzeMatch(ctx, req)
	require.NoError(t, err)
	require.False(t, bundle.Skipped, "a completed classification survives a soft deadline breach")
	require.Len(t, bundle.Decisions, 1)
	assert.Equal(t, 1, gw.DecisionCount())
}

func TestAnalyzeMatchUnknownTeamSkips(t *testing.T) {
	gw := repository.NewMemoryGateway()
	now := time.Now().UTC()
	o := newTestOrchestrator(testConfig(t), gw)

	req := matchRequest("m-unknown", "Atlantis FC", "Shangri-La United", now.Add(6*time.Hour))
	bundle, err := o.AnalyzeMatch(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, bundle.Skipped)
	assert.Equal(t, models.SkipInputNotFound, bundle.SkipReason)
	assert.Equal(t, 0, gw.DecisionCount())
}

func TestAnalyzeMatchNoOddsSkips(t *testing.T) {
	gw := repository.NewMemoryGateway()
	now := time.Now().UTC()
	req := seedTotalsFixture(gw, now)

	// Fixture with profiles but no priced markets
	other := matchRequest("m-unpriced", req.HomeTeam, req.AwayTeam, now.Add(6*time.Hour))

	o := newTestOrchestrator(testConfig(t), gw)
	bundle, err := o.AnalyzeMatch(context.Background(), other)
	require.NoError(t, err)

	assert.True(t, bundle.Skipped)
	assert.Equal(t, models.SkipNoOdds, bundle.SkipReason)
	assert.Equal(t, 0, gw.DecisionCount())
}

func TestAnalyzeMatchCancelledContextSkipsAsTimeout(t *testing.T) {
	gw := repository.NewMemoryGateway()
	now := time.Now().UTC()
	req := seedTotalsFixture(gw, now)
	o := newTestOrchestrator(testConfig(t), gw)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bundle, err := o.AnalyzeMatch(ctx, req)
	require.NoError(t, err)
	assert.True(t, bundle.Skipped)
	assert.Equal(t, models.SkipTimeout, bundle.SkipReason)
	assert.Equal(t, 0, gw.DecisionCount())
}

func TestComputeRunIDDeterministic(t *testing.T) {
	ts := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	req := matchRequest("m-run-id", "Brighton", "Aston Villa", ts.Add(6*time.Hour))
	data := &dna.MatchData{
		Home:     &models.TeamDNA{Key: req.HomeKey(), LastUpdated: ts},
		Away:     &models.TeamDNA{Key: req.AwayKey(), LastUpdated: ts},
		Friction: models.NeutralFriction("Brighton", "Aston Villa"),
	}
	odds := map[models.Market]*models.OddsSnapshot{
		models.MarketOver25:  snap(req.MatchID, models.MarketOver25, "pinnacle", models.BookSharp, 1.90, ts),
		models.MarketBTTSYes: snap(req.MatchID, models.MarketBTTSYes, "pinnacle", models.BookSharp, 1.80, ts),
	}

	id1 := ComputeRunID(&req, "1", data, odds)
	id2 := ComputeRunID(&req, "1", data, odds)
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 32)

	odds[models.MarketOver25].Price = 1.92
	assert.NotEqual(t, id1, ComputeRunID(&req, "1", data, odds), "a price move must rotate the run id")

	odds[models.MarketOver25].Price = 1.90
	assert.NotEqual(t, id1, ComputeRunID(&req, "2", data, odds), "a pipeline version bump must rotate the run id")
}

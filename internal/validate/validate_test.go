package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/models"
)

func healthyDNA() *models.TeamDNA {
	return &models.TeamDNA{
		Key: models.TeamKey{Name: "monaco", League: "ligue_1", Season: "2025-2026"},
		Season: models.SeasonAggregates{
			XGFor90:       1.8,
			XGAgainst90:   1.1,
			CleanSheetPct: 35,
			PossessionPct: 55,
			BTTSPct:       52,
			Shots90:       14.2,
			ShotsOnTgt90:  5.1,
		},
		Tactical:    models.TacticalVector{Style: models.StylePossession},
		LastUpdated: time.Now().Add(-48 * time.Hour),
	}
}

func TestValidateTeamHealthy(t *testing.T) {
	v := NewDataValidator(false)

	res := v.ValidateTeam(healthyDNA())

	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestValidateTeamHardViolation(t *testing.T) {
	v := NewDataValidator(false)
	d := healthyDNA()
	d.Season.XGFor90 = 7.5

	res := v.ValidateTeam(d)

	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "xg_90")
}

func TestValidateTeamSoftViolationKeepsRecord(t *testing.T) {
	v := NewDataValidator(false)
	d := healthyDNA()
	d.Season.Shots90 = 24 // above soft, below hard

	res := v.ValidateTeam(d)

	assert.True(t, res.IsValid)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "shots_90")
}

func TestValidateTeamStrictEscalatesWarnings(t *testing.T) {
	v := NewDataValidator(true)
	d := healthyDNA()
	d.Season.Shots90 = 24

	res := v.ValidateTeam(d)

	assert.False(t, res.IsValid)
	assert.Empty(t, res.Warnings)
	assert.NotEmpty(t, res.Errors)
}

func TestValidateTeamRequiredFields(t *testing.T) {
	v := NewDataValidator(false)
	d := healthyDNA()
	d.Season.XGFor90 = 0
	d.Season.XGAgainst90 = 0

	res := v.ValidateTeam(d)

	assert.False(t, res.IsValid)
	assert.Len(t, res.Errors, 2)
}

func TestValidateTeamCoherence(t *testing.T) {
	t.Run("xg exceeds shots", func(t *testing.T) {
		d := healthyDNA()
		d.Season.XGFor90 = 2.2
		d.Season.Shots90 = 1.5

		res := NewDataValidator(false).ValidateTeam(d)

		assert.False(t, res.IsValid)
	})

	t.Run("suspected inversion warns", func(t *testing.T) {
		d := healthyDNA()
		d.Season.XGFor90 = 0.2
		d.Season.XGAgainst90 = 2.8

		res := NewDataValidator(false).ValidateTeam(d)

		// 0.2 is below the soft floor too, so expect both warnings
		assert.True(t, res.IsValid)
		assert.GreaterOrEqual(t, len(res.Warnings), 2)
	})

	t.Run("low possession fits defensive style", func(t *testing.T) {
		d := healthyDNA()
		d.Season.PossessionPct = 32
		d.Tactical.Style = models.StyleLowBlock

		res := NewDataValidator(false).ValidateTeam(d)

		assert.True(t, res.IsValid)
		assert.Empty(t, res.Warnings)
	})
}

func freshnessValidatorAt(now time.Time) *FreshnessValidator {
	v := NewFreshnessValidator(config.FreshnessConfig{FreshDays: 7, AgingDays: 14, StaleDays: 21})
	v.now = func() time.Time { return now }
	return v
}

func TestFreshnessLadder(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	v := freshnessValidatorAt(now)

	cases := []struct {
		name    string
		age     time.Duration
		tier    FreshnessTier
		penalty float64
		mult    float64
	}{
		{"fresh", 3 * 24 * time.Hour, FreshnessFresh, 0, 1.00},
		{"aging", 10 * 24 * time.Hour, FreshnessAging, 0.05, 0.95},
		{"stale", 18 * 24 * time.Hour, FreshnessStale, 0.15, 0.85},
		{"dead", 25 * 24 * time.Hour, FreshnessDead, 0, 1.00},
		// Midnight-stamped batches land exactly on the thresholds; each
		// boundary belongs to the next tier down.
		{"exactly fresh boundary", 7 * 24 * time.Hour, FreshnessAging, 0.05, 0.95},
		{"exactly aging boundary", 14 * 24 * time.Hour, FreshnessStale, 0.15, 0.85},
		{"exactly stale boundary", 21 * 24 * time.Hour, FreshnessDead, 0, 1.00},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &models.TeamDNA{LastUpdated: now.Add(-tc.age)}
			got := v.Assess(d)

			assert.Equal(t, tc.tier, got.Tier)
			assert.InDelta(t, tc.penalty, got.Tier.ConfidencePenalty(), 1e-9)
			assert.InDelta(t, tc.mult, got.Tier.StakeMultiplier(), 1e-9)
		})
	}
}

func TestQualityForGrading(t *testing.T) {
	cases := []struct {
		name     string
		tier     FreshnessTier
		warnings int
		want     models.DataQuality
	}{
		{"fresh clean", FreshnessFresh, 0, models.QualityExcellent},
		{"fresh warned", FreshnessFresh, 2, models.QualityGood},
		{"aging clean", FreshnessAging, 0, models.QualityGood},
		{"aging warned", FreshnessAging, 1, models.QualityFair},
		{"stale clean", FreshnessStale, 0, models.QualityFair},
		{"stale warned", FreshnessStale, 3, models.QualityPoor},
		{"dead", FreshnessDead, 0, models.QualityPoor},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, QualityFor(tc.tier, tc.warnings))
		})
	}
}

func TestFreshnessUnknownTimestampIsStale(t *testing.T) {
	v := freshnessValidatorAt(time.Now())

	got := v.Assess(&models.TeamDNA{})

	assert.Equal(t, FreshnessStale, got.Tier)
	assert.True(t, got.Tier.Usable())
}

func TestFreshnessMatchTakesWorseTier(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	v := freshnessValidatorAt(now)

	home := &models.TeamDNA{LastUpdated: now.Add(-2 * 24 * time.Hour)}
	away := &models.TeamDNA{LastUpdated: now.Add(-16 * 24 * time.Hour)}

	_, _, combined := v.AssessMatch(home, away)

	assert.Equal(t, FreshnessStale, combined)
}

func TestCLVBands(t *testing.T) {
	v := NewCLVValidator(config.CLVConfig{SweetSpotLowPct: 5, SweetSpotHighPct: 10, MinSignalPct: 2})

	cases := []struct {
		name    string
		taken   float64
		closing float64
		band    CLVBand
		mult    float64
	}{
		{"sweet spot", 1.95, 1.80, CLVSweetSpot, 1.20},
		{"good", 1.86, 1.80, CLVGood, 1.10},
		{"noise", 1.81, 1.80, CLVNoise, 1.00},
		{"danger", 2.10, 1.80, CLVDanger, 0.80},
		{"negative", 1.70, 1.80, CLVNegative, 0.85},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := v.Assess(tc.taken, tc.closing)

			assert.Equal(t, tc.band, got.Band)
			assert.InDelta(t, tc.mult, got.Multiplier, 1e-9)
		})
	}
}

func TestCLVMissingClosingIsNeutral(t *testing.T) {
	v := NewCLVValidator(config.CLVConfig{SweetSpotLowPct: 5, SweetSpotHighPct: 10, MinSignalPct: 2})

	got := v.Assess(1.90, 0)

	assert.Equal(t, CLVUnknown, got.Band)
	assert.InDelta(t, 1.00, got.Multiplier, 1e-9)
}

func TestBetValidatorHardBlock(t *testing.T) {
	v := NewBetValidator(config.RiskConfig{})

	got := v.Assess(healthyDNA(), models.MarketHomeWin, 1.15)

	assert.True(t, got.HardBlocked)
	assert.Equal(t, models.TierSkip, got.Tier)
}

func TestBetValidatorFocusPepiteSweetSpot(t *testing.T) {
	v := NewBetValidator(config.RiskConfig{})
	d := healthyDNA()
	d.Market.MarketsFocus = []models.Market{models.MarketOver25}
	d.Market.Pepites = []models.Market{models.MarketOver25}

	got := v.Assess(d, models.MarketOver25, 1.75)

	// 1.00 + 0.20 + 0.25 + 0.10 = 1.55, clamped to 1.50
	assert.InDelta(t, 1.50, got.Multiplier, 1e-9)
	assert.Equal(t, models.TierBetStrong, got.Tier)
	assert.Len(t, got.Reasons, 3)
}

func TestBetValidatorEliteShortOdds(t *testing.T) {
	v := NewBetValidator(config.RiskConfig{EliteTeams: []string{"Manchester City"}})
	d := healthyDNA()
	d.Key = models.TeamKey{Name: "manchester city", League: "premier_league", Season: "2025-2026"}

	got := v.Assess(d, models.MarketHomeWin, 1.25)

	assert.False(t, got.HardBlocked)
	assert.InDelta(t, 0.50, got.Multiplier, 1e-9)
	assert.Equal(t, models.TierBetCautious, got.Tier)
	assert.Contains(t, got.Summary(), "ELITE -50%")
}

func TestBetValidatorShortOddsNonElite(t *testing.T) {
	v := NewBetValidator(config.RiskConfig{EliteTeams: []string{"Manchester City"}})

	got := v.Assess(healthyDNA(), models.MarketHomeWin, 1.35)

	assert.InDelta(t, 0.60, got.Multiplier, 1e-9)
	assert.Equal(t, models.TierBetCautious, got.Tier)
}

func TestBetValidatorPenaltyStack(t *testing.T) {
	v := NewBetValidator(config.RiskConfig{})
	d := healthyDNA()
	d.Market.MarketsAvoid = []models.Market{models.MarketBTTSYes}
	d.Market.ErrorRate = 48

	got := v.Assess(d, models.MarketBTTSYes, 4.00)

	// 1.00 - 0.30 - 0.30 - 0.20 = 0.20
	assert.InDelta(t, 0.20, got.Multiplier, 1e-9)
	assert.Equal(t, models.TierBetCautious, got.Tier)
}

func TestBetValidatorNeutral(t *testing.T) {
	v := NewBetValidator(config.RiskConfig{})

	got := v.Assess(healthyDNA(), models.MarketOver25, 2.20)

	assert.InDelta(t, 1.00, got.Multiplier, 1e-9)
	assert.Equal(t, models.TierBetNormal, got.Tier)
	assert.Empty(t, got.Reasons)
}

package sizing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/models"
)

func sizer() *KellySizer {
	return NewKellySizer(
		config.KellyConfig{Fraction: 0.25, MinStakePct: 0.5, MaxStakePct: 5.0, StepPct: 0.5},
		config.RiskConfig{MaxExposurePct: 30},
	)
}

func portfolio(positions ...models.Position) *models.PortfolioState {
	return &models.PortfolioState{
		Bankroll:      decimal.NewFromInt(1000),
		OpenPositions: positions,
	}
}

func TestFullKelly(t *testing.T) {
	// p=0.55 at evens: k = (0.55*1 - 0.45)/1 = 0.10
	assert.InDelta(t, 0.10, FullKelly(0.55, 2.00), 1e-9)
	// Negative-edge spots never stake
	assert.Zero(t, FullKelly(0.40, 2.00))
	// Degenerate odds never stake
	assert.Zero(t, FullKelly(0.90, 1.00))
}

func TestSizeNominal(t *testing.T) {
	// kelly_full = (0.60*0.90 - 0.40)/0.90 ≈ 0.1556; quarter ≈ 3.89%,
	// at multiplier 0.70 ≈ 2.72%, floored to the 0.5 step = 2.5%
	got := sizer().Size(0.60, 1.90, 0.70, portfolio())

	assert.False(t, got.Skipped)
	assert.InDelta(t, 2.5, got.StakePct, 1e-9)
	assert.Equal(t, models.RiskHigh, got.RiskLevel)
	assert.True(t, got.StakeUnits.Equal(decimal.NewFromInt(25)))
}

func TestSizeCapsAtMaxStake(t *testing.T) {
	got := sizer().Size(0.80, 3.00, 1.50, portfolio())

	assert.False(t, got.Skipped)
	assert.InDelta(t, 5.0, got.StakePct, 1e-9)
	assert.NotEmpty(t, got.CapsApplied)
	assert.Equal(t, models.RiskVeryHigh, got.RiskLevel)
}

func TestSizeSkipsTinyStake(t *testing.T) {
	got := sizer().Size(0.52, 2.00, 0.30, portfolio())

	assert.True(t, got.Skipped)
	assert.Equal(t, models.SkipStakeTooSmall, got.SkipReason)
	assert.Zero(t, got.StakePct)
}

func TestSizeExposureCap(t *testing.T) {
	p := portfolio(
		models.Position{MatchID: "m1", Market: models.MarketOver25, StakePct: 15},
		models.Position{MatchID: "m2", Market: models.MarketHomeWin, StakePct: 14},
	)

	got := sizer().Size(0.60, 1.90, 1.0, p)

	assert.True(t, got.Skipped)
	assert.Equal(t, models.SkipExposureCap, got.SkipReason)
}

func TestSizeExposureDeduplicatesSameMatch(t *testing.T) {
	// Two overlapping markets of one match count once at the larger stake
	p := portfolio(
		models.Position{MatchID: "m1", Market: models.MarketOver25, StakePct: 15},
		models.Position{MatchID: "m1", Market: models.MarketBTTSYes, StakePct: 14},
	)

	got := sizer().Size(0.60, 1.90, 1.0, p)

	assert.False(t, got.Skipped)
	assert.Greater(t, got.StakePct, 0.0)
}

func TestRoundToStepFloors(t *testing.T) {
	assert.InDelta(t, 2.5, roundToStep(2.99, 0.5), 1e-9)
	assert.InDelta(t, 0.0, roundToStep(0.49, 0.5), 1e-9)
	assert.InDelta(t, 5.0, roundToStep(5.0, 0.5), 1e-9)
}

// Package sizing turns validated predictions into stakes with fractional
// Kelly and portfolio-level caps.
package sizing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/models"
)

// KellySizer sizes stakes at a configured Kelly fraction with a stake
// step, floor, ceiling and a portfolio exposure cap.
type KellySizer struct {
	cfg  config.KellyConfig
	risk config.RiskConfig
}

func NewKellySizer(cfg config.KellyConfig, risk config.RiskConfig) *KellySizer {
	return &KellySizer{cfg: cfg, risk: risk}
}

// FullKelly is the unconstrained Kelly fraction for probability p at
// decimal odds o, clamped to [0, 1].
func FullKelly(p, o float64) float64 {
	if o <= 1 {
		return 0
	}
	k := (p*(o-1) - (1 - p)) / (o - 1)
	if k < 0 {
		return 0
	}
	if k > 1 {
		return 1
	}
	return k
}

// Size computes the stake for one market. multiplier is the product of
// every upstream stake adjustment (consensus, robustness, CLV,
// freshness, meta-reliability, motivation, bet validator).
func (s *KellySizer) Size(probability, odds, multiplier float64, portfolio *models.PortfolioState) models.PositionSize {
	out := models.PositionSize{Method: models.SizingQuarterKelly}

	out.KellyFull = FullKelly(probability, odds)
	out.KellyUsed = out.KellyFull * s.cfg.Fraction * multiplier

	stakePct := out.KellyUsed * 100
	if stakePct > s.cfg.MaxStakePct {
		stakePct = s.cfg.MaxStakePct
		out.CapsApplied = append(out.CapsApplied, fmt.Sprintf("max stake %.1f%%", s.cfg.MaxStakePct))
	}
	stakePct = roundToStep(stakePct, s.cfg.StepPct)

	if stakePct < s.cfg.MinStakePct {
		out.Skipped = true
		out.SkipReason = models.SkipStakeTooSmall
		return out
	}

	// Exposure check happens on the rounded stake so the persisted value
	// is the one that was checked.
	exposure := portfolio.TotalExposurePct()
	if exposure+stakePct > s.risk.MaxExposurePct {
		out.Skipped = true
		out.SkipReason = models.SkipExposureCap
		out.CapsApplied = append(out.CapsApplied,
			fmt.Sprintf("exposure %.1f%% + stake %.1f%% exceeds cap %.1f%%", exposure, stakePct, s.risk.MaxExposurePct))
		return out
	}

	out.StakePct = stakePct
	out.StakeUnits = stakeUnits(portfolio.Bankroll, stakePct)
	out.RiskLevel = models.DeriveRiskLevel(stakePct)
	return out
}

// roundToStep rounds down to the nearest step so a stake never exceeds
// what Kelly allows.
func roundToStep(pct, step float64) float64 {
	if step <= 0 {
		return pct
	}
	d := decimal.NewFromFloat(pct)
	st := decimal.NewFromFloat(step)
	return d.Div(st).Floor().Mul(st).InexactFloat64()
}

// stakeUnits converts a stake percentage to bankroll units
func stakeUnits(bankroll decimal.Decimal, stakePct float64) decimal.Decimal {
	return bankroll.Mul(decimal.NewFromFloat(stakePct)).Div(decimal.NewFromInt(100)).Round(2)
}

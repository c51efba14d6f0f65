package models

import (
	"github.com/shopspring/decimal"
)

// RiskLevel grades a position size
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

// Position is one open stake in the portfolio
type Position struct {
	MatchID  string  `db:"match_id" json:"match_id"`
	Market   Market  `db:"market_id" json:"market_id"`
	StakePct float64 `db:"stake_pct" json:"stake_pct"`
	Odds     float64 `db:"odds" json:"odds"`
}

// PortfolioState is the read-only risk picture at sizing time. It is
// updated only by the settlement flow, which lives outside this engine.
type PortfolioState struct {
	Bankroll             decimal.Decimal    `db:"bankroll" json:"bankroll"`
	OpenPositions        []Position         `json:"open_positions"`
	ExposureByMarket     map[Market]float64 `json:"exposure_by_market"`
	VaR1d95              float64            `db:"var_1d_95" json:"var_1d_95"`
	CorrelationRiskScore float64            `db:"correlation_risk_score" json:"correlation_risk_score"`
}

// TotalExposurePct sums open stake percentages, counting overlapping
// markets of the same match once at their largest stake.
func (p *PortfolioState) TotalExposurePct() float64 {
	byMatch := make(map[string]float64)
	for _, pos := range p.OpenPositions {
		if pos.StakePct > byMatch[pos.MatchID] {
			byMatch[pos.MatchID] = pos.StakePct
		}
	}
	total := 0.0
	for _, v := range byMatch {
		total += v
	}
	return total
}

// PositionSize is the output of the Kelly sizer for one market
type PositionSize struct {
	StakePct      float64         `json:"stake_pct"`
	StakeUnits    decimal.Decimal `json:"stake_units"`
	KellyFull     float64         `json:"kelly_full"`
	KellyUsed     float64         `json:"kelly_used"`
	Method        SizingMethod    `json:"method"`
	RiskLevel     RiskLevel       `json:"risk_level"`
	Skipped       bool            `json:"skipped"`
	SkipReason    SkipReason      `json:"skip_reason,omitempty"`
	CapsApplied   []string        `json:"caps_applied,omitempty"`
}

// DeriveRiskLevel maps a stake percentage to a risk grade
func DeriveRiskLevel(stakePct float64) RiskLevel {
	switch {
	case stakePct < 1:
		return RiskLow
	case stakePct < 2.5:
		return RiskMedium
	case stakePct < 5:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

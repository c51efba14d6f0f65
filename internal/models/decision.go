package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DecisionTier is the terminal verdict class for a match/market pair
type DecisionTier string

const (
	TierBetStrong   DecisionTier = "BET_STRONG"
	TierBetNormal   DecisionTier = "BET_NORMAL"
	TierBetCautious DecisionTier = "BET_CAUTIOUS"
	TierSkip        DecisionTier = "SKIP"
)

// IsBet reports whether the tier commits a stake
func (t DecisionTier) IsBet() bool {
	return t == TierBetStrong || t == TierBetNormal || t == TierBetCautious
}

// SizingMethod names the staking scheme used for a decision
type SizingMethod string

const (
	SizingKelly        SizingMethod = "KELLY"
	SizingHalfKelly    SizingMethod = "HALF_KELLY"
	SizingQuarterKelly SizingMethod = "QUARTER_KELLY"
	SizingFixed        SizingMethod = "FIXED"
	SizingFixedPct     SizingMethod = "FIXED_PCT"
)

// SkipReason enumerates why a market was skipped
type SkipReason string

const (
	SkipDataInvalid    SkipReason = "data_invalid"
	SkipDataStale      SkipReason = "data_stale"
	SkipNoConsensus    SkipReason = "no_consensus"
	SkipRobustnessFail SkipReason = "robustness_fail"
	SkipOddsTooShort   SkipReason = "odds_too_short"
	SkipStakeTooSmall  SkipReason = "stake_too_small"
	SkipExposureCap    SkipReason = "exposure_cap"
	SkipDegenerate     SkipReason = "degenerate_ensemble"
	SkipTimeout        SkipReason = "timeout"
	SkipInputNotFound  SkipReason = "input_not_found"
	SkipNoOdds         SkipReason = "no_odds"
)

// Adjustment records one multiplicative stake adjustment and its source
type Adjustment struct {
	Source     string  `json:"source"`
	Multiplier float64 `json:"multiplier"`
	Note       string  `json:"note,omitempty"`
}

// Decision is the immutable terminal record written per match x market.
// A decision is created once per (match, market, pipeline_run) and never
// mutated; superseding decisions are new records.
type Decision struct {
	ID                   uuid.UUID       `db:"decision_id" json:"decision_id" validate:"required,uuid4"`
	MatchID              string          `db:"match_id" json:"match_id" validate:"required"`
	Market               Market          `db:"market_id" json:"market_id" validate:"required"`
	Tier                 DecisionTier    `db:"tier" json:"tier" validate:"required"`
	SkipReason           SkipReason      `db:"skip_reason" json:"skip_reason,omitempty"`
	StakePct             float64         `db:"stake_pct" json:"stake_pct" validate:"gte=0,lte=5"`
	StakeUnits           decimal.Decimal `db:"stake_units" json:"stake_units"`
	SizingMethod         SizingMethod    `db:"sizing_method" json:"sizing_method"`
	EdgePct              float64         `db:"edge_pct" json:"edge_pct"`
	FairOdds             float64         `db:"fair_odds" json:"fair_odds"`
	MarketOdds           float64         `db:"market_odds" json:"market_odds"`
	Reasons              []string        `json:"reasons,omitempty"`
	Adjustments          []Adjustment    `json:"adjustments,omitempty"`
	BankrollSnapshot     decimal.Decimal `db:"bankroll_snapshot" json:"bankroll_snapshot"`
	PortfolioExposurePct float64         `db:"portfolio_exposure_pct" json:"portfolio_exposure_pct"`
	PipelineRunID        string          `db:"pipeline_run_id" json:"pipeline_run_id" validate:"required"`
	DecidedAt            time.Time       `db:"decided_at" json:"decided_at"`
}

// SkipDecision builds a well-formed SKIP record for a match/market pair
func SkipDecision(matchID string, market Market, runID string, reason SkipReason) *Decision {
	return &Decision{
		ID:            uuid.New(),
		MatchID:       matchID,
		Market:        market,
		Tier:          TierSkip,
		SkipReason:    reason,
		SizingMethod:  SizingQuarterKelly,
		PipelineRunID: runID,
		DecidedAt:     time.Now().UTC(),
		Reasons:       []string{string(reason)},
	}
}

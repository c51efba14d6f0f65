package models

import (
	"encoding/json"
	"time"
)

// TeamProfileRecord is the raw team_profiles row. The quantum_dna JSON
// document is a compatibility view of the legacy nested feature store;
// only the DNA loader parses it, and every consumer downstream reads the
// typed TeamDNA instead.
type TeamProfileRecord struct {
	Key          TeamKey         `db:"team_key" json:"key"`
	Tier         TeamTier        `db:"tier" json:"tier"`
	KeeperStatus KeeperStatus    `db:"keeper_status" json:"keeper_status"`
	DNA          json.RawMessage `db:"quantum_dna" json:"quantum_dna"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// XGAggregateRecord is the per-team current-season aggregate derived
// from match_xg_stats.
type XGAggregateRecord struct {
	XGFor90       float64   `db:"xg_90" json:"xg_90"`
	XGAgainst90   float64   `db:"xga_90" json:"xga_90"`
	Shots90       float64   `db:"shots_90" json:"shots_90"`
	ShotsOnTgt90  float64   `db:"sot_90" json:"sot_90"`
	PossessionPct float64   `db:"possession_pct" json:"possession_pct"`
	CleanSheetPct float64   `db:"cs_pct" json:"cs_pct"`
	BTTSPct       float64   `db:"btts_pct" json:"btts_pct"`
	MatchesPlayed int       `db:"matches_played" json:"matches_played"`
	Wins          int       `db:"wins" json:"wins"`
	Draws         int       `db:"draws" json:"draws"`
	Losses        int       `db:"losses" json:"losses"`
	GoalsFor      int       `db:"goals_for" json:"goals_for"`
	GoalsAgainst  int       `db:"goals_against" json:"goals_against"`
	PPG           float64   `db:"ppg" json:"ppg"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// MarketProfileRecord is one team_market_profiles row: the team's
// historical performance on a single market.
type MarketProfileRecord struct {
	Market       Market    `db:"market_type" json:"market_type"`
	WinRate      float64   `db:"win_rate" json:"win_rate"`
	ROI          float64   `db:"roi" json:"roi"`
	SampleSize   int       `db:"sample_size" json:"sample_size"`
	IsBestMarket bool      `db:"is_best_market" json:"is_best_market"`
	IsAvoidMarket bool     `db:"is_avoid_market" json:"is_avoid_market"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StandingsRecord is the team's current league-table context
type StandingsRecord struct {
	Rank            int            `db:"rank" json:"rank"`
	Points          int            `db:"points" json:"points"`
	PtsToLeader     int            `db:"pts_to_leader" json:"pts_to_leader"`
	PtsToRelegation int            `db:"pts_to_relegation" json:"pts_to_relegation"`
	SeasonPhase     SeasonPhase    `db:"season_phase" json:"season_phase"`
	MotivationZone  MotivationZone `db:"motivation_zone" json:"motivation_zone"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// PredictionFilters narrows list_predictions queries
type PredictionFilters struct {
	MatchID string
	Market  Market
}

// PredictionPatch carries the mutable subset for update_prediction
type PredictionPatch struct {
	Probability     *float64
	ConfidenceScore *float64
	DataQuality     *DataQuality
	WarningFlags    []string
	ExpiresAt       *time.Time
}

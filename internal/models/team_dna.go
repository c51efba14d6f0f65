package models

import (
	"time"
)

// TeamTier classifies overall squad quality
type TeamTier string

const (
	TierElite        TeamTier = "ELITE"
	TierGold         TeamTier = "GOLD"
	TierSilver       TeamTier = "SILVER"
	TierBronze       TeamTier = "BRONZE"
	TierExperimental TeamTier = "EXPERIMENTAL"
)

// MentalityProfile describes a team's psychological archetype
type MentalityProfile string

const (
	MentalityConservative MentalityProfile = "CONSERVATIVE"
	MentalityBalanced     MentalityProfile = "BALANCED"
	MentalityVolatile     MentalityProfile = "VOLATILE"
	MentalityPredator     MentalityProfile = "PREDATOR"
	MentalityFragile      MentalityProfile = "FRAGILE"
)

// TempoProfile describes when in the match a team tends to score
type TempoProfile string

const (
	TempoDiesel      TempoProfile = "DIESEL"
	TempoFastStarter TempoProfile = "FAST_STARTER"
	TempoBalanced    TempoProfile = "BALANCED"
)

// LuckProfile classifies the gap between results and underlying numbers
type LuckProfile string

const (
	LuckLucky   LuckProfile = "LUCKY"
	LuckNeutral LuckProfile = "NEUTRAL"
	LuckUnlucky LuckProfile = "UNLUCKY"
)

// KeeperStatus flags goalkeeper form
type KeeperStatus string

const (
	KeeperLeaky  KeeperStatus = "LEAKY"
	KeeperSteady KeeperStatus = "STEADY"
	KeeperOnFire KeeperStatus = "ON_FIRE"
)

// RosterImpact grades the cost of a missing key player
type RosterImpact string

const (
	ImpactLow      RosterImpact = "LOW"
	ImpactModerate RosterImpact = "MODERATE"
	ImpactHigh     RosterImpact = "HIGH"
	ImpactCritical RosterImpact = "CRITICAL"
)

// ConfidenceTier grades how much the engine trusts a team's data
type ConfidenceTier string

const (
	ConfidenceElite            ConfidenceTier = "ELITE"
	ConfidenceTrusted          ConfidenceTier = "TRUSTED"
	ConfidenceDeveloping       ConfidenceTier = "DEVELOPING"
	ConfidenceInsufficientData ConfidenceTier = "INSUFFICIENT_DATA"
)

// SeasonPhase buckets league progress
type SeasonPhase string

const (
	PhaseEarly SeasonPhase = "EARLY"
	PhaseMid   SeasonPhase = "MID"
	PhaseLate  SeasonPhase = "LATE"
	PhaseFinal SeasonPhase = "FINAL"
)

// MotivationZone buckets table position stakes
type MotivationZone string

const (
	ZoneTitleRace  MotivationZone = "TITLE_RACE"
	ZoneEurope     MotivationZone = "EUROPE"
	ZoneMidTable   MotivationZone = "MID_TABLE"
	ZoneRelegation MotivationZone = "RELEGATION"
)

// TacticalStyle describes the dominant in-possession/out-of-possession shape
type TacticalStyle string

const (
	StyleLowBlock      TacticalStyle = "LOW_BLOCK"
	StyleParkBus       TacticalStyle = "PARK_BUS"
	StyleDefensive     TacticalStyle = "DEFENSIVE"
	StyleCounterAttack TacticalStyle = "COUNTER_ATTACK"
	StylePossession    TacticalStyle = "POSSESSION"
	StyleHighPress     TacticalStyle = "HIGH_PRESS"
	StyleDirect        TacticalStyle = "DIRECT"
)

// TeamKey is the canonical team identifier: normalized name + league + season
type TeamKey struct {
	Name   string `db:"team_name" json:"name" validate:"required"`
	League string `db:"league" json:"league" validate:"required"`
	Season string `db:"season" json:"season" validate:"required"`
}

// ContextVector holds venue-dependent strengths and scoring tendencies
type ContextVector struct {
	HomeStrength  float64 `json:"home_strength" validate:"gte=0,lte=1"`
	AwayStrength  float64 `json:"away_strength" validate:"gte=0,lte=1"`
	BTTSTendency  float64 `json:"btts_tendency" validate:"gte=0,lte=1"`
	GoalsTendency float64 `json:"goals_tendency" validate:"gte=0,lte=1"`
}

// SeasonAggregates holds current-season per-90 aggregates
type SeasonAggregates struct {
	XGFor90       float64 `json:"xg_90" validate:"gte=0,lte=6"`
	XGAgainst90   float64 `json:"xga_90" validate:"gte=0,lte=6"`
	PPG           float64 `json:"ppg" validate:"gte=0,lte=3"`
	MatchesPlayed int     `json:"matches_played" validate:"gte=0"`
	Wins          int     `json:"wins" validate:"gte=0"`
	Draws         int     `json:"draws" validate:"gte=0"`
	Losses        int     `json:"losses" validate:"gte=0"`
	GoalsFor      int     `json:"goals_for" validate:"gte=0"`
	GoalsAgainst  int     `json:"goals_against" validate:"gte=0"`
	CleanSheetPct float64 `json:"cs_pct" validate:"gte=0,lte=100"`
	PossessionPct float64 `json:"possession_pct"`
	BTTSPct       float64 `json:"btts_pct" validate:"gte=0,lte=100"`
	Shots90       float64 `json:"shots_90" validate:"gte=0,lte=35"`
	ShotsOnTgt90  float64 `json:"sot_90" validate:"gte=0,lte=15"`
}

// WinRate returns wins over matches played, 0 when no matches
func (s SeasonAggregates) WinRate() float64 {
	if s.MatchesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.MatchesPlayed)
}

// PsycheVector holds the mentality sub-vector
type PsycheVector struct {
	KillerInstinct    float64          `json:"killer_instinct" validate:"gte=0,lte=2"`
	PanicFactor       float64          `json:"panic_factor" validate:"gte=0,lte=2"`
	ComebackMentality float64          `json:"comeback_mentality" validate:"gte=0,lte=2"`
	LeadProtection    float64          `json:"lead_protection" validate:"gte=0,lte=2"`
	Profile           MentalityProfile `json:"profile"`
}

// TemporalVector holds scoring-timing tendencies
type TemporalVector struct {
	DieselFactor   float64      `json:"diesel_factor" validate:"gte=0,lte=1"`
	FastStarter    float64      `json:"fast_starter" validate:"gte=0,lte=1"`
	FirstHalfXGPct float64      `json:"first_half_xg_pct" validate:"gte=0,lte=1"`
	GoalsByPeriod  []float64    `json:"goals_by_period"`
	Profile        TempoProfile `json:"profile"`
}

// TacticalVector holds shape and style descriptors
type TacticalVector struct {
	Formation         string        `json:"formation"`
	Verticality       float64       `json:"verticality" validate:"gte=0,lte=1"`
	SetPieceThreat    float64       `json:"set_piece_threat" validate:"gte=0,lte=1"`
	PressingIntensity float64       `json:"pressing_intensity" validate:"gte=0,lte=1"`
	Style             TacticalStyle `json:"style"`
}

// RosterVector holds squad-dependency descriptors
type RosterVector struct {
	MVPDependency    float64      `json:"mvp_dependency" validate:"gte=0,lte=1"`
	Top3Dependency   float64      `json:"top3_dependency" validate:"gte=0,lte=1"`
	MVPMissing       bool         `json:"mvp_missing"`
	MVPMissingImpact RosterImpact `json:"mvp_missing_impact"`
}

// MarketVector holds the team's historical per-market edge profile
type MarketVector struct {
	BestStrategy string             `json:"best_strategy"`
	AvgEdge      float64            `json:"avg_edge"`
	ROI          float64            `json:"roi"`
	ErrorRate    float64            `json:"error_rate" validate:"gte=0,lte=100"`
	Pepites      []Market           `json:"pepites"`
	MarketsAvoid []Market           `json:"markets_avoid"`
	MarketsFocus []Market           `json:"markets_focus"`
	OverRates    map[Market]float64 `json:"over_rates"`
	BTTSYesRate  float64            `json:"btts_yes_rate" validate:"gte=0,lte=1"`
}

// HasPepite reports whether m is one of the team's proven nugget markets
func (mv MarketVector) HasPepite(m Market) bool {
	return containsMarket(mv.Pepites, m)
}

// ShouldAvoid reports whether m is on the team's avoid list
func (mv MarketVector) ShouldAvoid(m Market) bool {
	return containsMarket(mv.MarketsAvoid, m)
}

// IsFocus reports whether m is one of the team's focus markets
func (mv MarketVector) IsFocus(m Market) bool {
	return containsMarket(mv.MarketsFocus, m)
}

// BTTS specialist thresholds observed to separate persistent profiles
// from noise over a season sample.
const (
	bttsYesSpecialistRate = 0.65
	bttsNoSpecialistRate  = 0.35
)

// IsBTTSYesSpecialist reports a persistent both-teams-score tendency
func (mv MarketVector) IsBTTSYesSpecialist() bool {
	return mv.BTTSYesRate >= bttsYesSpecialistRate
}

// IsBTTSNoSpecialist reports a persistent clean-game tendency
func (mv MarketVector) IsBTTSNoSpecialist() bool {
	return mv.BTTSYesRate > 0 && mv.BTTSYesRate <= bttsNoSpecialistRate
}

func containsMarket(list []Market, m Market) bool {
	for _, v := range list {
		if v == m {
			return true
		}
	}
	return false
}

// LuckVector holds results-vs-numbers divergence
type LuckVector struct {
	Profile   LuckProfile `json:"profile"`
	TotalLuck float64     `json:"total_luck"`
}

// MetaVector holds reliability grades from meta-labeling
type MetaVector struct {
	ReliabilityByMarket map[Market]float64 `json:"reliability_by_market"`
	GlobalReliability   float64            `json:"global_reliability" validate:"gte=0,lte=1"`
	ConfidenceTier      ConfidenceTier     `json:"confidence_tier"`
}

// StatusVector holds current standings context
type StatusVector struct {
	Rank                  int            `json:"rank" validate:"gte=0"`
	PtsToLeader           int            `json:"pts_to_leader"`
	PtsToRelegation       int            `json:"pts_to_relegation"`
	SeasonPhase           SeasonPhase    `json:"season_phase"`
	MotivationZone        MotivationZone `json:"motivation_zone"`
	ReliabilityMultiplier float64        `json:"reliability_multiplier" validate:"gte=0.8,lte=1.2"`
}

// TeamDNA is the immutable per-team feature bundle assembled by the DNA
// loader. Consumers read typed fields only; the source JSON document is a
// compatibility view and is never navigated directly.
type TeamDNA struct {
	Key          TeamKey          `json:"key" validate:"required"`
	Tier         TeamTier         `json:"tier"`
	KeeperStatus KeeperStatus     `json:"keeper_status"`
	Context      ContextVector    `json:"context"`
	Season       SeasonAggregates `json:"season"`
	Psyche       PsycheVector     `json:"psyche"`
	Temporal     TemporalVector   `json:"temporal"`
	Tactical     TacticalVector   `json:"tactical"`
	Roster       RosterVector     `json:"roster"`
	Market       MarketVector     `json:"market"`
	Luck         LuckVector       `json:"luck"`
	Meta         MetaVector       `json:"meta"`
	Status       StatusVector     `json:"status"`
	LastUpdated  time.Time        `json:"last_updated"`
}

// DaysOld returns the age of the bundle relative to now
func (d *TeamDNA) DaysOld(now time.Time) float64 {
	if d.LastUpdated.IsZero() {
		return -1
	}
	return now.Sub(d.LastUpdated).Hours() / 24
}

// MotivationMultiplier maps the motivation zone and season phase to a
// stake adjustment. High-stakes contexts late in the season earn a small
// bump; dead-rubber mid-table fixtures are taxed.
func (d *TeamDNA) MotivationMultiplier() float64 {
	m := 1.0
	switch d.Status.MotivationZone {
	case ZoneTitleRace, ZoneRelegation:
		m = 1.05
	case ZoneMidTable:
		m = 0.95
	}
	if d.Status.SeasonPhase == PhaseFinal && d.Status.MotivationZone == ZoneMidTable {
		m = 0.90
	}
	return m
}

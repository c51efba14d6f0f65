// Package dna assembles the per-team feature bundle consumed by every
// scoring model. Missing sub-vectors are filled with documented neutral
// defaults so a sparse profile still produces a usable bundle.
package dna

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/pitch-edge/internal/models"
	"github.com/yourusername/pitch-edge/internal/repository"
)

// Neutral defaults applied when a sub-vector is absent from the source
// document. Values sit at the midpoint of each field's observed range.
const (
	defaultDieselFactor   = 0.5
	defaultFastStarter    = 0.5
	defaultFirstHalfXG    = 0.5
	defaultKillerInstinct = 1.0
	defaultPanicFactor    = 1.0
	defaultComeback       = 1.0
	defaultLeadProtection = 1.0
	defaultStrength       = 0.5
	defaultVerticality    = 0.5
	defaultSetPiece       = 0.5
	defaultPressing       = 0.5
	defaultDependency     = 0.5
	defaultReliability    = 0.5
	defaultReliabilityMul = 1.0
	defaultPossession     = 50.0
)

// Loader builds TeamDNA bundles from the store
type Loader struct {
	repo  repository.TeamProfileRepository
	fric  repository.FrictionRepository
	cache *Cache
	log   *logrus.Logger
}

// NewLoader creates a DNA loader. cache may be nil to disable caching.
func NewLoader(repo repository.TeamProfileRepository, fric repository.FrictionRepository, cache *Cache, log *logrus.Logger) *Loader {
	if log == nil {
		log = logrus.New()
	}
	return &Loader{repo: repo, fric: fric, cache: cache, log: log}
}

// LoadTeam assembles the full bundle for one team. It fails with
// models.ErrTeamNotFound only when no team profile exists at all; every
// other missing component degrades to defaults.
func (l *Loader) LoadTeam(ctx context.Context, key models.TeamKey) (*models.TeamDNA, error) {
	profile, err := l.repo.GetProfile(ctx, key)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if cached := l.cache.Get(profile.Key, profile.UpdatedAt); cached != nil {
			return cached, nil
		}
	}

	doc, err := parseDocument(profile.DNA)
	if err != nil {
		return nil, fmt.Errorf("team %q: corrupt dna document: %w", profile.Key.Name, err)
	}

	bundle := l.fromDocument(profile, doc)

	lastUpdated := profile.UpdatedAt

	if xg, err := l.repo.GetXGAggregates(ctx, key); err == nil {
		applyAggregates(&bundle.Season, xg)
		lastUpdated = maxTime(lastUpdated, xg.UpdatedAt)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	if mps, err := l.repo.GetMarketProfiles(ctx, key); err == nil {
		applyMarketProfiles(&bundle.Market, mps)
		for _, mp := range mps {
			lastUpdated = maxTime(lastUpdated, mp.UpdatedAt)
		}
	} else {
		return nil, err
	}

	if st, err := l.repo.GetStandings(ctx, key); err == nil {
		bundle.Status.Rank = st.Rank
		bundle.Status.PtsToLeader = st.PtsToLeader
		bundle.Status.PtsToRelegation = st.PtsToRelegation
		bundle.Status.SeasonPhase = st.SeasonPhase
		bundle.Status.MotivationZone = st.MotivationZone
		lastUpdated = maxTime(lastUpdated, st.UpdatedAt)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	bundle.LastUpdated = lastUpdated

	if l.cache != nil {
		l.cache.Set(profile.Key, profile.UpdatedAt, bundle)
	}
	return bundle, nil
}

// MatchData bundles everything the pipeline needs for one fixture
type MatchData struct {
	Home     *models.TeamDNA
	Away     *models.TeamDNA
	Friction *models.MatchupFriction
}

// LoadMatchData loads both bundles plus the pair friction, substituting
// a neutral friction record when none is precomputed.
func (l *Loader) LoadMatchData(ctx context.Context, home, away models.TeamKey) (*MatchData, error) {
	homeDNA, err := l.LoadTeam(ctx, home)
	if err != nil {
		return nil, fmt.Errorf("home team: %w", err)
	}
	awayDNA, err := l.LoadTeam(ctx, away)
	if err != nil {
		return nil, fmt.Errorf("away team: %w", err)
	}

	friction, err := l.fric.GetMatchupFriction(ctx, home.Name, away.Name)
	if errors.Is(err, models.ErrNotFound) {
		l.log.WithFields(logrus.Fields{
			"home": home.Name,
			"away": away.Name,
		}).Debug("No friction record, substituting neutral")
		friction = models.NeutralFriction(homeDNA.Key.Name, awayDNA.Key.Name)
	} else if err != nil {
		return nil, err
	}

	return &MatchData{Home: homeDNA, Away: awayDNA, Friction: friction}, nil
}

// fromDocument maps the compatibility JSON view onto the typed bundle,
// applying a default for every absent key.
func (l *Loader) fromDocument(profile *models.TeamProfileRecord, doc *dnaDocument) *models.TeamDNA {
	d := &models.TeamDNA{
		Key:          profile.Key,
		Tier:         profile.Tier,
		KeeperStatus: profile.KeeperStatus,
	}
	if d.Tier == "" {
		d.Tier = models.TierExperimental
	}
	if d.KeeperStatus == "" {
		d.KeeperStatus = models.KeeperSteady
	}

	d.Context = models.ContextVector{
		HomeStrength:  defaultStrength,
		AwayStrength:  defaultStrength,
		BTTSTendency:  defaultStrength,
		GoalsTendency: defaultStrength,
	}
	if c := doc.Context; c != nil {
		d.Context.HomeStrength = orDefault(c.HomeStrength, defaultStrength)
		d.Context.AwayStrength = orDefault(c.AwayStrength, defaultStrength)
		d.Context.BTTSTendency = orDefault(c.BTTSTendency, defaultStrength)
		d.Context.GoalsTendency = orDefault(c.GoalsTendency, defaultStrength)
	}

	d.Psyche = models.PsycheVector{
		KillerInstinct:    defaultKillerInstinct,
		PanicFactor:       defaultPanicFactor,
		ComebackMentality: defaultComeback,
		LeadProtection:    defaultLeadProtection,
		Profile:           models.MentalityBalanced,
	}
	if p := doc.Psyche; p != nil {
		d.Psyche.KillerInstinct = orDefault(p.KillerInstinct, defaultKillerInstinct)
		d.Psyche.PanicFactor = orDefault(p.PanicFactor, defaultPanicFactor)
		d.Psyche.ComebackMentality = orDefault(p.ComebackMentality, defaultComeback)
		d.Psyche.LeadProtection = orDefault(p.LeadProtection, defaultLeadProtection)
		if p.Profile != "" {
			d.Psyche.Profile = models.MentalityProfile(p.Profile)
		}
	}

	d.Temporal = models.TemporalVector{
		DieselFactor:   defaultDieselFactor,
		FastStarter:    defaultFastStarter,
		FirstHalfXGPct: defaultFirstHalfXG,
		Profile:        models.TempoBalanced,
	}
	if tv := doc.Temporal; tv != nil {
		d.Temporal.DieselFactor = orDefault(tv.DieselFactor, defaultDieselFactor)
		d.Temporal.FastStarter = orDefault(tv.FastStarter, defaultFastStarter)
		d.Temporal.FirstHalfXGPct = orDefault(tv.FirstHalfXGPct, defaultFirstHalfXG)
		d.Temporal.GoalsByPeriod = tv.GoalsByPeriod
		if tv.Profile != "" {
			d.Temporal.Profile = models.TempoProfile(tv.Profile)
		}
	}

	d.Tactical = models.TacticalVector{
		Verticality:       defaultVerticality,
		SetPieceThreat:    defaultSetPiece,
		PressingIntensity: defaultPressing,
	}
	if tc := doc.Tactical; tc != nil {
		d.Tactical.Formation = tc.Formation
		d.Tactical.Verticality = orDefault(tc.Verticality, defaultVerticality)
		d.Tactical.SetPieceThreat = orDefault(tc.SetPieceThreat, defaultSetPiece)
		d.Tactical.PressingIntensity = orDefault(tc.PressingIntensity, defaultPressing)
		d.Tactical.Style = models.TacticalStyle(tc.Style)
	}

	d.Roster = models.RosterVector{
		MVPDependency:    defaultDependency,
		Top3Dependency:   defaultDependency,
		MVPMissingImpact: models.ImpactLow,
	}
	if rv := doc.Roster; rv != nil {
		d.Roster.MVPDependency = orDefault(rv.MVPDependency, defaultDependency)
		d.Roster.Top3Dependency = orDefault(rv.Top3Dependency, defaultDependency)
		if rv.MVPMissing != nil {
			d.Roster.MVPMissing = *rv.MVPMissing
		}
		if rv.MVPMissingImpact != "" {
			d.Roster.MVPMissingImpact = models.RosterImpact(rv.MVPMissingImpact)
		}
	}

	d.Market = models.MarketVector{OverRates: map[models.Market]float64{}}
	if mv := doc.Market; mv != nil {
		d.Market.BestStrategy = mv.BestStrategy
		d.Market.AvgEdge = orDefault(mv.AvgEdge, 0)
		d.Market.ROI = orDefault(mv.ROI, 0)
		d.Market.ErrorRate = orDefault(mv.ErrorRate, 0)
		d.Market.Pepites = toMarkets(mv.Pepites)
		d.Market.MarketsAvoid = toMarkets(mv.MarketsAvoid)
		d.Market.MarketsFocus = toMarkets(mv.MarketsFocus)
		d.Market.OverRates = toMarketMap(mv.OverRates)
		d.Market.BTTSYesRate = orDefault(mv.BTTSYesRate, 0.5)
	} else {
		d.Market.BTTSYesRate = 0.5
	}

	d.Luck = models.LuckVector{Profile: models.LuckNeutral}
	if lv := doc.Luck; lv != nil {
		if lv.Profile != "" {
			d.Luck.Profile = models.LuckProfile(lv.Profile)
		}
		d.Luck.TotalLuck = orDefault(lv.TotalLuck, 0)
	}

	d.Meta = models.MetaVector{
		ReliabilityByMarket: map[models.Market]float64{},
		GlobalReliability:   defaultReliability,
		ConfidenceTier:      models.ConfidenceInsufficientData,
	}
	if meta := doc.Meta; meta != nil {
		d.Meta.ReliabilityByMarket = toMarketMap(meta.ReliabilityByMarket)
		d.Meta.GlobalReliability = orDefault(meta.GlobalReliability, defaultReliability)
		if meta.ConfidenceTier != "" {
			d.Meta.ConfidenceTier = models.ConfidenceTier(meta.ConfidenceTier)
		}
	}

	d.Status = models.StatusVector{
		SeasonPhase:           models.PhaseMid,
		MotivationZone:        models.ZoneMidTable,
		ReliabilityMultiplier: defaultReliabilityMul,
	}
	if st := doc.Status; st != nil {
		d.Status.ReliabilityMultiplier = orDefault(st.ReliabilityMultiplier, defaultReliabilityMul)
	}

	d.Season.PossessionPct = orDefault(doc.Possession, defaultPossession)
	d.Season.Shots90 = orDefault(doc.Shots90, 0)
	d.Season.ShotsOnTgt90 = orDefault(doc.SOT90, 0)

	return d
}

func applyAggregates(s *models.SeasonAggregates, xg *models.XGAggregateRecord) {
	s.XGFor90 = xg.XGFor90
	s.XGAgainst90 = xg.XGAgainst90
	s.PPG = xg.PPG
	s.MatchesPlayed = xg.MatchesPlayed
	s.Wins = xg.Wins
	s.Draws = xg.Draws
	s.Losses = xg.Losses
	s.GoalsFor = xg.GoalsFor
	s.GoalsAgainst = xg.GoalsAgainst
	s.CleanSheetPct = xg.CleanSheetPct
	s.BTTSPct = xg.BTTSPct
	if xg.Shots90 > 0 {
		s.Shots90 = xg.Shots90
	}
	if xg.ShotsOnTgt90 > 0 {
		s.ShotsOnTgt90 = xg.ShotsOnTgt90
	}
	if xg.PossessionPct > 0 {
		s.PossessionPct = xg.PossessionPct
	}
}

// applyMarketProfiles overlays per-market rows onto the document-sourced
// vector. Explicit rows win over the JSON view.
func applyMarketProfiles(mv *models.MarketVector, rows []*models.MarketProfileRecord) {
	for _, row := range rows {
		if row.IsBestMarket && !mv.IsFocus(row.Market) {
			mv.MarketsFocus = append(mv.MarketsFocus, row.Market)
		}
		if row.IsAvoidMarket && !mv.ShouldAvoid(row.Market) {
			mv.MarketsAvoid = append(mv.MarketsAvoid, row.Market)
		}
		switch row.Market {
		case models.MarketOver15, models.MarketOver25, models.MarketOver35:
			mv.OverRates[row.Market] = row.WinRate
		case models.MarketBTTSYes:
			if row.SampleSize > 0 {
				mv.BTTSYesRate = row.WinRate
			}
		}
	}
}

func maxTime(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

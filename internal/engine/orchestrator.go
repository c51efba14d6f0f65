// Package engine hosts the per-match pipeline: load, validate, score,
// fuse, gate, size, persist. One call, one fixture, one decision batch.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/dna"
	"github.com/yourusername/pitch-edge/internal/ensemble"
	"github.com/yourusername/pitch-edge/internal/logger"
	"github.com/yourusername/pitch-edge/internal/metrics"
	"github.com/yourusername/pitch-edge/internal/models"
	"github.com/yourusername/pitch-edge/internal/notify"
	"github.com/yourusername/pitch-edge/internal/repository"
	"github.com/yourusername/pitch-edge/internal/scoring"
	"github.com/yourusername/pitch-edge/internal/sizing"
	"github.com/yourusername/pitch-edge/internal/validate"
)

// RobustnessValidator is the Monte-Carlo gate seen by the orchestrator
type RobustnessValidator interface {
	Validate(ctx context.Context, in *scoring.Input, votes []*models.ModelVote, original *models.EnsemblePrediction) map[models.Market]ensemble.RobustnessResult
}

// Orchestrator runs the full decision pipeline for one match at a time
type Orchestrator struct {
	cfg    *config.Config
	gw     *repository.Gateway
	loader *dna.Loader
	log    *logrus.Logger
	met    *metrics.Metrics

	dataValidator *validate.DataValidator
	freshness     *validate.FreshnessValidator
	clv           *validate.CLVValidator
	betValidator  *validate.BetValidator

	committee  []scoring.Model
	fusion     *ensemble.Engine
	consensus  *ensemble.ConsensusEngine
	robustness RobustnessValidator
	sizer      *sizing.KellySizer
	notifier   notify.Publisher
}

// SetNotifier attaches an outbound alert publisher. Without one the
// pipeline decides silently.
func (o *Orchestrator) SetNotifier(p notify.Publisher) {
	o.notifier = p
}

// NewOrchestrator wires the pipeline from configuration. met may be nil
// when running without a scrape endpoint.
func NewOrchestrator(cfg *config.Config, gw *repository.Gateway, loader *dna.Loader, log *logrus.Logger, met *metrics.Metrics) *Orchestrator {
	weights := cfg.Models.Weights()
	fusion := ensemble.NewEngine(weights)
	return &Orchestrator{
		cfg:           cfg,
		gw:            gw,
		loader:        loader,
		log:           log,
		met:           met,
		dataValidator: validate.NewDataValidator(cfg.Pipeline.StrictValidation),
		freshness:     validate.NewFreshnessValidator(cfg.Freshness),
		clv:           validate.NewCLVValidator(cfg.CLV),
		betValidator:  validate.NewBetValidator(cfg.Risk),
		committee:     scoring.NewCommittee(cfg.Models),
		fusion:        fusion,
		consensus:     ensemble.NewConsensusEngine(cfg.Consensus, weights),
		robustness:    ensemble.NewMonteCarloValidator(cfg.MonteCarlo, fusion),
		sizer:         sizing.NewKellySizer(cfg.Kelly, cfg.Risk),
	}
}

// AnalyzeMatch runs the pipeline for one fixture. Match-level
// short-circuits return a skip bundle without touching the decision
// store; market-level skips are persisted alongside the bets.
func (o *Orchestrator) AnalyzeMatch(ctx context.Context, req models.MatchRequest) (*MatchDecisionBundle, error) {
	started := time.Now()
	log := logger.ForMatch(o.log, req.MatchID, req.HomeTeam, req.AwayTeam)

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Pipeline.MatchTimeout())
	defer cancel()

	data, err := o.loader.LoadMatchData(ctx, req.HomeKey(), req.AwayKey())
	if err != nil {
		if errors.Is(err, models.ErrTeamNotFound) {
			log.WithError(err).Warn("Team profile missing, skipping match")
			return o.finishSkip(req, "", models.SkipInputNotFound, started), nil
		}
		if ctx.Err() != nil {
			return o.finishSkip(req, "", models.SkipTimeout, started), nil
		}
		return nil, models.NewPipelineError("LOAD_FAILED", models.KindStoreUnavailable, "loading match data", err)
	}

	series, latest, err := o.loadOdds(ctx, req.MatchID)
	if err != nil {
		if ctx.Err() != nil {
			return o.finishSkip(req, "", models.SkipTimeout, started), nil
		}
		return nil, models.NewPipelineError("ODDS_LOAD_FAILED", models.KindStoreUnavailable, "loading odds series", err)
	}
	runID := ComputeRunID(&req, o.cfg.Pipeline.Version, data, latest)

	if len(latest) == 0 {
		log.Warn("No odds for any market, skipping match")
		return o.finishSkip(req, runID, models.SkipNoOdds, started), nil
	}

	homeResult, awayResult, ok := o.dataValidator.ValidateMatch(data.Home, data.Away)
	if !ok {
		log.WithFields(logrus.Fields{
			"home_errors": homeResult.Errors,
			"away_errors": awayResult.Errors,
		}).Warn("Team data failed validation, skipping match")
		return o.finishSkip(req, runID, models.SkipDataInvalid, started), nil
	}

	homeFresh, awayFresh, combinedTier := o.freshness.AssessMatch(data.Home, data.Away)
	if !combinedTier.Usable() {
		log.WithFields(logrus.Fields{
			"home_days_old": homeFresh.DaysOld,
			"away_days_old": awayFresh.DaysOld,
		}).Warn("Team data too stale, skipping match")
		return o.finishSkip(req, runID, models.SkipDataStale, started), nil
	}

	input := &scoring.Input{
		Request:    req,
		Home:       data.Home,
		Away:       data.Away,
		Friction:   data.Friction,
		MarketOdds: snapshotPrices(latest),
		HomeElite:  o.betValidator.IsElite(data.Home.Key),
		AwayElite:  o.betValidator.IsElite(data.Away.Key),
	}

	votes := o.runCommittee(ctx, log, input)
	if ctx.Err() != nil {
		return o.finishSkip(req, runID, models.SkipTimeout, started), nil
	}

	fused, err := o.fusion.Fuse(input, votes, req.Kickoff, time.Now().UTC())
	if err != nil {
		if errors.Is(err, models.ErrDegenerateEnsemble) {
			log.Warn("Degenerate ensemble, skipping match")
			return o.finishSkip(req, runID, models.SkipDegenerate, started), nil
		}
		return nil, err
	}

	mcStarted := time.Now()
	robustness := o.robustness.Validate(ctx, input, votes, fused)
	if o.met != nil {
		o.met.MonteCarloDuration.Observe(time.Since(mcStarted).Seconds())
	}
	if ctx.Err() != nil {
		// The deadline is soft: perturbation already degraded to its
		// sample floor, so the classification stands. Persistence and
		// alerts run on a short grace context instead of discarding the
		// whole match.
		log.WithError(ctx.Err()).Warn("Deadline breached during robustness validation, finishing on degraded samples")
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
	}

	portfolio, err := o.gw.Portfolio.GetPortfolioState(ctx)
	if err != nil {
		return nil, models.NewPipelineError("PORTFOLIO_LOAD_FAILED", models.KindStoreUnavailable, "loading portfolio state", err)
	}

	bundle := &MatchDecisionBundle{
		Request:       req,
		PipelineRunID: runID,
		Ensemble:      fused,
	}
	bundle.Warnings = append(bundle.Warnings, homeResult.Warnings...)
	bundle.Warnings = append(bundle.Warnings, awayResult.Warnings...)

	quality := validate.QualityFor(combinedTier, len(bundle.Warnings))
	for _, pred := range fused.Predictions {
		pred.DataQuality = quality
		pred.WarningFlags = bundle.Warnings
	}

	combinedPenalty := combinedTier.ConfidencePenalty()
	for _, market := range models.AllMarkets() {
		pred, isScored := fused.Predictions[market]
		if !isScored || pred.EdgeVsMarket <= 0 {
			continue
		}
		if _, priced := latest[market]; !priced {
			continue
		}
		pred.ConfidenceScore = clampUnit(pred.ConfidenceScore - combinedPenalty)
		decision := o.decideMarket(marketContext{
			req:        req,
			runID:      runID,
			market:     market,
			pred:       pred,
			votes:      votes,
			data:       data,
			series:     series[market],
			taken:      latest[market],
			robustness: robustness[market],
			freshTier:  combinedTier,
			portfolio:  portfolio,
			log:        log,
		})
		bundle.Decisions = append(bundle.Decisions, decision)
	}

	if err := o.persist(ctx, log, fused, bundle); err != nil {
		return nil, err
	}

	bundle.Elapsed = time.Since(started)
	o.observe(bundle, portfolio)
	o.publishAlerts(ctx, log, bundle)
	log.WithFields(logrus.Fields{
		"decisions": len(bundle.Decisions),
		"bets":      len(bundle.Bets()),
		"elapsed":   bundle.Elapsed.String(),
	}).Info("Match analyzed")
	return bundle, nil
}

type marketContext struct {
	req        models.MatchRequest
	runID      string
	market     models.Market
	pred       *models.MarketPrediction
	votes      []*models.ModelVote
	data       *dna.MatchData
	series     []*models.OddsSnapshot
	taken      *models.OddsSnapshot
	robustness ensemble.RobustnessResult
	freshTier  validate.FreshnessTier
	portfolio  *models.PortfolioState
	log        *logrus.Entry
}

// decideMarket runs the gate chain for one candidate market and always
// returns a decision record, bet or skip.
func (o *Orchestrator) decideMarket(mc marketContext) *models.Decision {
	consensus := o.consensus.Evaluate(mc.votes, mc.market, mc.pred.ImpliedProbability)
	if !consensus.Passed {
		mc.log.WithFields(logrus.Fields{"market": mc.market, "detail": consensus.Detail}).Debug("No consensus")
		return models.SkipDecision(mc.req.MatchID, mc.market, mc.runID, models.SkipNoConsensus)
	}

	if mc.robustness.Class.ShouldSkip() {
		mc.log.WithFields(logrus.Fields{
			"market":       mc.market,
			"success_rate": mc.robustness.SuccessRate,
		}).Debug("Fragile under perturbation")
		return models.SkipDecision(mc.req.MatchID, mc.market, mc.runID, models.SkipRobustnessFail)
	}

	backing := o.backingSide(mc.market, mc.data)
	bet := o.betValidator.Assess(backing, mc.market, mc.taken.Price)
	if bet.HardBlocked {
		return models.SkipDecision(mc.req.MatchID, mc.market, mc.runID, models.SkipOddsTooShort)
	}

	closing := models.ClosingSnapshot(mc.series, mc.req.Kickoff, o.cfg.Odds.SharpBookmakers)
	clv := validate.CLVAssessment{Band: validate.CLVUnknown, Multiplier: 1.00}
	if closing != nil {
		clv = o.clv.Assess(mc.taken.Price, closing.Price)
	}

	adjustments := []models.Adjustment{
		{Source: "consensus", Multiplier: consensus.Multiplier, Note: consensus.Detail},
		{Source: "robustness", Multiplier: mc.robustness.Class.Multiplier(), Note: string(mc.robustness.Class)},
		{Source: "clv", Multiplier: clv.Multiplier, Note: fmt.Sprintf("%s %.1f%%", clv.Band, clv.CLVPct)},
		{Source: "freshness", Multiplier: mc.freshTier.StakeMultiplier(), Note: string(mc.freshTier)},
		{Source: "meta_reliability", Multiplier: backing.Status.ReliabilityMultiplier},
		{Source: "motivation", Multiplier: backing.MotivationMultiplier()},
		{Source: "bet_validator", Multiplier: bet.Multiplier, Note: bet.Summary()},
	}
	multiplier := 1.0
	for _, adj := range adjustments {
		multiplier *= adj.Multiplier
	}

	size := o.sizer.Size(mc.pred.Probability, mc.taken.Price, multiplier, mc.portfolio)
	if size.Skipped {
		d := models.SkipDecision(mc.req.MatchID, mc.market, mc.runID, size.SkipReason)
		d.Adjustments = adjustments
		d.Reasons = append(d.Reasons, size.CapsApplied...)
		return d
	}

	mc.pred.KellyFraction = size.KellyUsed
	return &models.Decision{
		ID:                   mc.pred.ID,
		MatchID:              mc.req.MatchID,
		Market:               mc.market,
		Tier:                 bet.Tier,
		StakePct:             size.StakePct,
		StakeUnits:           size.StakeUnits,
		SizingMethod:         size.Method,
		EdgePct:              mc.pred.EdgeVsMarket,
		FairOdds:             mc.pred.FairOdds,
		MarketOdds:           mc.taken.Price,
		Reasons:              bet.Reasons,
		Adjustments:          adjustments,
		BankrollSnapshot:     mc.portfolio.Bankroll,
		PortfolioExposurePct: mc.portfolio.TotalExposurePct(),
		PipelineRunID:        mc.runID,
		DecidedAt:            time.Now().UTC(),
	}
}

// runCommittee scores all six models in parallel. A model that errors or
// panics abstains; the pipeline never dies on one model.
func (o *Orchestrator) runCommittee(ctx context.Context, log *logrus.Entry, input *scoring.Input) []*models.ModelVote {
	votes := make([]*models.ModelVote, len(o.committee))
	var wg sync.WaitGroup
	for i, model := range o.committee {
		wg.Add(1)
		go func(i int, model scoring.Model) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(logrus.Fields{"model": model.Name(), "panic": r}).Error("Model panicked, abstaining")
					votes[i] = models.Abstention(model.Name())
					o.countModelError(model.Name())
				}
			}()
			vote, err := model.Score(ctx, input)
			if err != nil {
				log.WithError(err).WithField("model", model.Name()).Warn("Model failed, abstaining")
				votes[i] = models.Abstention(model.Name())
				o.countModelError(model.Name())
				return
			}
			votes[i] = vote
		}(i, model)
	}
	wg.Wait()
	return votes
}

// loadOdds reads the full series per market plus the latest snapshot
func (o *Orchestrator) loadOdds(ctx context.Context, matchID string) (map[models.Market][]*models.OddsSnapshot, map[models.Market]*models.OddsSnapshot, error) {
	series := make(map[models.Market][]*models.OddsSnapshot)
	latest := make(map[models.Market]*models.OddsSnapshot)
	for _, market := range models.AllMarkets() {
		s, err := o.gw.Odds.GetOddsSeries(ctx, matchID, market)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return nil, nil, err
		}
		if len(s) == 0 {
			continue
		}
		series[market] = s
		latest[market] = models.LatestSnapshot(s)
	}
	return series, latest, nil
}

// persist writes predictions best-effort and the decision batch
// atomically. Duplicate predictions from a rerun are expected and only
// logged.
func (o *Orchestrator) persist(ctx context.Context, log *logrus.Entry, fused *models.EnsemblePrediction, bundle *MatchDecisionBundle) error {
	for _, d := range bundle.Decisions {
		pred, ok := fused.Predictions[d.Market]
		if !ok {
			continue
		}
		if _, err := o.gw.Predictions.Create(ctx, pred); err != nil {
			if errors.Is(err, models.ErrDuplicateKey) {
				log.WithField("market", d.Market).Debug("Prediction already stored")
				continue
			}
			return models.NewPipelineError("PREDICTION_WRITE_FAILED", models.KindStoreUnavailable, "persisting prediction", err)
		}
	}

	if len(bundle.Decisions) == 0 {
		return nil
	}
	stored, err := o.gw.Decisions.WriteDecisionBatch(ctx, bundle.Decisions)
	if err != nil {
		return models.NewPipelineError("DECISION_WRITE_FAILED", models.KindStoreUnavailable, "persisting decision batch", err)
	}
	bundle.Decisions = stored
	return nil
}

// backingSide picks the team whose profile backs a market. Win-side
// markets belong to their side; shared markets go to whichever side has
// the stronger profile claim, defaulting home.
func (o *Orchestrator) backingSide(market models.Market, data *dna.MatchData) *models.TeamDNA {
	switch market {
	case models.MarketHomeWin, models.MarketDC1X, models.MarketDNBHome:
		return data.Home
	case models.MarketAwayWin, models.MarketDCX2, models.MarketDNBAway:
		return data.Away
	}
	if data.Away.Market.HasPepite(market) && !data.Home.Market.HasPepite(market) {
		return data.Away
	}
	if data.Away.Market.IsFocus(market) && !data.Home.Market.IsFocus(market) && !data.Home.Market.HasPepite(market) {
		return data.Away
	}
	return data.Home
}

func (o *Orchestrator) finishSkip(req models.MatchRequest, runID string, reason models.SkipReason, started time.Time) *MatchDecisionBundle {
	if o.met != nil {
		o.met.MatchesAnalyzed.Inc()
		o.met.SkipsByReason.WithLabelValues(string(reason)).Inc()
		o.met.PipelineDuration.Observe(time.Since(started).Seconds())
	}
	return matchSkip(req, runID, reason, started)
}

func (o *Orchestrator) observe(bundle *MatchDecisionBundle, portfolio *models.PortfolioState) {
	if o.met == nil {
		return
	}
	o.met.MatchesAnalyzed.Inc()
	o.met.PipelineDuration.Observe(bundle.Elapsed.Seconds())
	for _, d := range bundle.Decisions {
		if d.Tier == models.TierSkip {
			o.met.SkipsByReason.WithLabelValues(string(d.SkipReason)).Inc()
		} else {
			o.met.DecisionsWritten.WithLabelValues(string(d.Tier)).Inc()
		}
	}
	bankroll, _ := portfolio.Bankroll.Float64()
	o.met.Bankroll.Set(bankroll)
	o.met.ExposurePct.Set(portfolio.TotalExposurePct())
}

// publishAlerts emits one outbound alert per strong or normal bet.
// Alert failures are logged and never fail the pipeline; the decision is
// already persisted by the time alerts go out.
func (o *Orchestrator) publishAlerts(ctx context.Context, log *logrus.Entry, bundle *MatchDecisionBundle) {
	if o.notifier == nil {
		return
	}
	for _, d := range bundle.Decisions {
		if !notify.ShouldNotify(d) {
			continue
		}
		pred := bundle.Ensemble.Predictions[d.Market]
		if err := o.notifier.Publish(ctx, notify.AlertFromDecision(bundle.Request, d, pred)); err != nil {
			log.WithError(err).WithField("market", d.Market).Warn("Bet alert publish failed")
		}
	}
}

func (o *Orchestrator) countModelError(model string) {
	if o.met != nil {
		o.met.ModelErrors.WithLabelValues(model).Inc()
	}
}

func snapshotPrices(latest map[models.Market]*models.OddsSnapshot) map[models.Market]float64 {
	out := make(map[models.Market]float64, len(latest))
	for market, snap := range latest {
		out[market] = snap.Price
	}
	return out
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

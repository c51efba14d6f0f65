// Package ensemble fuses the model committee's votes into final
// per-market predictions, gates them through consensus, and stress-tests
// them with Monte-Carlo perturbation.
package ensemble

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/pitch-edge/internal/models"
	"github.com/yourusername/pitch-edge/internal/scoring"
)

// Fusion bounds. The 1X2 component clamps keep a fused probability from
// drifting outside what any football match can plausibly price.
const (
	maxTotalEdgeAdj = 0.12
	awayAdjFactor   = 0.7

	homeProbFloor = 0.08
	homeProbCeil  = 0.88
	awayProbFloor = 0.05
	awayProbCeil  = 0.85
	drawProbFloor = 0.12
	drawProbCeil  = 0.38

	ouProbFloor = 0.20
	ouProbCeil  = 0.85
	ouEngineAdjCap = 0.10
	ouAnchorStep   = 0.25

	bttsProbFloor    = 0.25
	bttsProbCeil     = 0.80
	bttsEngineAdjCap = 0.05
	bttsYesSpecBump  = 0.08
	bttsNoSpecDrop   = 0.10

	minActiveVotes = 2
)

// Engine fuses votes per fixture
type Engine struct {
	weights map[string]float64
}

// NewEngine builds a fusion engine over the configured model weights
func NewEngine(weights map[string]float64) *Engine {
	return &Engine{weights: weights}
}

// Fuse combines the committee's votes with market odds and team history
// into an EnsemblePrediction. Fails with ErrDegenerateEnsemble when fewer
// than two models voted.
func (e *Engine) Fuse(in *scoring.Input, votes []*models.ModelVote, kickoff time.Time, now time.Time) (*models.EnsemblePrediction, error) {
	active := activeVotes(votes)
	if len(active) < minActiveVotes {
		return nil, models.ErrDegenerateEnsemble
	}

	out := &models.EnsemblePrediction{
		MatchID:             in.Request.MatchID,
		Method:              models.MethodWeightedMean,
		ModelWeights:        e.weights,
		Predictions:         map[models.Market]*models.MarketPrediction{},
		PredictionVariance:  map[models.Market]float64{},
		ModelAgreementScore: map[models.Market]float64{},
		ComputedAt:          now,
	}

	home1x2, draw1x2, away1x2 := e.fuse1X2(in, active)
	e.emit(out, in, active, models.MarketHomeWin, home1x2, kickoff, now)
	e.emit(out, in, active, models.MarketDraw, draw1x2, kickoff, now)
	e.emit(out, in, active, models.MarketAwayWin, away1x2, kickoff, now)

	for _, market := range []models.Market{models.MarketOver15, models.MarketOver25, models.MarketOver35} {
		over := e.fuseOverUnder(in, active, market)
		under, _ := market.Complement()
		e.emit(out, in, active, market, over, kickoff, now)
		e.emit(out, in, active, under, 1-over, kickoff, now)
	}

	bttsYes := e.fuseBTTS(in, active)
	e.emit(out, in, active, models.MarketBTTSYes, bttsYes, kickoff, now)
	e.emit(out, in, active, models.MarketBTTSNo, 1-bttsYes, kickoff, now)

	// Derived markets come straight from the fused 1X2, never from votes
	e.emit(out, in, active, models.MarketDC1X, home1x2+draw1x2, kickoff, now)
	e.emit(out, in, active, models.MarketDCX2, draw1x2+away1x2, kickoff, now)
	e.emit(out, in, active, models.MarketDC12, home1x2+away1x2, kickoff, now)
	if home1x2+away1x2 > 0 {
		e.emit(out, in, active, models.MarketDNBHome, home1x2/(home1x2+away1x2), kickoff, now)
		e.emit(out, in, active, models.MarketDNBAway, away1x2/(home1x2+away1x2), kickoff, now)
	}

	out.EpistemicUncertainty, out.AleatoricUncertainty = e.uncertainties(out)
	return out, nil
}

// fuse1X2 starts from the de-vigged market line and shifts it by the
// engine's aggregate edge signal.
func (e *Engine) fuse1X2(in *scoring.Input, votes []*models.ModelVote) (home, draw, away float64) {
	home, draw, away = e.baseline1X2(in, votes)

	homeEdge := attackEdge(in.Home, in.Away) - attackEdge(in.Away, in.Home)
	flow := flowDifferential(in)
	coachEdge := tacticalEdge(in)
	varEdge := regressionEdge(in)

	totalEdge := 0.4*homeEdge + 0.25*flow + 0.2*coachEdge + 0.15*varEdge
	adj := clamp(totalEdge, -maxTotalEdgeAdj, maxTotalEdgeAdj)

	home += adj
	away -= awayAdjFactor * adj
	draw = 1 - home - away

	home = clamp(home, homeProbFloor, homeProbCeil)
	away = clamp(away, awayProbFloor, awayProbCeil)
	draw = clamp(draw, drawProbFloor, drawProbCeil)

	total := home + draw + away
	return home / total, draw / total, away / total
}

// baseline1X2 de-vigs the bookmaker line; when the fixture is unpriced
// it falls back to the committee's weighted mean.
func (e *Engine) baseline1X2(in *scoring.Input, votes []*models.ModelVote) (float64, float64, float64) {
	ih := in.ImpliedProbability(models.MarketHomeWin)
	id := in.ImpliedProbability(models.MarketDraw)
	ia := in.ImpliedProbability(models.MarketAwayWin)
	if sum := ih + id + ia; sum > 0 {
		return ih / sum, id / sum, ia / sum
	}

	home := e.weightedMean(votes, models.MarketHomeWin, 0.42)
	away := e.weightedMean(votes, models.MarketAwayWin, 0.30)
	draw := 1 - home - away
	if draw < drawProbFloor {
		draw = drawProbFloor
	}
	total := home + away + draw
	return home / total, draw / total, away / total
}

// fuseOverUnder anchors on the two teams' historical over rates and lets
// the committee move the line by a capped adjustment.
func (e *Engine) fuseOverUnder(in *scoring.Input, votes []*models.ModelVote, market models.Market) float64 {
	base := 0.55*overRate(in.Home, market) + 0.45*overRate(in.Away, market)
	engineAdj := clamp(e.voteDelta(votes, market, base), -ouEngineAdjCap, ouEngineAdjCap)
	return clamp(base+engineAdj, ouProbFloor, ouProbCeil)
}

// overRate reads a team's historical rate for an over line, projecting
// from the 2.5 anchor when the line-specific rate is missing.
func overRate(d *models.TeamDNA, market models.Market) float64 {
	if rate, ok := d.Market.OverRates[market]; ok && rate > 0 {
		return rate
	}
	anchor, ok := d.Market.OverRates[models.MarketOver25]
	if !ok || anchor == 0 {
		if d.Season.BTTSPct > 0 {
			anchor = d.Season.BTTSPct / 100
		} else {
			anchor = 0.50
		}
	}
	switch market.Line() {
	case 1.5:
		return clamp(anchor+ouAnchorStep, 0, 1)
	case 3.5:
		return clamp(anchor-ouAnchorStep, 0, 1)
	default:
		return anchor
	}
}

// fuseBTTS averages the two historical BTTS rates, bumps for specialist
// profiles and lets the committee nudge within a tight cap.
func (e *Engine) fuseBTTS(in *scoring.Input, votes []*models.ModelVote) float64 {
	base := (bttsRate(in.Home) + bttsRate(in.Away)) / 2
	if in.Home.Market.IsBTTSYesSpecialist() || in.Away.Market.IsBTTSYesSpecialist() {
		base += bttsYesSpecBump
	}
	if in.Home.Market.IsBTTSNoSpecialist() || in.Away.Market.IsBTTSNoSpecialist() {
		base -= bttsNoSpecDrop
	}
	engineAdj := clamp(e.voteDelta(votes, models.MarketBTTSYes, base), -bttsEngineAdjCap, bttsEngineAdjCap)
	return clamp(base+engineAdj, bttsProbFloor, bttsProbCeil)
}

func bttsRate(d *models.TeamDNA) float64 {
	if d.Market.BTTSYesRate > 0 {
		return d.Market.BTTSYesRate
	}
	if d.Season.BTTSPct > 0 {
		return d.Season.BTTSPct / 100
	}
	return 0.50
}

// voteDelta is the weighted mean deviation of the committee from a base
// rate, considering only models that voted the market.
func (e *Engine) voteDelta(votes []*models.ModelVote, market models.Market, base float64) float64 {
	var weighted, mass float64
	for _, v := range votes {
		p, ok := v.Probability(market)
		if !ok {
			continue
		}
		w := e.weights[v.ModelName] * v.Confidence
		weighted += w * (p - base)
		mass += w
	}
	if mass == 0 {
		return 0
	}
	return weighted / mass
}

// weightedMean is the confidence-weighted committee mean with a fallback
// for markets nobody voted.
func (e *Engine) weightedMean(votes []*models.ModelVote, market models.Market, fallback float64) float64 {
	var weighted, mass float64
	for _, v := range votes {
		p, ok := v.Probability(market)
		if !ok {
			continue
		}
		w := e.weights[v.ModelName] * v.Confidence
		weighted += w * p
		mass += w
	}
	if mass == 0 {
		return fallback
	}
	return weighted / mass
}

// emit finalizes one market: pricing, edge, dispersion diagnostics
func (e *Engine) emit(out *models.EnsemblePrediction, in *scoring.Input, votes []*models.ModelVote, market models.Market, probability float64, kickoff, now time.Time) {
	probability = clamp(probability, 0.001, 0.999)

	pred := &models.MarketPrediction{
		ID:          uuid.New(),
		MatchID:     in.Request.MatchID,
		Market:      market,
		Probability: probability,
		FairOdds:    1 / probability,
		ComputedAt:  now,
		ExpiresAt:   kickoff,
	}

	if price, ok := in.MarketOdds[market]; ok && price > 1 {
		pred.ImpliedProbability = 1 / price
		pred.EdgeVsMarket = (probability - pred.ImpliedProbability) * 100
		pred.ExpectedValue = probability*(price-1) - (1 - probability)
	}

	var confWeighted, confMass float64
	ps := make([]float64, 0, len(votes))
	for _, v := range votes {
		w := e.weights[v.ModelName]
		if p, ok := v.Probability(market); ok {
			pred.ModelComponents = append(pred.ModelComponents, models.ModelComponent{
				Name:        v.ModelName,
				Probability: p,
				Confidence:  v.Confidence,
				Weight:      w,
			})
			ps = append(ps, p)
			for _, reason := range v.Rationale {
				pred.ContributingFactors = append(pred.ContributingFactors,
					fmt.Sprintf("%s: %s", v.ModelName, reason))
			}
		}
		confWeighted += w * v.Confidence
		confMass += w
	}
	if confMass > 0 {
		pred.ConfidenceScore = confWeighted / confMass
	}

	variance := sampleVariance(ps)
	out.PredictionVariance[market] = variance
	// Variance of probabilities maxes at 0.25; normalize against it
	out.ModelAgreementScore[market] = 1 - math.Min(variance/0.25, 1)
	out.Predictions[market] = pred
}

// uncertainties splits dispersion into disagreement across models
// (epistemic) and closeness of probabilities to the coin-flip region
// (aleatoric), both averaged over primary markets.
func (e *Engine) uncertainties(out *models.EnsemblePrediction) (float64, float64) {
	var epi, alea float64
	var n int
	for _, market := range models.PrimaryMarkets() {
		pred, ok := out.Predictions[market]
		if !ok {
			continue
		}
		epi += 1 - out.ModelAgreementScore[market]
		alea += 1 - math.Abs(pred.Probability-0.5)*2
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return epi / float64(n), alea / float64(n)
}

// Edge sub-signals, all on a roughly [-0.3, 0.3] scale before weighting

func attackEdge(team, opp *models.TeamDNA) float64 {
	return (team.Season.XGFor90 - opp.Season.XGAgainst90) / 6
}

func flowDifferential(in *scoring.Input) float64 {
	h := (in.Home.Tactical.PressingIntensity + in.Home.Tactical.Verticality) / 2
	a := (in.Away.Tactical.PressingIntensity + in.Away.Tactical.Verticality) / 2
	return (h - a) / 3
}

func tacticalEdge(in *scoring.Input) float64 {
	edge := (in.Home.Tactical.SetPieceThreat - in.Away.Tactical.SetPieceThreat) / 4
	// A pressing side against a build-from-the-back side wins the ball high
	if in.Home.Tactical.Style == models.StyleHighPress && in.Away.Tactical.Style == models.StylePossession {
		edge += 0.05
	}
	if in.Away.Tactical.Style == models.StyleHighPress && in.Home.Tactical.Style == models.StylePossession {
		edge -= 0.05
	}
	return edge
}

// regressionEdge backs sides whose results trail their numbers
func regressionEdge(in *scoring.Input) float64 {
	return clamp((in.Away.Luck.TotalLuck-in.Home.Luck.TotalLuck)/10, -0.2, 0.2)
}

func activeVotes(votes []*models.ModelVote) []*models.ModelVote {
	out := make([]*models.ModelVote, 0, len(votes))
	for _, v := range votes {
		if v != nil && v.Confidence > 0 && len(v.Probabilities) > 0 {
			out = append(out, v)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sampleVariance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return ss / float64(len(xs)-1)
}

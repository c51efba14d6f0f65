package ensemble

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/models"
	"github.com/yourusername/pitch-edge/internal/scoring"
)

// RobustnessClass grades how stable a prediction is under input noise
type RobustnessClass string

const (
	RobustnessRockSolid  RobustnessClass = "ROCK_SOLID"
	RobustnessRobust     RobustnessClass = "ROBUST"
	RobustnessUnreliable RobustnessClass = "UNRELIABLE"
	RobustnessFragile    RobustnessClass = "FRAGILE"
)

// ShouldSkip reports whether the class converts the decision to SKIP
func (c RobustnessClass) ShouldSkip() bool {
	return c == RobustnessFragile
}

// Multiplier scales the stake by robustness: solid signals earn a bump,
// shaky ones are taxed, fragile ones never reach sizing.
func (c RobustnessClass) Multiplier() float64 {
	switch c {
	case RobustnessRockSolid:
		return 1.10
	case RobustnessRobust:
		return 1.00
	case RobustnessUnreliable:
		return 0.85
	default:
		return 0
	}
}

// StdDev bounds (in probability percentage points) for the top classes
const (
	rockSolidMaxStdPts = 15.0
	robustMaxStdPts    = 20.0
)

// RobustnessResult is the perturbation verdict for one market
type RobustnessResult struct {
	Market      models.Market   `json:"market"`
	Class       RobustnessClass `json:"class"`
	SuccessRate float64         `json:"success_rate"`
	StdDevPts   float64         `json:"std_dev_pts"`
	Samples     int             `json:"samples"`
}

// MonteCarloValidator re-runs the fusion engine under perturbed inputs
// and measures how often the betting signal survives.
type MonteCarloValidator struct {
	cfg    config.MonteCarloConfig
	engine *Engine

	// seed fixes the noise stream; 0 seeds from the clock
	seed int64
}

func NewMonteCarloValidator(cfg config.MonteCarloConfig, engine *Engine) *MonteCarloValidator {
	return &MonteCarloValidator{cfg: cfg, engine: engine}
}

// Validate perturbs the ensemble inputs cfg.Samples times and grades
// every market of the original prediction that carries a market price.
// The context deadline shrinks the sample count elastically, never below
// cfg.MinSamples.
func (v *MonteCarloValidator) Validate(ctx context.Context, in *scoring.Input, votes []*models.ModelVote, original *models.EnsemblePrediction) map[models.Market]RobustnessResult {
	markets := pricedMarkets(in, original)
	if len(markets) == 0 {
		return map[models.Market]RobustnessResult{}
	}

	workers := v.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > v.cfg.Samples {
		workers = 1
	}

	seed := v.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	perWorker := v.cfg.Samples / workers
	results := make([][]sampleOutcome, workers)

	// The elastic floor counts samples across all workers
	var done atomic.Int64

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		n := perWorker
		if w == 0 {
			n += v.cfg.Samples % workers
		}
		go func(w, n int) {
			defer wg.Done()
			// Per-worker RNG; workers share nothing writable but the counter
			rng := rand.New(rand.NewSource(seed + int64(w)))
			results[w] = v.runSamples(ctx, rng, n, &done, in, votes, markets)
		}(w, n)
	}
	wg.Wait()

	var outcomes []sampleOutcome
	for _, rs := range results {
		outcomes = append(outcomes, rs...)
	}

	return v.grade(in, original, markets, outcomes)
}

// sampleOutcome carries one perturbed run's probabilities per market
type sampleOutcome map[models.Market]float64

func (v *MonteCarloValidator) runSamples(ctx context.Context, rng *rand.Rand, n int, done *atomic.Int64, in *scoring.Input, votes []*models.ModelVote, markets []models.Market) []sampleOutcome {
	outcomes := make([]sampleOutcome, 0, n)
	for i := 0; i < n; i++ {
		if done.Load() >= int64(v.cfg.MinSamples) && ctx.Err() != nil {
			break
		}
		perturbed := v.perturbInput(rng, in)
		pvotes := v.perturbVotes(rng, votes)
		fused, err := v.engine.Fuse(perturbed, pvotes, time.Time{}, time.Time{})
		if err != nil {
			continue
		}
		out := make(sampleOutcome, len(markets))
		for _, market := range markets {
			if pred, ok := fused.Predictions[market]; ok {
				out[market] = pred.Probability
			}
		}
		outcomes = append(outcomes, out)
		done.Add(1)
	}
	return outcomes
}

// perturbInput copies the input with noisy team aggregates and friction
func (v *MonteCarloValidator) perturbInput(rng *rand.Rand, in *scoring.Input) *scoring.Input {
	home := *in.Home
	away := *in.Away
	out := *in
	out.Home = &home
	out.Away = &away

	amp := v.cfg.NoiseAmplitude
	noise := func() float64 { return 1 + (rng.Float64()*2-1)*amp }

	home.Season.XGFor90 *= noise()
	home.Season.XGAgainst90 *= noise()
	home.Season.PPG *= noise()
	away.Season.XGFor90 *= noise()
	away.Season.XGAgainst90 *= noise()
	away.Season.PPG *= noise()

	if in.Friction != nil {
		fric := *in.Friction
		fric.FrictionScore *= noise()
		fric.ChaosPotential *= noise()
		out.Friction = &fric
	}
	return &out
}

// perturbVotes copies the vote set with noisy confidences
func (v *MonteCarloValidator) perturbVotes(rng *rand.Rand, votes []*models.ModelVote) []*models.ModelVote {
	amp := v.cfg.NoiseAmplitude
	out := make([]*models.ModelVote, len(votes))
	for i, vote := range votes {
		if vote == nil || vote.Confidence <= 0 {
			out[i] = vote
			continue
		}
		c := *vote
		c.Confidence = clamp(vote.Confidence*(1+(rng.Float64()*2-1)*amp), 0.01, 1)
		out[i] = &c
	}
	return out
}

// grade computes the success rate and dispersion per market. A sample
// succeeds when the perturbed edge keeps the original edge's sign and
// the perturbed probability still clears the market's implied price.
func (v *MonteCarloValidator) grade(in *scoring.Input, original *models.EnsemblePrediction, markets []models.Market, outcomes []sampleOutcome) map[models.Market]RobustnessResult {
	graded := make(map[models.Market]RobustnessResult, len(markets))

	for _, market := range markets {
		orig := original.Predictions[market]
		implied := orig.ImpliedProbability
		origSign := math.Signbit(orig.EdgeVsMarket)

		var successes int
		ps := make([]float64, 0, len(outcomes))
		for _, out := range outcomes {
			p, ok := out[market]
			if !ok {
				continue
			}
			ps = append(ps, p)
			sameSign := math.Signbit(p-implied) == origSign
			if sameSign && p >= implied {
				successes++
			}
		}

		res := RobustnessResult{Market: market, Samples: len(ps)}
		if len(ps) > 0 {
			res.SuccessRate = float64(successes) / float64(len(ps))
			res.StdDevPts = math.Sqrt(sampleVariance(ps)) * 100
		}
		res.Class = v.classify(res)
		graded[market] = res
	}
	return graded
}

func (v *MonteCarloValidator) classify(r RobustnessResult) RobustnessClass {
	switch {
	case r.SuccessRate >= v.cfg.RockSolidThreshold && r.StdDevPts <= rockSolidMaxStdPts:
		return RobustnessRockSolid
	case r.SuccessRate >= v.cfg.RobustThreshold && r.StdDevPts <= robustMaxStdPts:
		return RobustnessRobust
	case r.SuccessRate >= v.cfg.UnreliableThreshold:
		return RobustnessUnreliable
	default:
		return RobustnessFragile
	}
}

// pricedMarkets keeps markets worth grading: priced, with a fused
// prediction and a positive original edge.
func pricedMarkets(in *scoring.Input, original *models.EnsemblePrediction) []models.Market {
	var out []models.Market
	for _, market := range models.AllMarkets() {
		pred, ok := original.Predictions[market]
		if !ok {
			continue
		}
		if price, priced := in.MarketOdds[market]; !priced || price <= 1 {
			continue
		}
		if pred.EdgeVsMarket <= 0 {
			continue
		}
		out = append(out, market)
	}
	return out
}

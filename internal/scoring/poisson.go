package scoring

import (
	"math"

	"github.com/yourusername/pitch-edge/internal/models"
)

// maxGoals truncates the scoreline grid. Beyond 10 goals a side the
// residual mass is negligible at football scoring rates.
const maxGoals = 10

// poissonPMF returns P(X = k) for X ~ Poisson(lambda)
func poissonPMF(lambda float64, k int) float64 {
	if lambda <= 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	logP := float64(k)*math.Log(lambda) - lambda - logFactorial(k)
	return math.Exp(logP)
}

func logFactorial(k int) float64 {
	var sum float64
	for i := 2; i <= k; i++ {
		sum += math.Log(float64(i))
	}
	return sum
}

// matchGrid is the truncated joint scoreline distribution
type matchGrid [maxGoals + 1][maxGoals + 1]float64

// independentGrid builds the grid under independent Poisson goals
func independentGrid(homeXG, awayXG float64) matchGrid {
	var g matchGrid
	for h := 0; h <= maxGoals; h++ {
		ph := poissonPMF(homeXG, h)
		for a := 0; a <= maxGoals; a++ {
			g[h][a] = ph * poissonPMF(awayXG, a)
		}
	}
	return g
}

// normalize rescales the grid so truncation does not leak mass
func (g *matchGrid) normalize() {
	var total float64
	for h := 0; h <= maxGoals; h++ {
		for a := 0; a <= maxGoals; a++ {
			total += g[h][a]
		}
	}
	if total <= 0 {
		return
	}
	for h := 0; h <= maxGoals; h++ {
		for a := 0; a <= maxGoals; a++ {
			g[h][a] /= total
		}
	}
}

// Probabilities over the closed market set implied by a scoreline grid
func (g *matchGrid) marketProbabilities() map[models.Market]float64 {
	var home, draw, away, bttsYes float64
	overs := map[float64]float64{1.5: 0, 2.5: 0, 3.5: 0}

	for h := 0; h <= maxGoals; h++ {
		for a := 0; a <= maxGoals; a++ {
			p := g[h][a]
			switch {
			case h > a:
				home += p
			case h == a:
				draw += p
			default:
				away += p
			}
			if h > 0 && a > 0 {
				bttsYes += p
			}
			total := float64(h + a)
			for line := range overs {
				if total > line {
					overs[line] += p
				}
			}
		}
	}

	return map[models.Market]float64{
		models.MarketHomeWin: home,
		models.MarketDraw:    draw,
		models.MarketAwayWin: away,
		models.MarketOver15:  overs[1.5],
		models.MarketUnder15: 1 - overs[1.5],
		models.MarketOver25:  overs[2.5],
		models.MarketUnder25: 1 - overs[2.5],
		models.MarketOver35:  overs[3.5],
		models.MarketUnder35: 1 - overs[3.5],
		models.MarketBTTSYes: bttsYes,
		models.MarketBTTSNo:  1 - bttsYes,
	}
}

// poissonMarkets derives the primary market probabilities from expected
// goals under independence.
func poissonMarkets(homeXG, awayXG float64) map[models.Market]float64 {
	g := independentGrid(homeXG, awayXG)
	g.normalize()
	return g.marketProbabilities()
}

// normalizeExclusiveGroups rescales probabilities so each mutually
// exclusive family present in the map sums to one. Partial families are
// left alone: a vote on over_2.5 without under_2.5 stays as voted.
func normalizeExclusiveGroups(probs map[models.Market]float64) {
	normalizeGroup(probs, models.MarketHomeWin, models.MarketDraw, models.MarketAwayWin)
	normalizeGroup(probs, models.MarketOver15, models.MarketUnder15)
	normalizeGroup(probs, models.MarketOver25, models.MarketUnder25)
	normalizeGroup(probs, models.MarketOver35, models.MarketUnder35)
	normalizeGroup(probs, models.MarketBTTSYes, models.MarketBTTSNo)
}

func normalizeGroup(probs map[models.Market]float64, group ...models.Market) {
	var sum float64
	for _, m := range group {
		p, ok := probs[m]
		if !ok {
			return
		}
		sum += p
	}
	if sum <= 0 {
		return
	}
	for _, m := range group {
		probs[m] /= sum
	}
}

func clampProb(p, lo, hi float64) float64 {
	if p < lo {
		return lo
	}
	if p > hi {
		return hi
	}
	return p
}

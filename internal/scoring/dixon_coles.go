package scoring

import (
	"context"
	"fmt"

	"github.com/yourusername/pitch-edge/internal/models"
)

// rho is the Dixon-Coles low-score dependence parameter. Fitted values
// across European leagues sit around -0.10: draws at 0-0 and 1-1 occur
// slightly more often than independent Poisson predicts.
const dixonColesRho = -0.10

// DixonColesModel is the calibrated baseline: independent Poisson goals
// with the Dixon-Coles tau correction on the four low-score cells.
type DixonColesModel struct {
	weight float64
}

func NewDixonColesModel(weight float64) *DixonColesModel {
	return &DixonColesModel{weight: weight}
}

func (m *DixonColesModel) Name() string    { return ModelDixonColes }
func (m *DixonColesModel) Weight() float64 { return m.weight }

func (m *DixonColesModel) Score(_ context.Context, in *Input) (*models.ModelVote, error) {
	homeXG := (in.Home.Season.XGFor90+in.Away.Season.XGAgainst90)/2 + homeAdvantageXG
	awayXG := (in.Away.Season.XGFor90 + in.Home.Season.XGAgainst90) / 2

	g := independentGrid(homeXG, awayXG)
	applyTau(&g, homeXG, awayXG)
	g.normalize()

	probs := g.marketProbabilities()
	normalizeExclusiveGroups(probs)

	return &models.ModelVote{
		ModelName:     ModelDixonColes,
		Probabilities: probs,
		Confidence:    0.65,
		Rationale: []string{
			fmt.Sprintf("baseline rates %.2f-%.2f, rho %.2f", homeXG, awayXG, dixonColesRho),
		},
	}, nil
}

// applyTau rescales the 0-0, 1-0, 0-1 and 1-1 cells per Dixon & Coles
// (1997). All other scorelines keep their independent probability.
func applyTau(g *matchGrid, lambda, mu float64) {
	g[0][0] *= 1 - lambda*mu*dixonColesRho
	g[0][1] *= 1 + lambda*dixonColesRho
	g[1][0] *= 1 + mu*dixonColesRho
	g[1][1] *= 1 - dixonColesRho
}

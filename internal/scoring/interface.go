// Package scoring hosts the independent model committee. Each model
// reads the same immutable input and returns a ModelVote; models never
// see each other's output.
package scoring

import (
	"context"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/models"
)

// Input is the read-only bundle every model scores from
type Input struct {
	Request  models.MatchRequest
	Home     *models.TeamDNA
	Away     *models.TeamDNA
	Friction *models.MatchupFriction

	// MarketOdds carries the latest pre-kickoff decimal price per market.
	// Missing markets are absent keys.
	MarketOdds map[models.Market]float64

	// HomeElite and AwayElite come from the configured elite list
	HomeElite bool
	AwayElite bool
}

// ImpliedProbability returns 1/price for a market, 0 when unpriced
func (in *Input) ImpliedProbability(m models.Market) float64 {
	if price, ok := in.MarketOdds[m]; ok && price > 1 {
		return 1 / price
	}
	return 0
}

// Model is one committee member
type Model interface {
	Name() string
	Weight() float64
	Score(ctx context.Context, in *Input) (*models.ModelVote, error)
}

// Model names are stable identifiers used in votes, config weights and
// persisted model components.
const (
	ModelTeamStrategy = "team_strategy"
	ModelQuantum      = "quantum"
	ModelMatchup      = "matchup"
	ModelDixonColes   = "dixon_coles"
	ModelScenarios    = "scenarios"
	ModelDNAFeatures  = "dna_features"
)

// NewCommittee builds all six models with their configured weights
func NewCommittee(cfg config.ModelsConfig) []Model {
	w := cfg.Weights()
	return []Model{
		NewTeamStrategyModel(w[ModelTeamStrategy]),
		NewQuantumModel(w[ModelQuantum]),
		NewMatchupModel(w[ModelMatchup]),
		NewDixonColesModel(w[ModelDixonColes]),
		NewScenariosModel(w[ModelScenarios]),
		NewDNAFeaturesModel(w[ModelDNAFeatures]),
	}
}

// TotalWeight sums committee weights, used for weighted vote mass
func TotalWeight(committee []Model) float64 {
	var sum float64
	for _, m := range committee {
		sum += m.Weight()
	}
	return sum
}

package scoring

import (
	"context"
	"fmt"

	"github.com/yourusername/pitch-edge/internal/models"
)

// homeAdvantageXG is the flat expected-goals bump for playing at home
const homeAdvantageXG = 0.25

// Keeper form scales the goals the opposition is expected to convert
const (
	leakyKeeperMult  = 1.15
	onFireKeeperMult = 0.85
)

// MatchupModel projects expected goals from both attacks against both
// defenses, folds in keeper form and pair friction, and Poisson-derives
// the primary markets.
type MatchupModel struct {
	weight float64
}

func NewMatchupModel(weight float64) *MatchupModel {
	return &MatchupModel{weight: weight}
}

func (m *MatchupModel) Name() string    { return ModelMatchup }
func (m *MatchupModel) Weight() float64 { return m.weight }

func (m *MatchupModel) Score(_ context.Context, in *Input) (*models.ModelVote, error) {
	homeXG := (in.Home.Season.XGFor90+in.Away.Season.XGAgainst90)/2 + homeAdvantageXG
	awayXG := (in.Away.Season.XGFor90 + in.Home.Season.XGAgainst90) / 2

	// Keeper form on the defending side moves the attacking side's rate
	homeXG *= keeperMultiplier(in.Away.KeeperStatus)
	awayXG *= keeperMultiplier(in.Home.KeeperStatus)

	// High-chaos pairs historically produce more goals than the season
	// rates suggest; low-friction pairs fewer.
	if in.Friction != nil {
		chaosAdj := 1 + (in.Friction.ChaosPotential-50)/500
		homeXG *= chaosAdj
		awayXG *= chaosAdj
	}

	probs := poissonMarkets(homeXG, awayXG)
	normalizeExclusiveGroups(probs)

	conf := 0.60
	if in.Home.Season.MatchesPlayed < 6 || in.Away.Season.MatchesPlayed < 6 {
		conf = 0.40
	}

	return &models.ModelVote{
		ModelName:     ModelMatchup,
		Probabilities: probs,
		Confidence:    conf,
		Rationale: []string{
			fmt.Sprintf("expected goals %.2f-%.2f", homeXG, awayXG),
		},
	}, nil
}

func keeperMultiplier(ks models.KeeperStatus) float64 {
	switch ks {
	case models.KeeperLeaky:
		return leakyKeeperMult
	case models.KeeperOnFire:
		return onFireKeeperMult
	default:
		return 1.0
	}
}

package scoring

import (
	"context"
	"fmt"

	"github.com/yourusername/pitch-edge/internal/models"
)

// pepiteFloor is the minimum probability emitted on a proven nugget
// market regardless of what the season rate says.
const pepiteFloor = 0.55

// TeamStrategyModel votes from each team's historical per-market profile:
// strong votes on pepite markets, moderate votes on focus markets, and
// hard abstention on anything either side's avoid list names.
type TeamStrategyModel struct {
	weight float64
}

func NewTeamStrategyModel(weight float64) *TeamStrategyModel {
	return &TeamStrategyModel{weight: weight}
}

func (m *TeamStrategyModel) Name() string    { return ModelTeamStrategy }
func (m *TeamStrategyModel) Weight() float64 { return m.weight }

func (m *TeamStrategyModel) Score(_ context.Context, in *Input) (*models.ModelVote, error) {
	probs := map[models.Market]float64{}
	var rationale []string

	for _, side := range []struct {
		dna    *models.TeamDNA
		winMkt models.Market
		label  string
	}{
		{in.Home, models.MarketHomeWin, "home"},
		{in.Away, models.MarketAwayWin, "away"},
	} {
		mv := side.dna.Market
		for _, market := range mv.Pepites {
			if !m.claimable(market, side.winMkt) {
				continue
			}
			p := m.historicalRate(side.dna, market)
			if p < pepiteFloor {
				p = pepiteFloor
			}
			if existing, ok := probs[market]; !ok || p > existing {
				probs[market] = p
				rationale = append(rationale, fmt.Sprintf("%s pepite %s at %.2f", side.label, market, p))
			}
		}
		for _, market := range mv.MarketsFocus {
			if !m.claimable(market, side.winMkt) {
				continue
			}
			if _, ok := probs[market]; ok {
				continue
			}
			if p := m.historicalRate(side.dna, market); p > 0 {
				probs[market] = p
				rationale = append(rationale, fmt.Sprintf("%s focus %s at %.2f", side.label, market, p))
			}
		}
	}

	// Avoid lists veto after the fact so a pepite on one side never
	// survives an avoid flag on the other.
	for _, mv := range []models.MarketVector{in.Home.Market, in.Away.Market} {
		for _, market := range mv.MarketsAvoid {
			if _, ok := probs[market]; ok {
				delete(probs, market)
				rationale = append(rationale, fmt.Sprintf("avoid list veto on %s", market))
			}
		}
	}

	if len(probs) == 0 {
		return models.Abstention(ModelTeamStrategy), nil
	}

	// Both sides can claim opposite ends of the same family, e.g. a home
	// pepite on over_2.5 against an away pepite on under_2.5. Rescale any
	// complete family so the vote never carries more than one unit of mass.
	normalizeExclusiveGroups(probs)

	conf := (in.Home.Meta.GlobalReliability + in.Away.Meta.GlobalReliability) / 2
	if conf <= 0 {
		conf = 0.5
	}

	return &models.ModelVote{
		ModelName:     ModelTeamStrategy,
		Probabilities: probs,
		Confidence:    conf,
		Rationale:     rationale,
	}, nil
}

// claimable filters a team's profile markets to ones it can legitimately
// back from its own side of the fixture. Totals and BTTS are shared;
// win markets belong to the matching side only.
func (m *TeamStrategyModel) claimable(market, ownWin models.Market) bool {
	switch market {
	case models.MarketHomeWin, models.MarketAwayWin:
		return market == ownWin
	case models.MarketDraw:
		return false
	}
	return !market.IsDerived()
}

// historicalRate reads the team's profile rate for a market, 0 if unknown
func (m *TeamStrategyModel) historicalRate(d *models.TeamDNA, market models.Market) float64 {
	mv := d.Market
	switch market {
	case models.MarketBTTSYes:
		return mv.BTTSYesRate
	case models.MarketBTTSNo:
		if mv.BTTSYesRate > 0 {
			return 1 - mv.BTTSYesRate
		}
		return 0
	case models.MarketHomeWin, models.MarketAwayWin:
		return d.Season.WinRate()
	}
	if rate, ok := mv.OverRates[market]; ok {
		return rate
	}
	// Under lines read as the complement of the matching over line
	if comp, ok := market.Complement(); ok {
		if rate, ok := mv.OverRates[comp]; ok {
			return 1 - rate
		}
	}
	return 0
}

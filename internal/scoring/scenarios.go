package scoring

import (
	"context"
	"math"

	"github.com/yourusername/pitch-edge/internal/models"
)

// scenario is one labeled archetype. When its predicate matches the
// fixture it contributes market probabilities; unmatched scenarios are
// silent.
type scenario struct {
	label   string
	matches func(in *Input) bool
	probs   func(in *Input) map[models.Market]float64
}

// ScenariosModel votes only on fixtures that fit a known archetype and
// abstains on everything else. The catalogue is deliberately small: a
// scenario earns its place with a stable historical signature, not by
// covering the fixture list.
type ScenariosModel struct {
	weight    float64
	catalogue []scenario
}

func NewScenariosModel(weight float64) *ScenariosModel {
	return &ScenariosModel{weight: weight, catalogue: buildCatalogue()}
}

func (m *ScenariosModel) Name() string    { return ModelScenarios }
func (m *ScenariosModel) Weight() float64 { return m.weight }

func (m *ScenariosModel) Score(_ context.Context, in *Input) (*models.ModelVote, error) {
	merged := map[models.Market][]float64{}
	var labels []string

	for _, sc := range m.catalogue {
		if !sc.matches(in) {
			continue
		}
		labels = append(labels, sc.label)
		for market, p := range sc.probs(in) {
			merged[market] = append(merged[market], p)
		}
	}

	if len(labels) == 0 {
		return models.Abstention(ModelScenarios), nil
	}

	probs := make(map[models.Market]float64, len(merged))
	for market, ps := range merged {
		var sum float64
		for _, p := range ps {
			sum += p
		}
		probs[market] = sum / float64(len(ps))
	}
	normalizeExclusiveGroups(probs)

	conf := math.Min(0.50+0.10*float64(len(labels)), 0.80)

	return &models.ModelVote{
		ModelName:     ModelScenarios,
		Probabilities: probs,
		Confidence:    conf,
		Rationale:     labels,
	}, nil
}

func buildCatalogue() []scenario {
	return []scenario{
		{
			label: "elite home vs relegation away",
			matches: func(in *Input) bool {
				return in.Home.Tier == models.TierElite &&
					in.Away.Status.MotivationZone == models.ZoneRelegation
			},
			probs: func(in *Input) map[models.Market]float64 {
				return map[models.Market]float64{
					models.MarketHomeWin: 0.68,
					models.MarketDraw:    0.18,
					models.MarketAwayWin: 0.14,
					models.MarketOver25:  0.60,
				}
			},
		},
		{
			label: "relegation home vs elite away",
			matches: func(in *Input) bool {
				return in.Away.Tier == models.TierElite &&
					in.Home.Status.MotivationZone == models.ZoneRelegation
			},
			probs: func(in *Input) map[models.Market]float64 {
				return map[models.Market]float64{
					models.MarketHomeWin: 0.18,
					models.MarketDraw:    0.22,
					models.MarketAwayWin: 0.60,
				}
			},
		},
		{
			label: "both unlucky with leaky keepers",
			matches: func(in *Input) bool {
				return in.Home.Luck.Profile == models.LuckUnlucky &&
					in.Away.Luck.Profile == models.LuckUnlucky &&
					in.Home.KeeperStatus == models.KeeperLeaky &&
					in.Away.KeeperStatus == models.KeeperLeaky
			},
			probs: func(in *Input) map[models.Market]float64 {
				return map[models.Market]float64{
					models.MarketOver25:  0.72,
					models.MarketBTTSYes: 0.70,
				}
			},
		},
		{
			label: "two park-bus sides",
			matches: func(in *Input) bool {
				return lowPossessionStyle(in.Home.Tactical.Style) &&
					lowPossessionStyle(in.Away.Tactical.Style)
			},
			probs: func(in *Input) map[models.Market]float64 {
				return map[models.Market]float64{
					models.MarketUnder25: 0.66,
					models.MarketBTTSNo:  0.60,
				}
			},
		},
		{
			label: "diesel derby",
			matches: func(in *Input) bool {
				return in.Home.Temporal.DieselFactor > 0.60 &&
					in.Away.Temporal.DieselFactor > 0.60
			},
			probs: func(in *Input) map[models.Market]float64 {
				return map[models.Market]float64{
					models.MarketOver15: 0.82,
					models.MarketOver25: 0.58,
				}
			},
		},
		{
			label: "title race vs dead rubber",
			matches: func(in *Input) bool {
				return in.Home.Status.MotivationZone == models.ZoneTitleRace &&
					in.Away.Status.MotivationZone == models.ZoneMidTable &&
					in.Away.Status.SeasonPhase == models.PhaseFinal
			},
			probs: func(in *Input) map[models.Market]float64 {
				return map[models.Market]float64{
					models.MarketHomeWin: 0.62,
				}
			},
		},
		{
			label: "fragile favourite under pressure",
			matches: func(in *Input) bool {
				return in.Home.Psyche.Profile == models.MentalityFragile &&
					in.Home.Tier == models.TierElite &&
					in.Home.Status.MotivationZone == models.ZoneTitleRace
			},
			probs: func(in *Input) map[models.Market]float64 {
				return map[models.Market]float64{
					models.MarketHomeWin: 0.44,
					models.MarketDraw:    0.28,
					models.MarketAwayWin: 0.28,
				}
			},
		},
		{
			label: "predator vs panic",
			matches: func(in *Input) bool {
				return in.Home.Psyche.Profile == models.MentalityPredator &&
					in.Away.Psyche.PanicFactor > 1.3
			},
			probs: func(in *Input) map[models.Market]float64 {
				return map[models.Market]float64{
					models.MarketHomeWin: 0.58,
					models.MarketOver25:  0.56,
				}
			},
		},
		{
			label: "high press vs leaky keeper",
			matches: func(in *Input) bool {
				return in.Home.Tactical.Style == models.StyleHighPress &&
					in.Home.Tactical.PressingIntensity > 0.7 &&
					in.Away.KeeperStatus == models.KeeperLeaky
			},
			probs: func(in *Input) map[models.Market]float64 {
				return map[models.Market]float64{
					models.MarketHomeWin: 0.55,
					models.MarketBTTSYes: 0.58,
				}
			},
		},
		{
			label: "mvp missing on dependent side",
			matches: func(in *Input) bool {
				return in.Home.Roster.MVPMissing &&
					in.Home.Roster.MVPDependency > 0.6 &&
					(in.Home.Roster.MVPMissingImpact == models.ImpactHigh ||
						in.Home.Roster.MVPMissingImpact == models.ImpactCritical)
			},
			probs: func(in *Input) map[models.Market]float64 {
				return map[models.Market]float64{
					models.MarketHomeWin: 0.30,
					models.MarketDraw:    0.30,
					models.MarketAwayWin: 0.40,
				}
			},
		},
		{
			label: "chaos pair",
			matches: func(in *Input) bool {
				return in.Friction != nil && in.Friction.ChaosPotential >= 75
			},
			probs: func(in *Input) map[models.Market]float64 {
				p := in.Friction.PredictedOver25
				if p == 0 {
					p = 0.62
				}
				return map[models.Market]float64{
					models.MarketOver25:  p,
					models.MarketBTTSYes: 0.62,
				}
			},
		},
		{
			label: "h2h goal fest",
			matches: func(in *Input) bool {
				return in.Friction != nil &&
					in.Friction.H2HMatches >= 4 &&
					in.Friction.H2HAvgGoals >= 3.2
			},
			probs: func(in *Input) map[models.Market]float64 {
				return map[models.Market]float64{
					models.MarketOver25: 0.64,
					models.MarketOver15: 0.86,
				}
			},
		},
		{
			label: "two on-fire keepers",
			matches: func(in *Input) bool {
				return in.Home.KeeperStatus == models.KeeperOnFire &&
					in.Away.KeeperStatus == models.KeeperOnFire
			},
			probs: func(in *Input) map[models.Market]float64 {
				return map[models.Market]float64{
					models.MarketUnder25: 0.62,
					models.MarketBTTSNo:  0.58,
				}
			},
		},
		{
			label: "fast starter vs diesel",
			matches: func(in *Input) bool {
				return in.Home.Temporal.FastStarter > 0.65 &&
					in.Away.Temporal.DieselFactor > 0.65
			},
			probs: func(in *Input) map[models.Market]float64 {
				return map[models.Market]float64{
					models.MarketOver15:  0.80,
					models.MarketBTTSYes: 0.56,
				}
			},
		},
	}
}

func lowPossessionStyle(style models.TacticalStyle) bool {
	switch style {
	case models.StyleLowBlock, models.StyleParkBus, models.StyleDefensive, models.StyleCounterAttack:
		return true
	}
	return false
}

package scoring

import (
	"context"
	"fmt"

	"github.com/yourusername/pitch-edge/internal/models"
)

// DNAFeaturesModel projects the raw DNA vectors onto per-market
// tendencies through a small rule set. It never builds a full match
// model; it nudges a neutral prior wherever a vector says something
// market-relevant.
type DNAFeaturesModel struct {
	weight float64
}

func NewDNAFeaturesModel(weight float64) *DNAFeaturesModel {
	return &DNAFeaturesModel{weight: weight}
}

func (m *DNAFeaturesModel) Name() string    { return ModelDNAFeatures }
func (m *DNAFeaturesModel) Weight() float64 { return m.weight }

func (m *DNAFeaturesModel) Score(_ context.Context, in *Input) (*models.ModelVote, error) {
	probs := map[models.Market]float64{}
	var rationale []string

	// Late scorers drag totals up: a match with a strong diesel side
	// stays live deep into the second half.
	dieselEdge := 0.0
	for _, d := range []*models.TeamDNA{in.Home, in.Away} {
		if d.Temporal.DieselFactor > 0.55 {
			dieselEdge += (d.Temporal.DieselFactor - 0.55) * 0.4
		}
	}
	goalsTendency := (in.Home.Context.GoalsTendency + in.Away.Context.GoalsTendency) / 2
	if dieselEdge > 0 || goalsTendency > 0.60 {
		over := clampProb(0.50+dieselEdge+(goalsTendency-0.50)*0.3, 0.35, 0.75)
		probs[models.MarketOver25] = over
		probs[models.MarketUnder25] = 1 - over
		if dieselEdge > 0 {
			rationale = append(rationale, fmt.Sprintf("diesel edge %.2f on totals", dieselEdge))
		}
	}

	bttsTendency := (in.Home.Context.BTTSTendency + in.Away.Context.BTTSTendency) / 2
	if bttsTendency > 0 {
		yes := clampProb(bttsTendency, 0.30, 0.75)
		probs[models.MarketBTTSYes] = yes
		probs[models.MarketBTTSNo] = 1 - yes
	}

	// Directional nudges on the win markets
	homeNudge := sideNudge(in.Home)
	awayNudge := sideNudge(in.Away)
	if homeNudge != 0 || awayNudge != 0 {
		base := 0.40 + 0.10*(in.Home.Context.HomeStrength-in.Away.Context.AwayStrength)
		home := clampProb(base+homeNudge-awayNudge, 0.15, 0.70)
		away := clampProb(1-home-0.26, 0.10, 0.65)
		probs[models.MarketHomeWin] = home
		probs[models.MarketAwayWin] = away
		probs[models.MarketDraw] = 1 - home - away
		if homeNudge > 0 {
			rationale = append(rationale, fmt.Sprintf("home value nudge +%.2f", homeNudge))
		}
		if awayNudge > 0 {
			rationale = append(rationale, fmt.Sprintf("away value nudge +%.2f", awayNudge))
		}
	}

	if len(probs) == 0 {
		return models.Abstention(ModelDNAFeatures), nil
	}
	normalizeExclusiveGroups(probs)

	return &models.ModelVote{
		ModelName:     ModelDNAFeatures,
		Probabilities: probs,
		Confidence:    0.55,
		Rationale:     rationale,
	}, nil
}

// sideNudge scores one team's buy signals from its psyche, luck and ROI
// vectors.
func sideNudge(d *models.TeamDNA) float64 {
	var n float64
	if ki := d.Psyche.KillerInstinct; ki >= 0.7 && ki <= 1.0 {
		n += 0.05
	}
	if d.Luck.Profile == models.LuckUnlucky && d.Market.ROI > 0 {
		n += 0.06
	}
	if d.Psyche.Profile == models.MentalityFragile {
		n -= 0.05
	}
	return n
}

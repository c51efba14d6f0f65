package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/yourusername/pitch-edge/internal/models"
)

// Sub-score weights of the composite value score. Proven results carry
// the most, the public-team tax corrects for prices inflated by casual
// money on famous names.
const (
	wProvenValue = 0.35
	wKeeper      = 0.15
	wStability   = 0.15
	wLuck        = 0.10
	wTierValue   = 0.15
	wPublicTax   = 0.10

	luckCap = 1.5
)

// QuantumModel prices each side on a composite z-score and votes the
// 1X2 family from the score gap.
type QuantumModel struct {
	weight float64
}

func NewQuantumModel(weight float64) *QuantumModel {
	return &QuantumModel{weight: weight}
}

func (m *QuantumModel) Name() string    { return ModelQuantum }
func (m *QuantumModel) Weight() float64 { return m.weight }

func (m *QuantumModel) Score(_ context.Context, in *Input) (*models.ModelVote, error) {
	homeScore := m.compositeScore(in.Home, in.HomeElite)
	awayScore := m.compositeScore(in.Away, in.AwayElite)

	// Sigmoid on the gap; slope tuned so a full-point composite gap is a
	// decisive but not saturated favourite.
	gap := homeScore - awayScore
	pHomeRaw := 1 / (1 + math.Exp(-1.1*gap))

	// Reserve draw mass by how close the sides are
	drawP := 0.30 - 0.12*math.Min(math.Abs(gap), 1.5)
	homeP := pHomeRaw * (1 - drawP)
	awayP := (1 - pHomeRaw) * (1 - drawP)

	probs := map[models.Market]float64{
		models.MarketHomeWin: homeP,
		models.MarketDraw:    drawP,
		models.MarketAwayWin: awayP,
	}
	normalizeExclusiveGroups(probs)

	verdict := m.verdict(gap)
	conf := math.Min(0.45+0.25*math.Abs(gap), 0.90)

	return &models.ModelVote{
		ModelName:     ModelQuantum,
		Probabilities: probs,
		Confidence:    conf,
		Rationale: []string{
			fmt.Sprintf("home composite %.2f, away composite %.2f", homeScore, awayScore),
			fmt.Sprintf("verdict %s", verdict),
		},
	}, nil
}

// compositeScore is the weighted sum of the six sub-scores, roughly on a
// [-2, 2] scale.
func (m *QuantumModel) compositeScore(d *models.TeamDNA, elite bool) float64 {
	return wProvenValue*provenValueScore(d.Season.WinRate()) +
		wKeeper*keeperScore(d.KeeperStatus) +
		wStability*stabilityScore(d.Psyche.Profile) +
		wLuck*luckScore(d.Luck) +
		wTierValue*tierScore(d.Tier) -
		wPublicTax*publicTax(d.Tier, elite)
}

// provenValueScore buckets season win rate into value tiers
func provenValueScore(wr float64) float64 {
	switch {
	case wr >= 0.90:
		return 2.0
	case wr >= 0.80:
		return 1.5
	case wr >= 0.70:
		return 1.0
	case wr >= 0.60:
		return 0.5
	case wr >= 0.50:
		return 0.0
	default:
		return -1.0
	}
}

func keeperScore(ks models.KeeperStatus) float64 {
	switch ks {
	case models.KeeperOnFire:
		return 1.0
	case models.KeeperLeaky:
		return -1.0
	default:
		return 0
	}
}

func stabilityScore(p models.MentalityProfile) float64 {
	switch p {
	case models.MentalityPredator:
		return 1.0
	case models.MentalityBalanced:
		return 0.5
	case models.MentalityConservative:
		return 0.2
	case models.MentalityVolatile:
		return -0.5
	case models.MentalityFragile:
		return -1.0
	default:
		return 0
	}
}

// luckScore rewards unlucky teams whose numbers outrun their results,
// capped so one freak run cannot dominate the composite.
func luckScore(l models.LuckVector) float64 {
	adj := -l.TotalLuck
	if adj > luckCap {
		adj = luckCap
	}
	if adj < -luckCap {
		adj = -luckCap
	}
	return adj
}

func tierScore(t models.TeamTier) float64 {
	switch t {
	case models.TierElite:
		return 1.0
	case models.TierGold:
		return 0.5
	case models.TierSilver:
		return 0
	case models.TierBronze:
		return -0.5
	default:
		return -0.2
	}
}

// publicTax shaves value from famous teams whose prices carry casual
// money. Applied only to elite-list sides.
func publicTax(t models.TeamTier, elite bool) float64 {
	if !elite {
		return 0
	}
	if t == models.TierElite || t == models.TierGold {
		return 1.0
	}
	return 0.5
}

// verdict maps the composite gap to a directional call on the home side
func (m *QuantumModel) verdict(gap float64) models.Verdict {
	switch {
	case gap >= 1.0:
		return models.VerdictStrongBuy
	case gap >= 0.4:
		return models.VerdictBuy
	case gap <= -1.0:
		return models.VerdictStrongSell
	case gap <= -0.4:
		return models.VerdictSell
	default:
		return models.VerdictHold
	}
}

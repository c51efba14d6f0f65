package validate

import (
	"fmt"
	"strings"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/models"
	"github.com/yourusername/pitch-edge/internal/normalize"
)

// Bet validator bounds. The hard block at minPlayableOdds is the only
// non-negotiable rule: below it the quarter-Kelly stake floor cannot be
// cleared at any realistic probability.
const (
	minPlayableOdds = 1.20

	minBetMultiplier = 0.20
	maxBetMultiplier = 1.50

	strongTierMultiplier = 1.20
	normalTierMultiplier = 0.80

	sweetSpotOddsLow  = 1.60
	sweetSpotOddsHigh = 2.00
	shortOddsCutoff   = 1.50
	longOddsCutoff    = 3.50

	highErrorRatePct = 40.0
)

// BetAssessment is the adaptive-sizing verdict for one market
type BetAssessment struct {
	Tier        models.DecisionTier `json:"tier"`
	Multiplier  float64             `json:"multiplier"`
	ConfDelta   float64             `json:"confidence_delta"`
	Reasons     []string            `json:"reasons"`
	HardBlocked bool                `json:"hard_blocked"`
}

// BetValidator applies the additive adjustment table to a candidate bet
type BetValidator struct {
	elite map[string]bool
}

// NewBetValidator builds a validator; elite team names are normalized so
// config spelling does not have to match source spelling.
func NewBetValidator(cfg config.RiskConfig) *BetValidator {
	elite := make(map[string]bool, len(cfg.EliteTeams))
	for _, name := range cfg.EliteTeams {
		elite[normalize.TeamName(name)] = true
	}
	return &BetValidator{elite: elite}
}

// IsElite reports whether a team is on the configured elite list
func (v *BetValidator) IsElite(key models.TeamKey) bool {
	return v.elite[key.Name]
}

// Assess runs the adjustment table for one (team, market, odds) candidate.
// team is the side whose profile backs the bet.
func (v *BetValidator) Assess(team *models.TeamDNA, market models.Market, odds float64) BetAssessment {
	if odds < minPlayableOdds {
		return BetAssessment{
			Tier:        models.TierSkip,
			Multiplier:  0,
			Reasons:     []string{fmt.Sprintf("odds %.2f below playable floor %.2f", odds, minPlayableOdds)},
			HardBlocked: true,
		}
	}

	mult := 1.00
	confDelta := 0.0
	var reasons []string

	apply := func(dm, dc float64, reason string) {
		mult += dm
		confDelta += dc
		reasons = append(reasons, reason)
	}

	if team.Market.IsFocus(market) {
		apply(+0.20, +20, fmt.Sprintf("focus market %s +20%%", market))
	}
	if team.Market.HasPepite(market) {
		apply(+0.25, +25, fmt.Sprintf("pepite %s +25%%", market))
	}
	if odds >= sweetSpotOddsLow && odds <= sweetSpotOddsHigh {
		apply(+0.10, +10, "odds sweet spot +10%")
	}
	if team.Market.ShouldAvoid(market) {
		apply(-0.30, -20, fmt.Sprintf("avoid market %s -30%%", market))
	}
	if team.Market.ErrorRate > highErrorRatePct {
		apply(-0.30, -15, fmt.Sprintf("error rate %.0f%% -30%%", team.Market.ErrorRate))
	}

	// Elite favourites at short prices are the market's best-priced
	// product; the two short-odds rules never stack.
	switch {
	case v.IsElite(team.Key) && odds < shortOddsCutoff:
		apply(-0.50, -25, "ELITE -50%")
	case odds < shortOddsCutoff:
		apply(-0.40, -20, "short odds -40%")
	case odds > longOddsCutoff:
		apply(-0.20, -10, "long odds -20%")
	}

	if mult < minBetMultiplier {
		mult = minBetMultiplier
	}
	if mult > maxBetMultiplier {
		mult = maxBetMultiplier
	}

	tier := models.TierBetCautious
	switch {
	case mult >= strongTierMultiplier:
		tier = models.TierBetStrong
	case mult >= normalTierMultiplier:
		tier = models.TierBetNormal
	}

	return BetAssessment{Tier: tier, Multiplier: mult, ConfDelta: confDelta, Reasons: reasons}
}

// Summary joins reasons for logging and decision records
func (a BetAssessment) Summary() string {
	return strings.Join(a.Reasons, "; ")
}

package validate

import (
	"time"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/models"
)

// FreshnessTier classifies how old a team's data bundle is
type FreshnessTier string

const (
	FreshnessFresh FreshnessTier = "FRESH"
	FreshnessAging FreshnessTier = "AGING"
	FreshnessStale FreshnessTier = "STALE"
	FreshnessDead  FreshnessTier = "DEAD"
)

// rank orders tiers worst-last so two teams combine to the worse one
func (t FreshnessTier) rank() int {
	switch t {
	case FreshnessFresh:
		return 0
	case FreshnessAging:
		return 1
	case FreshnessStale:
		return 2
	default:
		return 3
	}
}

// Usable reports whether scoring may proceed on this tier
func (t FreshnessTier) Usable() bool {
	return t != FreshnessDead
}

// ConfidencePenalty is subtracted from model confidence per tier
func (t FreshnessTier) ConfidencePenalty() float64 {
	switch t {
	case FreshnessAging:
		return 0.05
	case FreshnessStale:
		return 0.15
	default:
		return 0
	}
}

// StakeMultiplier scales the final stake per tier
func (t FreshnessTier) StakeMultiplier() float64 {
	switch t {
	case FreshnessAging:
		return 0.95
	case FreshnessStale:
		return 0.85
	default:
		return 1.00
	}
}

// FreshnessAssessment is one team's freshness verdict
type FreshnessAssessment struct {
	Tier    FreshnessTier `json:"tier"`
	DaysOld float64       `json:"days_old"`
}

// FreshnessValidator classifies bundle age against the configured ladder
type FreshnessValidator struct {
	cfg config.FreshnessConfig
	now func() time.Time
}

// NewFreshnessValidator builds a validator on the configured day thresholds
func NewFreshnessValidator(cfg config.FreshnessConfig) *FreshnessValidator {
	return &FreshnessValidator{cfg: cfg, now: time.Now}
}

// Assess classifies a single bundle. A missing last_updated timestamp
// classifies STALE, not DEAD: usable with heavy penalty rather than a
// silent skip.
func (f *FreshnessValidator) Assess(d *models.TeamDNA) FreshnessAssessment {
	days := d.DaysOld(f.now())
	if days < 0 {
		return FreshnessAssessment{Tier: FreshnessStale, DaysOld: -1}
	}

	// Thresholds are exclusive: data exactly stale_days old is DEAD, so
	// midnight-stamped batches age out on the day they cross the line.
	tier := FreshnessDead
	switch {
	case days < float64(f.cfg.FreshDays):
		tier = FreshnessFresh
	case days < float64(f.cfg.AgingDays):
		tier = FreshnessAging
	case days < float64(f.cfg.StaleDays):
		tier = FreshnessStale
	}
	return FreshnessAssessment{Tier: tier, DaysOld: days}
}

// QualityFor grades prediction inputs from the combined freshness tier
// and the number of validation warnings the match raised.
func QualityFor(tier FreshnessTier, warnings int) models.DataQuality {
	switch tier {
	case FreshnessFresh:
		if warnings == 0 {
			return models.QualityExcellent
		}
		return models.QualityGood
	case FreshnessAging:
		if warnings == 0 {
			return models.QualityGood
		}
		return models.QualityFair
	case FreshnessStale:
		if warnings == 0 {
			return models.QualityFair
		}
		return models.QualityPoor
	default:
		return models.QualityPoor
	}
}

// AssessMatch combines both teams to the worse tier
func (f *FreshnessValidator) AssessMatch(home, away *models.TeamDNA) (FreshnessAssessment, FreshnessAssessment, FreshnessTier) {
	h := f.Assess(home)
	a := f.Assess(away)
	combined := h.Tier
	if a.Tier.rank() > combined.rank() {
		combined = a.Tier
	}
	return h, a, combined
}

package validate

import (
	"github.com/yourusername/pitch-edge/internal/config"
)

// CLVBand classifies an entry price against the sharp closing line
type CLVBand string

const (
	CLVSweetSpot CLVBand = "SWEET_SPOT"
	CLVGood      CLVBand = "GOOD"
	CLVDanger    CLVBand = "DANGER"
	CLVNoise     CLVBand = "NOISE"
	CLVNegative  CLVBand = "NEGATIVE"
	CLVUnknown   CLVBand = "UNKNOWN"
)

// CLVAssessment is the closing-line verdict for one market
type CLVAssessment struct {
	Band       CLVBand `json:"band"`
	CLVPct     float64 `json:"clv_pct"`
	Multiplier float64 `json:"multiplier"`
}

// CLVValidator bands beat-the-close percentages into stake multipliers
type CLVValidator struct {
	cfg config.CLVConfig
}

// NewCLVValidator builds a validator on the configured percentage bands
func NewCLVValidator(cfg config.CLVConfig) *CLVValidator {
	return &CLVValidator{cfg: cfg}
}

// CLVPercent returns how far takenOdds beats the closing price, in percent.
// Positive means the taken price was better than the close.
func CLVPercent(takenOdds, closingOdds float64) float64 {
	if closingOdds <= 0 {
		return 0
	}
	return (takenOdds/closingOdds - 1) * 100
}

// Assess bands a taken/closing price pair. An edge far beyond the sweet
// spot is treated as suspect: when the whole market moved that hard
// against the close, the line likely knew something the model did not.
func (v *CLVValidator) Assess(takenOdds, closingOdds float64) CLVAssessment {
	if closingOdds <= 0 || takenOdds <= 0 {
		return CLVAssessment{Band: CLVUnknown, Multiplier: 1.00}
	}

	pct := CLVPercent(takenOdds, closingOdds)

	switch {
	case pct < 0:
		return CLVAssessment{Band: CLVNegative, CLVPct: pct, Multiplier: 0.85}
	case pct > v.cfg.SweetSpotHighPct:
		return CLVAssessment{Band: CLVDanger, CLVPct: pct, Multiplier: 0.80}
	case pct >= v.cfg.SweetSpotLowPct:
		return CLVAssessment{Band: CLVSweetSpot, CLVPct: pct, Multiplier: 1.20}
	case pct >= v.cfg.MinSignalPct:
		return CLVAssessment{Band: CLVGood, CLVPct: pct, Multiplier: 1.10}
	default:
		return CLVAssessment{Band: CLVNoise, CLVPct: pct, Multiplier: 1.00}
	}
}

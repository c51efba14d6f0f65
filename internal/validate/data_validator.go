// Package validate implements the gate chain applied around scoring:
// range/coherence checks on team data, freshness classification, CLV
// banding and the adaptive bet validator.
package validate

import (
	"fmt"

	"github.com/yourusername/pitch-edge/internal/models"
)

// Range is one inclusive bound pair
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v falls inside the range
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// HardThresholds are physical impossibility bounds: a violation makes
// the record invalid.
var HardThresholds = map[string]Range{
	"xg_90":          {0.05, 6.0},
	"xga_90":         {0.05, 6.0},
	"cs_pct":         {0, 100},
	"possession_pct": {15, 85},
	"btts_pct":       {0, 100},
	"shots_90":       {0, 35},
	"sot_90":         {0, 15},
}

// SoftThresholds are plausibility bounds: a violation is a warning and
// the record is kept.
var SoftThresholds = map[string]Range{
	"xg_90":          {0.5, 3.5},
	"xga_90":         {0.5, 3.0},
	"cs_pct":         {10, 60},
	"possession_pct": {30, 70},
	"btts_pct":       {20, 80},
	"shots_90":       {5, 20},
	"sot_90":         {2, 8},
}

// requiredFields must be present (non-zero) for the record to validate
var requiredFields = []string{"xg_90", "xga_90"}

// Result is the outcome of one validation pass. Validators never throw
// for data problems; the orchestrator branches on this record.
type Result struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Result) addError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.IsValid = false
}

func (r *Result) addWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// DataValidator applies the two-tier rule engine to TeamDNA bundles
type DataValidator struct {
	// Strict escalates warnings to errors
	Strict bool
}

// NewDataValidator creates a validator; strict mode escalates warnings
func NewDataValidator(strict bool) *DataValidator {
	return &DataValidator{Strict: strict}
}

// ValidateTeam checks one bundle against hard ranges, soft ranges,
// required fields and inter-field coherence.
func (v *DataValidator) ValidateTeam(d *models.TeamDNA) Result {
	res := Result{IsValid: true}

	fields := map[string]float64{
		"xg_90":          d.Season.XGFor90,
		"xga_90":         d.Season.XGAgainst90,
		"cs_pct":         d.Season.CleanSheetPct,
		"possession_pct": d.Season.PossessionPct,
		"btts_pct":       d.Season.BTTSPct,
		"shots_90":       d.Season.Shots90,
		"sot_90":         d.Season.ShotsOnTgt90,
	}

	for _, name := range requiredFields {
		if fields[name] == 0 {
			res.addError("%s: required field missing", name)
		}
	}

	for name, value := range fields {
		if value == 0 && !isRequired(name) {
			// Absent optional metric, defaults applied upstream
			continue
		}
		if hard, ok := HardThresholds[name]; ok && !hard.Contains(value) {
			res.addError("%s: %.2f outside hard range [%.2f, %.2f]", name, value, hard.Min, hard.Max)
			continue
		}
		if soft, ok := SoftThresholds[name]; ok && !soft.Contains(value) {
			res.addWarning("%s: %.2f outside soft range [%.2f, %.2f]", name, value, soft.Min, soft.Max)
		}
	}

	v.checkCoherence(d, &res)

	if v.Strict && len(res.Warnings) > 0 {
		res.Errors = append(res.Errors, res.Warnings...)
		res.Warnings = nil
		res.IsValid = false
	}

	return res
}

// checkCoherence applies inter-field rules that single ranges miss
func (v *DataValidator) checkCoherence(d *models.TeamDNA, res *Result) {
	s := d.Season

	if s.Shots90 > 0 && s.XGFor90 > s.Shots90 {
		res.addError("xg_90 %.2f exceeds shots_90 %.2f", s.XGFor90, s.Shots90)
	}

	// An attack this blunt with a defense this porous usually means the
	// for/against columns were swapped upstream.
	if s.XGFor90 > 0 && s.XGFor90 < 0.3 && s.XGAgainst90 > 2.5 {
		res.addWarning("possible xg/xga inversion: xg_90=%.2f xga_90=%.2f", s.XGFor90, s.XGAgainst90)
	}

	if s.PossessionPct > 0 && s.PossessionPct < 35 && !lowPossessionStyle(d.Tactical.Style) {
		res.addWarning("possession %.1f%% inconsistent with tactical style %q", s.PossessionPct, d.Tactical.Style)
	}
}

// ValidateMatch validates both bundles; either failing short-circuits
// the match.
func (v *DataValidator) ValidateMatch(home, away *models.TeamDNA) (Result, Result, bool) {
	hr := v.ValidateTeam(home)
	ar := v.ValidateTeam(away)
	return hr, ar, hr.IsValid && ar.IsValid
}

func lowPossessionStyle(style models.TacticalStyle) bool {
	switch style {
	case models.StyleLowBlock, models.StyleParkBus, models.StyleDefensive, models.StyleCounterAttack:
		return true
	}
	return false
}

func isRequired(name string) bool {
	for _, f := range requiredFields {
		if f == name {
			return true
		}
	}
	return false
}

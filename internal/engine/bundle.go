package engine

import (
	"time"

	"github.com/yourusername/pitch-edge/internal/models"
)

// MatchDecisionBundle is the terminal output of one analyze_match call.
// A match-level skip carries no decisions; a scored match carries one
// decision per candidate market, bets and skips alike.
type MatchDecisionBundle struct {
	Request       models.MatchRequest        `json:"request"`
	PipelineRunID string                     `json:"pipeline_run_id"`
	Skipped       bool                       `json:"skipped"`
	SkipReason    models.SkipReason          `json:"skip_reason,omitempty"`
	Decisions     []*models.Decision         `json:"decisions"`
	Ensemble      *models.EnsemblePrediction `json:"ensemble,omitempty"`
	Warnings      []string                   `json:"warnings,omitempty"`
	Elapsed       time.Duration              `json:"elapsed"`
}

// Bets returns the decisions that commit a stake
func (b *MatchDecisionBundle) Bets() []*models.Decision {
	var out []*models.Decision
	for _, d := range b.Decisions {
		if d.Tier.IsBet() {
			out = append(out, d)
		}
	}
	return out
}

// matchSkip builds a bundle for a whole-match short-circuit
func matchSkip(req models.MatchRequest, runID string, reason models.SkipReason, started time.Time) *MatchDecisionBundle {
	return &MatchDecisionBundle{
		Request:       req,
		PipelineRunID: runID,
		Skipped:       true,
		SkipReason:    reason,
		Elapsed:       time.Since(started),
	}
}

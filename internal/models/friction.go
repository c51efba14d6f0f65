package models

// MatchupFriction is a precomputed pair-level score representing stylistic
// and tempo mismatch between two teams. The record is symmetric: the same
// row answers (a, b) and (b, a). Consumed read-only.
type MatchupFriction struct {
	TeamA             string  `db:"team_a" json:"team_a" validate:"required"`
	TeamB             string  `db:"team_b" json:"team_b" validate:"required"`
	FrictionScore     float64 `db:"friction_score" json:"friction_score" validate:"gte=0,lte=100"`
	ChaosPotential    float64 `db:"chaos_potential" json:"chaos_potential" validate:"gte=0,lte=100"`
	PredictedGoals    float64 `db:"predicted_goals" json:"predicted_goals" validate:"gte=0"`
	PredictedBTTSProb float64 `db:"predicted_btts_prob" json:"predicted_btts_prob" validate:"gte=0,lte=1"`
	PredictedOver25   float64 `db:"predicted_over25_prob" json:"predicted_over25_prob" validate:"gte=0,lte=1"`
	H2HMatches        int     `db:"h2h_matches" json:"h2h_matches" validate:"gte=0"`
	H2HAvgGoals       float64 `db:"h2h_avg_goals" json:"h2h_avg_goals" validate:"gte=0"`
}

// NeutralFriction is substituted when no precomputed record exists for a pair
func NeutralFriction(a, b string) *MatchupFriction {
	return &MatchupFriction{
		TeamA:          a,
		TeamB:          b,
		FrictionScore:  50,
		ChaosPotential: 50,
		H2HMatches:     0,
	}
}

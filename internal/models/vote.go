package models

// Verdict is a model's directional call on a team's priced value
type Verdict string

const (
	VerdictStrongBuy  Verdict = "STRONG_BUY"
	VerdictBuy        Verdict = "BUY"
	VerdictHold       Verdict = "HOLD"
	VerdictSell       Verdict = "SELL"
	VerdictStrongSell Verdict = "STRONG_SELL"
)

// ModelVote is one scoring model's output for a fixture. A market absent
// from Probabilities is an abstention for that market, never a zero
// probability. Confidence 0 abstains from every market.
type ModelVote struct {
	ModelName     string             `json:"model_name"`
	Probabilities map[Market]float64 `json:"probability_by_market"`
	Confidence    float64            `json:"confidence" validate:"gte=0,lte=1"`
	Rationale     []string           `json:"rationale,omitempty"`
}

// Has reports whether the vote covers the given market
func (v *ModelVote) Has(m Market) bool {
	if v.Confidence <= 0 {
		return false
	}
	_, ok := v.Probabilities[m]
	return ok
}

// Probability returns the voted probability and whether the model voted
func (v *ModelVote) Probability(m Market) (float64, bool) {
	if v.Confidence <= 0 {
		return 0, false
	}
	p, ok := v.Probabilities[m]
	return p, ok
}

// Abstention builds an empty vote carrying only the model name. Used when
// a model errors out and the pipeline continues without it.
func Abstention(modelName string) *ModelVote {
	return &ModelVote{
		ModelName:     modelName,
		Probabilities: map[Market]float64{},
		Confidence:    0,
	}
}

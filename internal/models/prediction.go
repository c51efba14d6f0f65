package models

import (
	"time"

	"github.com/google/uuid"
)

// ConfidenceLevel grades a prediction's confidence score
type ConfidenceLevel string

const (
	ConfidenceVeryHigh ConfidenceLevel = "VERY_HIGH"
	ConfidenceHigh     ConfidenceLevel = "HIGH"
	ConfidenceMedium   ConfidenceLevel = "MEDIUM"
	ConfidenceLow      ConfidenceLevel = "LOW"
)

// DataQuality grades the inputs that produced a prediction
type DataQuality string

const (
	QualityExcellent DataQuality = "EXCELLENT"
	QualityGood      DataQuality = "GOOD"
	QualityFair      DataQuality = "FAIR"
	QualityPoor      DataQuality = "POOR"
)

// FusionMethod names the ensemble combination scheme
type FusionMethod string

const (
	MethodWeightedMean   FusionMethod = "weighted_mean"
	MethodWeightedMedian FusionMethod = "weighted_median"
	MethodStacking       FusionMethod = "stacking"
)

// ModelComponent records one model's contribution to a fused prediction
type ModelComponent struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	Confidence  float64 `json:"confidence"`
	Weight      float64 `json:"weight"`
}

// MarketPrediction is a final per-market probability with derived pricing
type MarketPrediction struct {
	ID                  uuid.UUID        `db:"prediction_id" json:"prediction_id" validate:"required,uuid4"`
	MatchID             string           `db:"match_id" json:"match_id" validate:"required"`
	Market              Market           `db:"market_id" json:"market_id" validate:"required"`
	Probability         float64          `db:"probability" json:"probability" validate:"required,gte=0,lte=1"`
	FairOdds            float64          `db:"fair_odds" json:"fair_odds" validate:"gte=1"`
	ImpliedProbability  float64          `db:"implied_probability" json:"implied_probability" validate:"gte=0,lte=1"`
	EdgeVsMarket        float64          `db:"edge_vs_market" json:"edge_vs_market"`
	KellyFraction       float64          `db:"kelly_fraction" json:"kelly_fraction" validate:"gte=0,lte=0.25"`
	ExpectedValue       float64          `db:"expected_value" json:"expected_value"`
	ConfidenceScore     float64          `db:"confidence_score" json:"confidence_score" validate:"gte=0,lte=1"`
	DataQuality         DataQuality      `db:"data_quality" json:"data_quality"`
	ModelComponents     []ModelComponent `json:"model_components"`
	ComputedAt          time.Time        `db:"computed_at" json:"computed_at"`
	ExpiresAt           time.Time        `db:"expires_at" json:"expires_at"`
	WarningFlags        []string         `json:"warning_flags,omitempty"`
	ContributingFactors []string         `json:"contributing_factors,omitempty"`
}

// ConfidenceLevel derives the level from the confidence score
func (p *MarketPrediction) ConfidenceLevel() ConfidenceLevel {
	switch {
	case p.ConfidenceScore > 0.85:
		return ConfidenceVeryHigh
	case p.ConfidenceScore > 0.70:
		return ConfidenceHigh
	case p.ConfidenceScore > 0.50:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// IsExpired reports whether the prediction has passed its expiry (kickoff)
func (p *MarketPrediction) IsExpired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt)
}

// EnsemblePrediction aggregates per-market fused predictions plus the
// dispersion diagnostics of the vote set that produced them.
type EnsemblePrediction struct {
	MatchID              string                      `json:"match_id"`
	Method               FusionMethod                `json:"method"`
	ModelWeights         map[string]float64          `json:"model_weights"`
	Predictions          map[Market]*MarketPrediction `json:"predictions"`
	PredictionVariance   map[Market]float64          `json:"prediction_variance"`
	ModelAgreementScore  map[Market]float64          `json:"model_agreement_score"`
	EpistemicUncertainty float64                     `json:"epistemic_uncertainty"`
	AleatoricUncertainty float64                     `json:"aleatoric_uncertainty"`
	ComputedAt           time.Time                   `json:"computed_at"`
}

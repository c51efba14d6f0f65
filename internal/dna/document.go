package dna

import (
	"encoding/json"

	"github.com/yourusername/pitch-edge/internal/models"
)

// dnaDocument mirrors the legacy nested quantum_dna JSON blob. It exists
// only as a compatibility view at this boundary: the loader translates it
// into the typed TeamDNA and nothing downstream ever navigates the tree.
// Pointer fields distinguish "absent" from zero so defaults apply cleanly.
type dnaDocument struct {
	Context *struct {
		HomeStrength  *float64 `json:"home_strength"`
		AwayStrength  *float64 `json:"away_strength"`
		BTTSTendency  *float64 `json:"btts_tendency"`
		GoalsTendency *float64 `json:"goals_tendency"`
	} `json:"context"`
	Psyche *struct {
		KillerInstinct    *float64 `json:"killer_instinct"`
		PanicFactor       *float64 `json:"panic_factor"`
		ComebackMentality *float64 `json:"comeback_mentality"`
		LeadProtection    *float64 `json:"lead_protection"`
		Profile           string   `json:"profile"`
	} `json:"psyche"`
	Temporal *struct {
		DieselFactor   *float64  `json:"diesel_factor"`
		FastStarter    *float64  `json:"fast_starter"`
		FirstHalfXGPct *float64  `json:"first_half_xg_pct"`
		GoalsByPeriod  []float64 `json:"goals_by_period"`
		Profile        string    `json:"profile"`
	} `json:"temporal"`
	Tactical *struct {
		Formation         string   `json:"formation"`
		Verticality       *float64 `json:"verticality"`
		SetPieceThreat    *float64 `json:"set_piece_threat"`
		PressingIntensity *float64 `json:"pressing_intensity"`
		Style             string   `json:"style"`
	} `json:"tactical"`
	Roster *struct {
		MVPDependency    *float64 `json:"mvp_dependency"`
		Top3Dependency   *float64 `json:"top3_dependency"`
		MVPMissing       *bool    `json:"mvp_missing"`
		MVPMissingImpact string   `json:"mvp_missing_impact"`
	} `json:"roster"`
	Market *struct {
		BestStrategy string             `json:"best_strategy"`
		AvgEdge      *float64           `json:"avg_edge"`
		ROI          *float64           `json:"roi"`
		ErrorRate    *float64           `json:"error_rate"`
		Pepites      []string           `json:"pepites"`
		MarketsAvoid []string           `json:"markets_avoid"`
		MarketsFocus []string           `json:"markets_focus"`
		OverRates    map[string]float64 `json:"over_rates"`
		BTTSYesRate  *float64           `json:"btts_yes_rate"`
	} `json:"market"`
	Luck *struct {
		Profile   string   `json:"profile"`
		TotalLuck *float64 `json:"total_luck"`
	} `json:"luck"`
	Meta *struct {
		ReliabilityByMarket map[string]float64 `json:"reliability_by_market"`
		GlobalReliability   *float64           `json:"global_reliability"`
		ConfidenceTier      string             `json:"confidence_tier"`
	} `json:"meta"`
	Status *struct {
		ReliabilityMultiplier *float64 `json:"reliability_multiplier"`
	} `json:"status"`
	Possession *float64 `json:"possession_pct"`
	Shots90    *float64 `json:"shots_90"`
	SOT90      *float64 `json:"sot_90"`
}

func parseDocument(raw json.RawMessage) (*dnaDocument, error) {
	doc := &dnaDocument{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func toMarkets(names []string) []models.Market {
	out := make([]models.Market, 0, len(names))
	for _, n := range names {
		m := models.Market(n)
		if m.IsValid() {
			out = append(out, m)
		}
	}
	return out
}

func toMarketMap(rates map[string]float64) map[models.Market]float64 {
	out := make(map[models.Market]float64, len(rates))
	for n, r := range rates {
		m := models.Market(n)
		if m.IsValid() {
			out[m] = r
		}
	}
	return out
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Package notify emits outbound bet alerts. The pipeline publishes one
// alert per committed BET_STRONG or BET_NORMAL decision; cautious bets
// and skips stay internal.
package notify

import (
	"context"

	"github.com/yourusername/pitch-edge/internal/models"
)

// BetAlert is the outbound record for one committed bet
type BetAlert struct {
	MatchID         string        `json:"match_id"`
	Market          models.Market `json:"market"`
	Selection       string        `json:"selection"`
	Odds            float64       `json:"odds"`
	FairOdds        float64       `json:"fair_odds"`
	EdgePct         float64       `json:"edge_pct"`
	StakePct        float64       `json:"stake_pct"`
	ConfidenceLevel string        `json:"confidence_level"`
	Reasons         []string      `json:"reasons,omitempty"`
}

// Publisher is the outbound alert port
type Publisher interface {
	Publish(ctx context.Context, alert BetAlert) error
}

// NoopPublisher swallows alerts, used when notifications are disabled
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BetAlert) error { return nil }

// ShouldNotify reports whether a decision warrants an outbound alert
func ShouldNotify(d *models.Decision) bool {
	return d.Tier == models.TierBetStrong || d.Tier == models.TierBetNormal
}

// AlertFromDecision builds the outbound record for a committed bet. The
// confidence level is graded from the prediction's score, not the bet
// tier; a tier is a sizing verdict, not a confidence grade.
func AlertFromDecision(req models.MatchRequest, d *models.Decision, pred *models.MarketPrediction) BetAlert {
	level := models.ConfidenceLow
	if pred != nil {
		level = pred.ConfidenceLevel()
	}
	return BetAlert{
		MatchID:         d.MatchID,
		Market:          d.Market,
		Selection:       selection(req, d.Market),
		Odds:            d.MarketOdds,
		FairOdds:        d.FairOdds,
		EdgePct:         d.EdgePct,
		StakePct:        d.StakePct,
		ConfidenceLevel: string(level),
		Reasons:         d.Reasons,
	}
}

// selection names the backed outcome in fixture terms
func selection(req models.MatchRequest, market models.Market) string {
	switch market {
	case models.MarketHomeWin:
		return req.HomeTeam
	case models.MarketAwayWin:
		return req.AwayTeam
	case models.MarketDraw:
		return "Draw"
	case models.MarketDC1X:
		return req.HomeTeam + " or Draw"
	case models.MarketDCX2:
		return req.AwayTeam + " or Draw"
	case models.MarketDC12:
		return req.HomeTeam + " or " + req.AwayTeam
	case models.MarketDNBHome:
		return req.HomeTeam + " (draw no bet)"
	case models.MarketDNBAway:
		return req.AwayTeam + " (draw no bet)"
	}
	return string(market)
}

package models

import (
	"time"
)

// MatchRequest identifies one upcoming fixture to analyze. Team names may
// arrive raw from any source; the repository boundary normalizes them.
type MatchRequest struct {
	MatchID  string    `json:"match_id" validate:"required"`
	HomeTeam string    `json:"home_team" validate:"required"`
	AwayTeam string    `json:"away_team" validate:"required"`
	League   string    `json:"league" validate:"required"`
	Season   string    `json:"season" validate:"required"`
	Kickoff  time.Time `json:"kickoff" validate:"required"`
}

// HomeKey builds the canonical key for the home side
func (r *MatchRequest) HomeKey() TeamKey {
	return TeamKey{Name: r.HomeTeam, League: r.League, Season: r.Season}
}

// AwayKey builds the canonical key for the away side
func (r *MatchRequest) AwayKey() TeamKey {
	return TeamKey{Name: r.AwayTeam, League: r.League, Season: r.Season}
}

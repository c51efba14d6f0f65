package models

import (
	"strings"
	"time"
)

// BookmakerClass separates sharp price-setters from recreational books
type BookmakerClass string

const (
	BookSharp BookmakerClass = "SHARP"
	BookSoft  BookmakerClass = "SOFT"
)

// OddsSnapshot represents a point-in-time bookmaker price for one market
type OddsSnapshot struct {
	MatchID   string         `db:"match_id" json:"match_id" validate:"required"`
	Market    Market         `db:"market" json:"market" validate:"required"`
	Bookmaker string         `db:"bookmaker" json:"bookmaker" validate:"required"`
	TakenAt   time.Time      `db:"taken_at" json:"taken_at" validate:"required"`
	Price     float64        `db:"price" json:"price" validate:"required,gt=1"`
	Line      float64        `db:"line" json:"line"`
	Class     BookmakerClass `db:"source_class" json:"source_class"`
}

// ImpliedProbability returns 1/price, 0 for invalid prices
func (o *OddsSnapshot) ImpliedProbability() float64 {
	if o.Price <= 1 {
		return 0
	}
	return 1.0 / o.Price
}

// IsSharp reports whether the snapshot comes from a sharp bookmaker
func (o *OddsSnapshot) IsSharp() bool {
	return o.Class == BookSharp
}

// ClosingSnapshot picks the closing odds from a time series: the latest
// sharp-book snapshot strictly before kickoff, falling back to the latest
// soft-book snapshot when no sharp price exists. A bookmaker named in
// sharpBooks counts as sharp even when its snapshot rows are unclassed,
// so the configured priority list overrides a mislabeled feed.
func ClosingSnapshot(series []*OddsSnapshot, kickoff time.Time, sharpBooks []string) *OddsSnapshot {
	listed := make(map[string]bool, len(sharpBooks))
	for _, b := range sharpBooks {
		listed[strings.ToLower(b)] = true
	}

	var closing, softFallback *OddsSnapshot
	for _, s := range series {
		if !s.TakenAt.Before(kickoff) {
			continue
		}
		if s.IsSharp() || listed[strings.ToLower(s.Bookmaker)] {
			if closing == nil || s.TakenAt.After(closing.TakenAt) {
				closing = s
			}
		} else {
			if softFallback == nil || s.TakenAt.After(softFallback.TakenAt) {
				softFallback = s
			}
		}
	}
	if closing != nil {
		return closing
	}
	return softFallback
}

// LatestSnapshot returns the most recent snapshot in the series
func LatestSnapshot(series []*OddsSnapshot) *OddsSnapshot {
	var latest *OddsSnapshot
	for _, s := range series {
		if latest == nil || s.TakenAt.After(latest.TakenAt) {
			latest = s
		}
	}
	return latest
}

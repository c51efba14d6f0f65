package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/yourusername/pitch-edge/internal/models"
)

// FileMatchSource reads fixtures from a JSON file produced by the
// ingestion side. The file is re-read on every sweep so new fixtures
// are picked up without a restart.
type FileMatchSource struct {
	path string
}

// NewFileMatchSource creates a source over the given fixtures file
func NewFileMatchSource(path string) *FileMatchSource {
	return &FileMatchSource{path: path}
}

// UpcomingMatches returns fixtures kicking off between now and the
// cutoff, ordered by kickoff time
func (f *FileMatchSource) UpcomingMatches(ctx context.Context, until time.Time) ([]models.MatchRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures file %s: %w", f.path, err)
	}

	var all []models.MatchRequest
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parsing fixtures file %s: %w", f.path, err)
	}

	now := time.Now().UTC()
	upcoming := make([]models.MatchRequest, 0, len(all))
	for _, req := range all {
		if req.Kickoff.Before(now) || req.Kickoff.After(until) {
			continue
		}
		upcoming = append(upcoming, req)
	}

	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].Kickoff.Before(upcoming[j].Kickoff)
	})
	return upcoming, nil
}

// StaticMatchSource serves a fixed fixture list, used by the one-shot
// CLI path where fixtures arrive as arguments rather than from a file
type StaticMatchSource struct {
	matches []models.MatchRequest
}

// NewStaticMatchSource creates a source over a fixed list
func NewStaticMatchSource(matches []models.MatchRequest) *StaticMatchSource {
	return &StaticMatchSource{matches: matches}
}

// UpcomingMatches returns the fixed fixtures kicking off before the cutoff
func (s *StaticMatchSource) UpcomingMatches(ctx context.Context, until time.Time) ([]models.MatchRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.MatchRequest, 0, len(s.matches))
	for _, req := range s.matches {
		if req.Kickoff.After(until) {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

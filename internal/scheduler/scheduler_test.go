package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/engine"
	"github.com/yourusername/pitch-edge/internal/models"
)

type stubSource struct {
	matches []models.MatchRequest
	err     error
	until   time.Time
}

func (s *stubSource) UpcomingMatches(_ context.Context, until time.Time) ([]models.MatchRequest, error) {
	s.until = until
	return s.matches, s.err
}

type stubAnalyzer struct {
	bundles map[string]*engine.MatchDecisionBundle
	errs    map[string]error
	calls   []string
}

func (a *stubAnalyzer) AnalyzeMatch(_ context.Context, req models.MatchRequest) (*engine.MatchDecisionBundle, error) {
	a.calls = append(a.calls, req.MatchID)
	if err := a.errs[req.MatchID]; err != nil {
		return nil, err
	}
	if b := a.bundles[req.MatchID]; b != nil {
		return b, nil
	}
	return &engine.MatchDecisionBundle{Request: req, Skipped: true, SkipReason: models.SkipNoOdds}, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func fixture(id string, kickoff time.Time) models.MatchRequest {
	return models.MatchRequest{
		MatchID:  id,
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		League:   "premier_league",
		Season:   "2025-2026",
		Kickoff:  kickoff,
	}
}

func TestRunSweepAnalyzesEveryFixture(t *testing.T) {
	source := &stubSource{matches: []models.MatchRequest{
		fixture("m-1", time.Now().Add(2*time.Hour)),
		fixture("m-2", time.Now().Add(4*time.Hour)),
		fixture("m-3", time.Now().Add(6*time.Hour)),
	}}
	analyzer := &stubAnalyzer{
		errs: map[string]error{"m-2": errors.New("store unavailable")},
	}

	cfg := config.SchedulerConfig{AnalyzeCron: "0 * * * *", LookaheadHours: 48}
	s := New(cfg, source, analyzer, testLogger())
	s.runSweep(context.Background())

	assert.Equal(t, []string{"m-1", "m-2", "m-3"}, analyzer.calls)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), source.until, time.Minute)
}

func TestRunSweepSourceErrorDoesNotAnalyze(t *testing.T) {
	source := &stubSource{err: errors.New("fixtures file missing")}
	analyzer := &stubAnalyzer{}

	s := New(config.SchedulerConfig{AnalyzeCron: "0 * * * *", LookaheadHours: 24}, source, analyzer, testLogger())
	s.runSweep(context.Background())

	assert.Empty(t, analyzer.calls)
}

func TestRunSweepStopsOnCancelledContext(t *testing.T) {
	source := &stubSource{matches: []models.MatchRequest{
		fixture("m-1", time.Now().Add(time.Hour)),
		fixture("m-2", time.Now().Add(2*time.Hour)),
	}}
	analyzer := &stubAnalyzer{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(config.SchedulerConfig{AnalyzeCron: "0 * * * *", LookaheadHours: 24}, source, analyzer, testLogger())
	s.runSweep(ctx)

	assert.Empty(t, analyzer.calls)
}

func TestStartRequiresScheduledJob(t *testing.T) {
	s := New(config.SchedulerConfig{AnalyzeCron: "0 * * * *", LookaheadHours: 24}, &stubSource{}, &stubAnalyzer{}, testLogger())

	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no jobs scheduled")
}

func TestStartStopLifecycle(t *testing.T) {
	s := New(config.SchedulerConfig{AnalyzeCron: "0 * * * *", LookaheadHours: 24}, &stubSource{}, &stubAnalyzer{}, testLogger())
	require.NoError(t, s.ScheduleAnalyzeUpcoming())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.False(t, s.NextRun().IsZero())

	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	err = s.ScheduleAnalyzeUpcoming()
	require.Error(t, err)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestScheduleRejectsBadCron(t *testing.T) {
	s := New(config.SchedulerConfig{AnalyzeCron: "not a cron", LookaheadHours: 24}, &stubSource{}, &stubAnalyzer{}, testLogger())
	assert.Error(t, s.ScheduleAnalyzeUpcoming())
}

func TestFileMatchSourceFiltersWindow(t *testing.T) {
	now := time.Now().UTC()
	fixtures := []models.MatchRequest{
		fixture("m-past", now.Add(-2*time.Hour)),
		fixture("m-soon", now.Add(3*time.Hour)),
		fixture("m-later", now.Add(20*time.Hour)),
		fixture("m-far", now.Add(72*time.Hour)),
	}

	path := filepath.Join(t.TempDir(), "fixtures.json")
	data, err := json.Marshal(fixtures)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	source := NewFileMatchSource(path)
	got, err := source.UpcomingMatches(context.Background(), now.Add(48*time.Hour))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "m-soon", got[0].MatchID)
	assert.Equal(t, "m-later", got[1].MatchID)
}

func TestFileMatchSourceMissingFile(t *testing.T) {
	source := NewFileMatchSource(filepath.Join(t.TempDir(), "absent.json"))
	_, err := source.UpcomingMatches(context.Background(), time.Now().Add(time.Hour))
	assert.Error(t, err)
}

func TestStaticMatchSourceRespectsCutoff(t *testing.T) {
	now := time.Now().UTC()
	source := NewStaticMatchSource([]models.MatchRequest{
		fixture("m-in", now.Add(time.Hour)),
		fixture("m-out", now.Add(100*time.Hour)),
	})

	got, err := source.UpcomingMatches(context.Background(), now.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m-in", got[0].MatchID)
}

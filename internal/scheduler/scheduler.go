// Package scheduler drives periodic fixture analysis for the daemon.
// Fixtures arrive from the ingestion side; the scheduler only decides
// when to sweep them through the pipeline.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/engine"
	"github.com/yourusername/pitch-edge/internal/models"
)

// jobTimeout bounds one full sweep across upcoming fixtures
const jobTimeout = 15 * time.Minute

// Analyzer runs the decision pipeline for one fixture
type Analyzer interface {
	AnalyzeMatch(ctx context.Context, req models.MatchRequest) (*engine.MatchDecisionBundle, error)
}

// MatchSource lists fixtures kicking off before a cutoff
type MatchSource interface {
	UpcomingMatches(ctx context.Context, until time.Time) ([]models.MatchRequest, error)
}

// Scheduler runs the analyze-upcoming sweep on a cron expression
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.SchedulerConfig
	source   MatchSource
	analyzer Analyzer
	log      *logrus.Logger

	mu      sync.RWMutex
	running bool
	jobIDs  []cron.EntryID
}

// New creates a scheduler over the given fixture source and analyzer
func New(cfg config.SchedulerConfig, source MatchSource, analyzer Analyzer, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		cfg:      cfg,
		source:   source,
		analyzer: analyzer,
		log:      log,
	}
}

// ScheduleAnalyzeUpcoming registers the periodic sweep job
func (s *Scheduler) ScheduleAnalyzeUpcoming() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	id, err := s.cron.AddFunc(s.cfg.AnalyzeCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling analyze job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, id)
	s.log.WithField("cron", s.cfg.AnalyzeCron).Info("Scheduled upcoming-fixture analysis")
	return nil
}

// runSweep analyzes every fixture inside the lookahead window. One bad
// fixture never aborts the sweep.
func (s *Scheduler) runSweep(ctx context.Context) {
	until := time.Now().UTC().Add(s.cfg.Lookahead())
	matches, err := s.source.UpcomingMatches(ctx, until)
	if err != nil {
		s.log.WithError(err).Error("Fixture sweep failed to list upcoming matches")
		return
	}
	if len(matches) == 0 {
		s.log.Debug("No upcoming fixtures inside lookahead window")
		return
	}

	var bets, skips, failures int
	for _, req := range matches {
		if ctx.Err() != nil {
			s.log.Warn("Fixture sweep cut short by job timeout")
			break
		}
		bundle, err := s.analyzer.AnalyzeMatch(ctx, req)
		if err != nil {
			failures++
			s.log.WithError(err).WithField("match_id", req.MatchID).Error("Fixture analysis failed")
			continue
		}
		if bundle.Skipped {
			skips++
			continue
		}
		bets += len(bundle.Bets())
	}

	s.log.WithFields(logrus.Fields{
		"fixtures": len(matches),
		"bets":     bets,
		"skips":    skips,
		"failures": failures,
	}).Info("Fixture sweep complete")
}

// Start starts the cron loop
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.running = true
	s.log.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop stops the cron loop and waits for a running sweep to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.log.Info("Scheduler stopped")
}

// IsRunning reports whether the cron loop is active
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// NextRun returns the earliest next fire time, zero when idle
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var next time.Time
	for _, id := range s.jobIDs {
		entry := s.cron.Entry(id)
		if entry.Valid() && (next.IsZero() || entry.Next.Before(next)) {
			next = entry.Next
		}
	}
	return next
}

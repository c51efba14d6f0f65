package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/pitch-edge/internal/models"
)

// TeamProfileRepository reads raw team profile rows. Lookups take raw
// source names; normalization happens inside the implementation so
// callers never deal in spelling variants.
type TeamProfileRepository interface {
	// GetProfile resolves by canonical name, falling back to a substring
	// match when no exact row exists. Returns models.ErrTeamNotFound when
	// neither lookup finds a profile.
	GetProfile(ctx context.Context, key models.TeamKey) (*models.TeamProfileRecord, error)
	GetXGAggregates(ctx context.Context, key models.TeamKey) (*models.XGAggregateRecord, error)
	GetMarketProfiles(ctx context.Context, key models.TeamKey) ([]*models.MarketProfileRecord, error)
	GetStandings(ctx context.Context, key models.TeamKey) (*models.StandingsRecord, error)
}

// FrictionRepository reads precomputed pair-level friction records
type FrictionRepository interface {
	// GetMatchupFriction is order-independent: (a, b) and (b, a) return
	// the same record. Returns models.ErrNotFound when absent.
	GetMatchupFriction(ctx context.Context, teamA, teamB string) (*models.MatchupFriction, error)
}

// OddsRepository reads bookmaker odds snapshots
type OddsRepository interface {
	// GetOddsSeries returns snapshots ordered by taken_at ascending
	GetOddsSeries(ctx context.Context, matchID string, market models.Market) ([]*models.OddsSnapshot, error)
}

// PortfolioRepository reads the current portfolio risk state
type PortfolioRepository interface {
	GetPortfolioState(ctx context.Context) (*models.PortfolioState, error)
}

// PredictionRepository persists market predictions
type PredictionRepository interface {
	// Create fails with models.ErrDuplicateKey when the prediction ID exists
	Create(ctx context.Context, p *models.MarketPrediction) (*models.MarketPrediction, error)
	List(ctx context.Context, filters models.PredictionFilters, limit, offset int) ([]*models.MarketPrediction, error)
	// Update fails with models.ErrNotFound for unknown IDs
	Update(ctx context.Context, id uuid.UUID, patch models.PredictionPatch) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// DecisionRepository persists immutable decision records
type DecisionRepository interface {
	// WriteDecision is idempotent on (match_id, market_id, pipeline_run_id):
	// a rerun returns the previously stored record without a new write.
	WriteDecision(ctx context.Context, d *models.Decision) (*models.Decision, error)
	// WriteDecisionBatch writes all decisions of one match atomically
	WriteDecisionBatch(ctx context.Context, decisions []*models.Decision) ([]*models.Decision, error)
	ListByMatch(ctx context.Context, matchID string) ([]*models.Decision, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Decision, error)
}

// Gateway bundles every port the pipeline touches
type Gateway struct {
	TeamProfiles TeamProfileRepository
	Friction     FrictionRepository
	Odds         OddsRepository
	Portfolio    PortfolioRepository
	Predictions  PredictionRepository
	Decisions    DecisionRepository
}

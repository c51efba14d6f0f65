package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yourusername/pitch-edge/internal/database"
	"github.com/yourusername/pitch-edge/internal/models"
)

// PostgresDecisionRepository implements DecisionRepository for PostgreSQL
type PostgresDecisionRepository struct {
	db    *database.DB
	guard *storeGuard
}

// querier is the subset of pgx satisfied by both the pool and a transaction
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const decisionColumns = `
	decision_id, match_id, market_id, tier, skip_reason, stake_pct, stake_units,
	sizing_method, edge_pct, fair_odds, market_odds, reasons, adjustments,
	bankroll_snapshot, portfolio_exposure_pct, pipeline_run_id, decided_at
`

// WriteDecision inserts a decision idempotently. When a record for the
// same (match_id, market_id, pipeline_run_id) already exists, the stored
// record is returned and no new row is written.
func (r *PostgresDecisionRepository) WriteDecision(ctx context.Context, d *models.Decision) (*models.Decision, error) {
	var result *models.Decision
	err := r.guard.do(ctx, "decisions.write", func() error {
		var err error
		result, err = writeDecision(ctx, r.db.GetPool(), d)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// WriteDecisionBatch writes all decisions of one match in a single
// transaction so they become visible atomically.
func (r *PostgresDecisionRepository) WriteDecisionBatch(ctx context.Context, decisions []*models.Decision) ([]*models.Decision, error) {
	if len(decisions) == 0 {
		return nil, nil
	}

	out := make([]*models.Decision, 0, len(decisions))
	err := r.guard.do(ctx, "decisions.write_batch", func() error {
		out = out[:0]
		return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
			for _, d := range decisions {
				written, err := writeDecision(ctx, tx, d)
				if err != nil {
					return err
				}
				out = append(out, written)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func writeDecision(ctx context.Context, q querier, d *models.Decision) (*models.Decision, error) {
	reasons, err := json.Marshal(d.Reasons)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reasons: %w", err)
	}
	adjustments, err := json.Marshal(d.Adjustments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal adjustments: %w", err)
	}

	insert := fmt.Sprintf(`
		INSERT INTO decisions (%s)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (match_id, market_id, pipeline_run_id) DO NOTHING
	`, decisionColumns)

	tag, err := q.Exec(ctx, insert,
		d.ID, d.MatchID, d.Market, d.Tier, d.SkipReason, d.StakePct, d.StakeUnits,
		d.SizingMethod, d.EdgePct, d.FairOdds, d.MarketOdds, reasons, adjustments,
		d.BankrollSnapshot, d.PortfolioExposurePct, d.PipelineRunID, d.DecidedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert decision: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return d, nil
	}

	// Conflict means a rerun: return the existing record untouched
	return getDecision(ctx, q, d.MatchID, d.Market, d.PipelineRunID)
}

func getDecision(ctx context.Context, q querier, matchID string, market models.Market, runID string) (*models.Decision, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM decisions
		WHERE match_id = $1 AND market_id = $2 AND pipeline_run_id = $3
	`, decisionColumns)

	row := q.QueryRow(ctx, query, matchID, market, runID)
	d, err := scanDecision(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return d, err
}

// ListByMatch returns all decisions recorded for a match
func (r *PostgresDecisionRepository) ListByMatch(ctx context.Context, matchID string) ([]*models.Decision, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM decisions
		WHERE match_id = $1
		ORDER BY decided_at ASC, market_id ASC
	`, decisionColumns)
	return r.list(ctx, "decisions.list_by_match", query, matchID)
}

// ListRecent returns the newest decisions across all matches
func (r *PostgresDecisionRepository) ListRecent(ctx context.Context, limit int) ([]*models.Decision, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`
		SELECT %s FROM decisions
		ORDER BY decided_at DESC
		LIMIT $1
	`, decisionColumns)
	return r.list(ctx, "decisions.list_recent", query, limit)
}

func (r *PostgresDecisionRepository) list(ctx context.Context, op, query string, args ...any) ([]*models.Decision, error) {
	var out []*models.Decision
	err := r.guard.do(ctx, op, func() error {
		rows, err := r.db.GetPool().Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to query decisions: %w", err)
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			d, err := scanDecision(rows)
			if err != nil {
				return err
			}
			out = append(out, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanDecision(row pgx.Row) (*models.Decision, error) {
	d := &models.Decision{}
	var reasons, adjustments []byte
	if err := row.Scan(
		&d.ID, &d.MatchID, &d.Market, &d.Tier, &d.SkipReason, &d.StakePct, &d.StakeUnits,
		&d.SizingMethod, &d.EdgePct, &d.FairOdds, &d.MarketOdds, &reasons, &adjustments,
		&d.BankrollSnapshot, &d.PortfolioExposurePct, &d.PipelineRunID, &d.DecidedAt,
	); err != nil {
		return nil, err
	}
	if len(reasons) > 0 {
		if err := json.Unmarshal(reasons, &d.Reasons); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reasons: %w", err)
		}
	}
	if len(adjustments) > 0 {
		if err := json.Unmarshal(adjustments, &d.Adjustments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal adjustments: %w", err)
		}
	}
	return d, nil
}

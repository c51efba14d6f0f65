package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/pitch-edge/internal/database"
	"github.com/yourusername/pitch-edge/internal/models"
)

// PostgresPortfolioRepository implements PortfolioRepository for PostgreSQL
type PostgresPortfolioRepository struct {
	db    *database.DB
	guard *storeGuard
}

// GetPortfolioState reads the single portfolio row plus open positions.
// Only the settlement flow writes these tables; this engine reads them
// at sizing time.
func (r *PostgresPortfolioRepository) GetPortfolioState(ctx context.Context) (*models.PortfolioState, error) {
	state := &models.PortfolioState{
		ExposureByMarket: make(map[models.Market]float64),
	}

	err := r.guard.do(ctx, "portfolio_state.get", func() error {
		query := `
			SELECT bankroll, var_1d_95, correlation_risk_score
			FROM portfolio_state
			ORDER BY updated_at DESC
			LIMIT 1
		`
		err := r.db.GetPool().QueryRow(ctx, query).Scan(
			&state.Bankroll, &state.VaR1d95, &state.CorrelationRiskScore,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return err
		}

		posQuery := `
			SELECT match_id, market_id, stake_pct, odds
			FROM open_positions
			ORDER BY match_id, market_id
		`
		rows, err := r.db.GetPool().Query(ctx, posQuery)
		if err != nil {
			return fmt.Errorf("failed to query open positions: %w", err)
		}
		defer rows.Close()

		state.OpenPositions = state.OpenPositions[:0]
		for rows.Next() {
			var pos models.Position
			if err := rows.Scan(&pos.MatchID, &pos.Market, &pos.StakePct, &pos.Odds); err != nil {
				return fmt.Errorf("failed to scan open position: %w", err)
			}
			state.OpenPositions = append(state.OpenPositions, pos)
			state.ExposureByMarket[pos.Market] += pos.StakePct
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

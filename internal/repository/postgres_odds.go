package repository

import (
	"context"
	"fmt"

	"github.com/yourusername/pitch-edge/internal/database"
	"github.com/yourusername/pitch-edge/internal/models"
)

// PostgresOddsRepository implements OddsRepository for PostgreSQL
type PostgresOddsRepository struct {
	db    *database.DB
	guard *storeGuard
}

// GetOddsSeries returns all snapshots for a match/market pair ordered by
// taken_at ascending.
func (r *PostgresOddsRepository) GetOddsSeries(ctx context.Context, matchID string, market models.Market) ([]*models.OddsSnapshot, error) {
	var out []*models.OddsSnapshot
	err := r.guard.do(ctx, "odds_history.series", func() error {
		query := `
			SELECT match_id, market, bookmaker, taken_at, price, line,
			       CASE WHEN is_sharp THEN 'SHARP' ELSE 'SOFT' END
			FROM odds_history
			WHERE match_id = $1 AND market = $2
			ORDER BY taken_at ASC
		`
		rows, err := r.db.GetPool().Query(ctx, query, matchID, market)
		if err != nil {
			return fmt.Errorf("failed to query odds series: %w", err)
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			s := &models.OddsSnapshot{}
			if err := rows.Scan(
				&s.MatchID, &s.Market, &s.Bookmaker, &s.TakenAt,
				&s.Price, &s.Line, &s.Class,
			); err != nil {
				return fmt.Errorf("failed to scan odds snapshot: %w", err)
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

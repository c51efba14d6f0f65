package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/pitch-edge/internal/database"
	"github.com/yourusername/pitch-edge/internal/models"
	"github.com/yourusername/pitch-edge/internal/normalize"
)

// PostgresFrictionRepository implements FrictionRepository for PostgreSQL
type PostgresFrictionRepository struct {
	db     *database.DB
	mapper *normalize.Mapper
	guard  *storeGuard
}

// GetMatchupFriction looks up the pair record order-independently: rows
// are stored with (LEAST, GREATEST) ordering so (a, b) and (b, a) hit
// the same row.
func (r *PostgresFrictionRepository) GetMatchupFriction(ctx context.Context, teamA, teamB string) (*models.MatchupFriction, error) {
	a := r.mapper.Resolve(teamA)
	b := r.mapper.Resolve(teamB)

	rec := &models.MatchupFriction{}
	err := r.guard.do(ctx, "matchup_friction.get", func() error {
		query := `
			SELECT team_a, team_b, friction_score, chaos_potential,
			       predicted_goals, predicted_btts_prob, predicted_over25_prob,
			       h2h_matches, h2h_avg_goals
			FROM matchup_friction
			WHERE team_a = LEAST($1, $2) AND team_b = GREATEST($1, $2)
		`
		err := r.db.GetPool().QueryRow(ctx, query, a, b).Scan(
			&rec.TeamA, &rec.TeamB, &rec.FrictionScore, &rec.ChaosPotential,
			&rec.PredictedGoals, &rec.PredictedBTTSProb, &rec.PredictedOver25,
			&rec.H2HMatches, &rec.H2HAvgGoals,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

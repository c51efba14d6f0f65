package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/pitch-edge/internal/database"
	"github.com/yourusername/pitch-edge/internal/models"
	"github.com/yourusername/pitch-edge/internal/normalize"
)

// PostgresTeamProfileRepository implements TeamProfileRepository for PostgreSQL
type PostgresTeamProfileRepository struct {
	db     *database.DB
	mapper *normalize.Mapper
	guard  *storeGuard
}

// GetProfile resolves a team profile by canonical name with a LIKE
// fallback for partial matches. Only a complete miss is an error.
func (r *PostgresTeamProfileRepository) GetProfile(ctx context.Context, key models.TeamKey) (*models.TeamProfileRecord, error) {
	canonical := r.mapper.Resolve(key.Name)

	rec := &models.TeamProfileRecord{}
	err := r.guard.do(ctx, "team_profiles.get", func() error {
		query := `
			SELECT team_name, league, season, tier, keeper_status, quantum_dna, updated_at
			FROM team_profiles
			WHERE team_name = $1 AND league = $2 AND season = $3
		`
		err := r.db.GetPool().QueryRow(ctx, query, canonical, key.League, key.Season).Scan(
			&rec.Key.Name, &rec.Key.League, &rec.Key.Season,
			&rec.Tier, &rec.KeeperStatus, &rec.DNA, &rec.UpdatedAt,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return r.findBySubstring(ctx, canonical, key, rec)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// findBySubstring is the fallback lookup: LIKE candidates ranked by name
// similarity, and only a candidate above the fuzzy threshold wins. A
// containment hit alone is not an identity match.
func (r *PostgresTeamProfileRepository) findBySubstring(ctx context.Context, canonical string, key models.TeamKey, rec *models.TeamProfileRecord) error {
	query := `
		SELECT team_name, league, season, tier, keeper_status, quantum_dna, updated_at
		FROM team_profiles
		WHERE team_name LIKE '%' || $1 || '%' AND league = $2 AND season = $3
		ORDER BY team_name
		LIMIT 5
	`
	rows, err := r.db.GetPool().Query(ctx, query, canonical, key.League, key.Season)
	if err != nil {
		return err
	}
	defer rows.Close()

	var best models.TeamProfileRecord
	var bestScore float64
	for rows.Next() {
		var cand models.TeamProfileRecord
		if err := rows.Scan(
			&cand.Key.Name, &cand.Key.League, &cand.Key.Season,
			&cand.Tier, &cand.KeeperStatus, &cand.DNA, &cand.UpdatedAt,
		); err != nil {
			return err
		}
		if score := normalize.Similarity(cand.Key.Name, canonical); score > bestScore {
			best, bestScore = cand, score
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if bestScore < normalize.FuzzyThreshold {
		return fmt.Errorf("%q (%s %s): %w", key.Name, key.League, key.Season, models.ErrTeamNotFound)
	}
	*rec = best
	return nil
}

// GetXGAggregates computes current-season per-90 aggregates from the
// shot-level match_xg_stats table.
func (r *PostgresTeamProfileRepository) GetXGAggregates(ctx context.Context, key models.TeamKey) (*models.XGAggregateRecord, error) {
	canonical := r.mapper.Resolve(key.Name)

	rec := &models.XGAggregateRecord{}
	err := r.guard.do(ctx, "match_xg_stats.aggregate", func() error {
		query := `
			WITH team_matches AS (
				SELECT
					CASE WHEN home = $1 THEN home_xg ELSE away_xg END AS xg_for,
					CASE WHEN home = $1 THEN away_xg ELSE home_xg END AS xg_against,
					CASE WHEN home = $1 THEN home_goals ELSE away_goals END AS goals_for,
					CASE WHEN home = $1 THEN away_goals ELSE home_goals END AS goals_against,
					match_date
				FROM match_xg_stats
				WHERE (home = $1 OR away = $1) AND league = $2 AND season = $3
			)
			SELECT
				COALESCE(AVG(xg_for), 0),
				COALESCE(AVG(xg_against), 0),
				COUNT(*),
				COALESCE(SUM(CASE WHEN goals_for > goals_against THEN 1 ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN goals_for = goals_against THEN 1 ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN goals_for < goals_against THEN 1 ELSE 0 END), 0),
				COALESCE(SUM(goals_for), 0),
				COALESCE(SUM(goals_against), 0),
				COALESCE(AVG(CASE WHEN goals_against = 0 THEN 100.0 ELSE 0.0 END), 0),
				COALESCE(AVG(CASE WHEN goals_for > 0 AND goals_against > 0 THEN 100.0 ELSE 0.0 END), 0),
				COALESCE(MAX(match_date), 'epoch'::timestamptz)
			FROM team_matches
		`
		return r.db.GetPool().QueryRow(ctx, query, canonical, key.League, key.Season).Scan(
			&rec.XGFor90, &rec.XGAgainst90, &rec.MatchesPlayed,
			&rec.Wins, &rec.Draws, &rec.Losses,
			&rec.GoalsFor, &rec.GoalsAgainst,
			&rec.CleanSheetPct, &rec.BTTSPct,
			&rec.UpdatedAt,
		)
	})
	if err != nil {
		return nil, err
	}
	if rec.MatchesPlayed == 0 {
		return nil, models.ErrNotFound
	}
	rec.PPG = float64(rec.Wins*3+rec.Draws) / float64(rec.MatchesPlayed)
	return rec, nil
}

// GetMarketProfiles returns the team's per-market historical profile rows
func (r *PostgresTeamProfileRepository) GetMarketProfiles(ctx context.Context, key models.TeamKey) ([]*models.MarketProfileRecord, error) {
	canonical := r.mapper.Resolve(key.Name)

	var out []*models.MarketProfileRecord
	err := r.guard.do(ctx, "team_market_profiles.list", func() error {
		query := `
			SELECT market_type, win_rate, roi, sample_size, is_best_market, is_avoid_market, updated_at
			FROM team_market_profiles
			WHERE team_name = $1 AND league = $2 AND season = $3
			ORDER BY market_type
		`
		rows, err := r.db.GetPool().Query(ctx, query, canonical, key.League, key.Season)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			rec := &models.MarketProfileRecord{}
			if err := rows.Scan(
				&rec.Market, &rec.WinRate, &rec.ROI, &rec.SampleSize,
				&rec.IsBestMarket, &rec.IsAvoidMarket, &rec.UpdatedAt,
			); err != nil {
				return fmt.Errorf("failed to scan market profile: %w", err)
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetStandings returns the team's current league-table context
func (r *PostgresTeamProfileRepository) GetStandings(ctx context.Context, key models.TeamKey) (*models.StandingsRecord, error) {
	canonical := r.mapper.Resolve(key.Name)

	rec := &models.StandingsRecord{}
	err := r.guard.do(ctx, "standings.get", func() error {
		query := `
			SELECT rank, points, pts_to_leader, pts_to_relegation, season_phase, motivation_zone, updated_at
			FROM standings
			WHERE team_name = $1 AND league = $2 AND season = $3
		`
		err := r.db.GetPool().QueryRow(ctx, query, canonical, key.League, key.Season).Scan(
			&rec.Rank, &rec.Points, &rec.PtsToLeader, &rec.PtsToRelegation,
			&rec.SeasonPhase, &rec.MotivationZone, &rec.UpdatedAt,
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

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yourusername/pitch-edge/internal/database"
	"github.com/yourusername/pitch-edge/internal/models"
)

const uniqueViolationCode = "23505"

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db    *database.DB
	guard *storeGuard
}

// Create inserts a prediction, failing with ErrDuplicateKey when the
// prediction ID already exists.
func (r *PostgresPredictionRepository) Create(ctx context.Context, p *models.MarketPrediction) (*models.MarketPrediction, error) {
	components, err := json.Marshal(p.ModelComponents)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model components: %w", err)
	}
	flags, err := json.Marshal(p.WarningFlags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal warning flags: %w", err)
	}
	factors, err := json.Marshal(p.ContributingFactors)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal contributing factors: %w", err)
	}

	err = r.guard.do(ctx, "predictions.create", func() error {
		query := `
			INSERT INTO predictions (
				prediction_id, match_id, market_id, probability, fair_odds,
				implied_probability, edge_vs_market, kelly_fraction, expected_value,
				confidence_score, data_quality, model_components, computed_at,
				expires_at, warning_flags, contributing_factors
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		`
		_, execErr := r.db.GetPool().Exec(ctx, query,
			p.ID, p.MatchID, p.Market, p.Probability, p.FairOdds,
			p.ImpliedProbability, p.EdgeVsMarket, p.KellyFraction, p.ExpectedValue,
			p.ConfidenceScore, p.DataQuality, components, p.ComputedAt,
			p.ExpiresAt, flags, factors,
		)
		var pgErr *pgconn.PgError
		if errors.As(execErr, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("prediction %s: %w", p.ID, models.ErrDuplicateKey)
		}
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns predictions matching the filters, newest first
func (r *PostgresPredictionRepository) List(ctx context.Context, filters models.PredictionFilters, limit, offset int) ([]*models.MarketPrediction, error) {
	if limit <= 0 {
		limit = 50
	}

	var out []*models.MarketPrediction
	err := r.guard.do(ctx, "predictions.list", func() error {
		where := []string{"1=1"}
		args := []interface{}{}
		if filters.MatchID != "" {
			args = append(args, filters.MatchID)
			where = append(where, fmt.Sprintf("match_id = $%d", len(args)))
		}
		if filters.Market != "" {
			args = append(args, filters.Market)
			where = append(where, fmt.Sprintf("market_id = $%d", len(args)))
		}
		args = append(args, limit, offset)

		query := fmt.Sprintf(`
			SELECT prediction_id, match_id, market_id, probability, fair_odds,
			       implied_probability, edge_vs_market, kelly_fraction, expected_value,
			       confidence_score, data_quality, model_components, computed_at,
			       expires_at, warning_flags, contributing_factors
			FROM predictions
			WHERE %s
			ORDER BY computed_at DESC
			LIMIT $%d OFFSET $%d
		`, strings.Join(where, " AND "), len(args)-1, len(args))

		rows, err := r.db.GetPool().Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to query predictions: %w", err)
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			p, err := scanPrediction(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies a patch to an existing prediction
func (r *PostgresPredictionRepository) Update(ctx context.Context, id uuid.UUID, patch models.PredictionPatch) error {
	return r.guard.do(ctx, "predictions.update", func() error {
		set := []string{}
		args := []interface{}{}
		add := func(col string, v interface{}) {
			args = append(args, v)
			set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
		}

		if patch.Probability != nil {
			add("probability", *patch.Probability)
			add("fair_odds", 1.0 / *patch.Probability)
		}
		if patch.ConfidenceScore != nil {
			add("confidence_score", *patch.ConfidenceScore)
		}
		if patch.DataQuality != nil {
			add("data_quality", *patch.DataQuality)
		}
		if patch.WarningFlags != nil {
			flags, err := json.Marshal(patch.WarningFlags)
			if err != nil {
				return fmt.Errorf("failed to marshal warning flags: %w", err)
			}
			add("warning_flags", flags)
		}
		if patch.ExpiresAt != nil {
			add("expires_at", *patch.ExpiresAt)
		}
		if len(set) == 0 {
			return nil
		}

		args = append(args, id)
		query := fmt.Sprintf("UPDATE predictions SET %s WHERE prediction_id = $%d",
			strings.Join(set, ", "), len(args))

		tag, err := r.db.GetPool().Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update prediction: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("prediction %s: %w", id, models.ErrNotFound)
		}
		return nil
	})
}

// Delete removes a prediction, reporting whether a row existed
func (r *PostgresPredictionRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted := false
	err := r.guard.do(ctx, "predictions.delete", func() error {
		tag, err := r.db.GetPool().Exec(ctx, "DELETE FROM predictions WHERE prediction_id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete prediction: %w", err)
		}
		deleted = tag.RowsAffected() > 0
		return nil
	})
	return deleted, err
}

func scanPrediction(rows pgx.Rows) (*models.MarketPrediction, error) {
	p := &models.MarketPrediction{}
	var components, flags, factors []byte
	if err := rows.Scan(
		&p.ID, &p.MatchID, &p.Market, &p.Probability, &p.FairOdds,
		&p.ImpliedProbability, &p.EdgeVsMarket, &p.KellyFraction, &p.ExpectedValue,
		&p.ConfidenceScore, &p.DataQuality, &components, &p.ComputedAt,
		&p.ExpiresAt, &flags, &factors,
	); err != nil {
		return nil, fmt.Errorf("failed to scan prediction: %w", err)
	}
	if len(components) > 0 {
		if err := json.Unmarshal(components, &p.ModelComponents); err != nil {
			return nil, fmt.Errorf("failed to unmarshal model components: %w", err)
		}
	}
	if len(flags) > 0 {
		if err := json.Unmarshal(flags, &p.WarningFlags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal warning flags: %w", err)
		}
	}
	if len(factors) > 0 {
		if err := json.Unmarshal(factors, &p.ContributingFactors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal contributing factors: %w", err)
		}
	}
	return p, nil
}

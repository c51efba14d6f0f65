// Package repository implements the typed store port over PostgreSQL,
// plus an in-memory fake for tests and paper runs.
package repository

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/pitch-edge/internal/database"
	"github.com/yourusername/pitch-edge/internal/normalize"
)

// NewPostgresGateway wires all PostgreSQL repository implementations.
// Store calls are wrapped with retry and a shared circuit breaker so a
// failing database degrades to STORE_UNAVAILABLE instead of hanging the
// pipeline.
func NewPostgresGateway(db *database.DB, mapper *normalize.Mapper, log *logrus.Logger) (*Gateway, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if mapper == nil {
		mapper = normalize.NewMapper(nil)
	}

	guard := newStoreGuard(log)

	return &Gateway{
		TeamProfiles: &PostgresTeamProfileRepository{db: db, mapper: mapper, guard: guard},
		Friction:     &PostgresFrictionRepository{db: db, mapper: mapper, guard: guard},
		Odds:         &PostgresOddsRepository{db: db, guard: guard},
		Portfolio:    &PostgresPortfolioRepository{db: db, guard: guard},
		Predictions:  &PostgresPredictionRepository{db: db, guard: guard},
		Decisions:    &PostgresDecisionRepository{db: db, guard: guard},
	}, nil
}

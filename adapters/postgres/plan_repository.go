package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"seqab/domain/core"
	"seqab/domain/plan"
	apperrors "seqab/internal/errors"
	"seqab/ports"
)

// PlanRepositoryImpl implements PlanRepository for PostgreSQL
type PlanRepositoryImpl struct {
	db *sqlx.DB
}

// NewPlanRepository creates a new PostgreSQL plan repository
func NewPlanRepository(db *sqlx.DB) ports.PlanRepository {
	return &PlanRepositoryImpl{db: db}
}

// EnsureSchema creates the experiment_plans table if it does not exist.
func EnsureSchema(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS experiment_plans (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			spec JSONB NOT NULL,
			targets JSONB NOT NULL,
			boundaries JSONB NOT NULL,
			result JSONB,
			race_walk JSONB,
			reference JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create experiment_plans table: %w", err)
	}
	return nil
}

// Save inserts or updates an experiment plan
func (r *PlanRepositoryImpl) Save(ctx context.Context, p *plan.ExperimentPlan) error {
	specJSON, err := json.Marshal(p.Spec)
	if err != nil {
		return fmt.Errorf("failed to marshal spec: %w", err)
	}
	targetsJSON, err := json.Marshal(p.Targets)
	if err != nil {
		return fmt.Errorf("failed to marshal targets: %w", err)
	}
	boundsJSON, err := json.Marshal(p.Bounds)
	if err != nil {
		return fmt.Errorf("failed to marshal boundaries: %w", err)
	}

	var resultJSON, raceWalkJSON, referenceJSON []byte
	if p.Result != nil {
		if resultJSON, err = json.Marshal(p.Result); err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
	}
	if p.RaceWalk != nil {
		if raceWalkJSON, err = json.Marshal(p.RaceWalk); err != nil {
			return fmt.Errorf("failed to marshal race walk plan: %w", err)
		}
	}
	if p.Reference != nil {
		if referenceJSON, err = json.Marshal(p.Reference); err != nil {
			return fmt.Errorf("failed to marshal reference: %w", err)
		}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO experiment_plans (
			id, name, spec, targets, boundaries, result, race_walk, reference, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			spec = EXCLUDED.spec,
			targets = EXCLUDED.targets,
			boundaries = EXCLUDED.boundaries,
			result = EXCLUDED.result,
			race_walk = EXCLUDED.race_walk,
			reference = EXCLUDED.reference,
			updated_at = NOW()`,
		p.ID.String(), p.Name, specJSON, targetsJSON, boundsJSON,
		nullableJSON(resultJSON), nullableJSON(raceWalkJSON), nullableJSON(referenceJSON),
		p.CreatedAt.Time())
	return apperrors.WithCode(apperrors.CodeDatabaseError, err)
}

// GetByID retrieves an experiment plan by its identifier
func (r *PlanRepositoryImpl) GetByID(ctx context.Context, id core.ID) (*plan.ExperimentPlan, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, spec, targets, boundaries, result, race_walk, reference, created_at, updated_at
		FROM experiment_plans
		WHERE id = $1`, id.String())

	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrPlanNotFound
	}
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeDatabaseError, err)
	}
	return p, nil
}

// List returns plans ordered by creation time, newest first
func (r *PlanRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*plan.ExperimentPlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, spec, targets, boundaries, result, race_walk, reference, created_at, updated_at
		FROM experiment_plans
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeDatabaseError, err)
	}
	defer rows.Close()

	var plans []*plan.ExperimentPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, apperrors.WithCode(apperrors.CodeDatabaseError, err)
		}
		plans = append(plans, p)
	}
	return plans, apperrors.WithCode(apperrors.CodeDatabaseError, rows.Err())
}

// Delete removes a plan
func (r *PlanRepositoryImpl) Delete(ctx context.Context, id core.ID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM experiment_plans WHERE id = $1`, id.String())
	if err != nil {
		return apperrors.WithCode(apperrors.CodeDatabaseError, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrPlanNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlan(row rowScanner) (*plan.ExperimentPlan, error) {
	var p plan.ExperimentPlan
	var id string
	var specJSON, targetsJSON, boundsJSON []byte
	var resultJSON, raceWalkJSON, referenceJSON []byte
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(&id, &p.Name, &specJSON, &targetsJSON, &boundsJSON,
		&resultJSON, &raceWalkJSON, &referenceJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.ID = core.ID(id)
	if err := json.Unmarshal(specJSON, &p.Spec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal spec: %w", err)
	}
	if err := json.Unmarshal(targetsJSON, &p.Targets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal targets: %w", err)
	}
	if err := json.Unmarshal(boundsJSON, &p.Bounds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal boundaries: %w", err)
	}
	if len(resultJSON) > 0 {
		p.Result = &plan.SimulationResult{}
		if err := json.Unmarshal(resultJSON, p.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
	}
	if len(raceWalkJSON) > 0 {
		p.RaceWalk = &plan.RaceWalkPlan{}
		if err := json.Unmarshal(raceWalkJSON, p.RaceWalk); err != nil {
			return nil, fmt.Errorf("failed to unmarshal race walk plan: %w", err)
		}
	}
	if len(referenceJSON) > 0 {
		p.Reference = &plan.FixedHorizonReference{}
		if err := json.Unmarshal(referenceJSON, p.Reference); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reference: %w", err)
		}
	}
	if createdAt.Valid {
		p.CreatedAt = core.NewTimestamp(createdAt.Time)
	}
	if updatedAt.Valid {
		p.UpdatedAt = core.NewTimestamp(updatedAt.Time)
	}
	return &p, nil
}

// nullableJSON maps empty payloads to SQL NULL instead of empty strings.
func nullableJSON(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return data
}

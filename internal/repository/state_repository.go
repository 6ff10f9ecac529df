package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelens/hirelens/internal/model"
)

// StateRepository persists the adaptive-engine state for live attempts.
// Redis is the hot copy; this table is the fallback that survives cache
// eviction or a Redis restart mid-attempt.
type StateRepository struct {
	pool *pgxpool.Pool
}

// NewStateRepository creates a new StateRepository.
func NewStateRepository(pool *pgxpool.Pool) *StateRepository {
	return &StateRepository{pool: pool}
}

// Upsert stores the serialized engine state for an attempt.
func (r *StateRepository) Upsert(ctx context.Context, attemptID int, state json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO assessment_states (attempt_id, state, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (attempt_id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		attemptID, state)
	return err
}

// Get loads the engine state for an attempt, or nil when none is stored.
func (r *StateRepository) Get(ctx context.Context, attemptID int) (*model.EngineState, error) {
	var raw json.RawMessage
	err := r.pool.QueryRow(ctx,
		`SELECT state FROM assessment_states WHERE attempt_id = $1`, attemptID,
	).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st model.EngineState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Delete removes the stored state once an attempt is finalized.
func (r *StateRepository) Delete(ctx context.Context, attemptID int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM assessment_states WHERE attempt_id = $1`, attemptID)
	return err
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelens/hirelens/internal/model"
)

// ProctoringRepository handles persisted proctoring events.
type ProctoringRepository struct {
	pool *pgxpool.Pool
}

// NewProctoringRepository creates a new ProctoringRepository.
func NewProctoringRepository(pool *pgxpool.Pool) *ProctoringRepository {
	return &ProctoringRepository{pool: pool}
}

// InsertBatch bulk-inserts events using the Postgres COPY protocol.
func (r *ProctoringRepository) InsertBatch(ctx context.Context, events []model.ProctoringEvent) error {
	rows := make([][]interface{}, 0, len(events))
	for _, e := range events {
		rows = append(rows, []interface{}{e.AttemptID, e.EventType, e.Detail, e.OccurredAt})
	}
	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"proctoring_events"},
		[]string{"attempt_id", "event_type", "detail", "occurred_at"},
		pgx.CopyFromRows(rows))
	return err
}

// Insert stores a single event. Used as the row-by-row fallback when a
// batch insert fails.
func (r *ProctoringRepository) Insert(ctx context.Context, e model.ProctoringEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO proctoring_events (attempt_id, event_type, detail, occurred_at)
		 VALUES ($1, $2, $3, $4)`,
		e.AttemptID, e.EventType, e.Detail, e.OccurredAt)
	return err
}

// ListByAttempt retrieves all events recorded for an attempt in order.
func (r *ProctoringRepository) ListByAttempt(ctx context.Context, attemptID int) ([]model.ProctoringEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT attempt_id, event_type, detail, occurred_at
		 FROM proctoring_events WHERE attempt_id = $1 ORDER BY occurred_at`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ProctoringEvent
	for rows.Next() {
		var e model.ProctoringEvent
		if err := rows.Scan(&e.AttemptID, &e.EventType, &e.Detail, &e.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

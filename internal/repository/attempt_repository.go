package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelens/hirelens/internal/model"
)

// AttemptRepository handles assessment attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// GetByID retrieves an attempt by ID.
func (r *AttemptRepository) GetByID(ctx context.Context, id int) (*model.AssessmentAttempt, error) {
	a := &model.AssessmentAttempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, candidate_id, job_id, status, started_at, completed_at, performance, proctoring, created_at, updated_at
		 FROM assessment_attempts WHERE id = $1`, id,
	).Scan(&a.ID, &a.CandidateID, &a.JobID, &a.Status, &a.StartedAt, &a.CompletedAt, &a.Performance, &a.Proctoring, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create registers a new attempt for a candidate and job.
func (r *AttemptRepository) Create(ctx context.Context, candidateID, jobID int) (*model.AssessmentAttempt, error) {
	a := &model.AssessmentAttempt{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO assessment_attempts (candidate_id, job_id, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, candidate_id, job_id, status, started_at, completed_at, performance, proctoring, created_at, updated_at`,
		candidateID, jobID, model.AttemptStatusRegistered,
	).Scan(&a.ID, &a.CandidateID, &a.JobID, &a.Status, &a.StartedAt, &a.CompletedAt, &a.Performance, &a.Proctoring, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// MarkStarted transitions an attempt to started and stamps the start time.
func (r *AttemptRepository) MarkStarted(ctx context.Context, id int, startedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assessment_attempts
		 SET status = $1, started_at = $2, updated_at = now()
		 WHERE id = $3`,
		model.AttemptStatusStarted, startedAt, id)
	return err
}

// MarkCompleted finalizes an attempt with its performance log and merged
// proctoring data. Only a started attempt can complete; the row count
// tells the caller whether this call was the one that finalized it.
func (r *AttemptRepository) MarkCompleted(ctx context.Context, id int, performance, proctoring json.RawMessage) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assessment_attempts
		 SET status = $1, completed_at = now(), performance = $2, proctoring = $3, updated_at = now()
		 WHERE id = $4 AND status = $5`,
		model.AttemptStatusCompleted, performance, proctoring, id, model.AttemptStatusStarted)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListCompletedByJob retrieves completed attempts for a job, newest first.
func (r *AttemptRepository) ListCompletedByJob(ctx context.Context, jobID, limit, offset int) ([]model.AssessmentAttempt, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM assessment_attempts WHERE job_id = $1 AND status = $2`,
		jobID, model.AttemptStatusCompleted,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, candidate_id, job_id, status, started_at, completed_at, performance, proctoring, created_at, updated_at
		 FROM assessment_attempts
		 WHERE job_id = $1 AND status = $2
		 ORDER BY completed_at DESC LIMIT $3 OFFSET $4`,
		jobID, model.AttemptStatusCompleted, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.AssessmentAttempt
	for rows.Next() {
		var a model.AssessmentAttempt
		if err := rows.Scan(&a.ID, &a.CandidateID, &a.JobID, &a.Status, &a.StartedAt, &a.CompletedAt, &a.Performance, &a.Proctoring, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

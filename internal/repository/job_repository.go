package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelens/hirelens/internal/model"
)

// JobRepository handles job posting data access.
type JobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

// GetByID retrieves a job by ID.
func (r *JobRepository) GetByID(ctx context.Context, id int) (*model.Job, error) {
	j := &model.Job{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, duration_minutes, total_questions, experience_min, experience_max, schedule_start, schedule_end, created_at, updated_at
		 FROM jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.Title, &j.Description, &j.DurationMinutes, &j.TotalQuestions, &j.ExperienceMin, &j.ExperienceMax, &j.ScheduleStart, &j.ScheduleEnd, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return j, nil
}

// GetSkills retrieves a job's required skills ordered by priority,
// highest first.
func (r *JobRepository) GetSkills(ctx context.Context, jobID int) ([]model.JobSkill, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT job_id, skill_name, priority
		 FROM job_skills WHERE job_id = $1 ORDER BY priority DESC, skill_name`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skills []model.JobSkill
	for rows.Next() {
		var s model.JobSkill
		if err := rows.Scan(&s.JobID, &s.SkillName, &s.Priority); err != nil {
			return nil, err
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

// List retrieves jobs newest first with total count for pagination.
func (r *JobRepository) List(ctx context.Context, limit, offset int) ([]model.Job, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, duration_minutes, total_questions, experience_min, experience_max, schedule_start, schedule_end, created_at, updated_at
		 FROM jobs ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		var j model.Job
		if err := rows.Scan(&j.ID, &j.Title, &j.Description, &j.DurationMinutes, &j.TotalQuestions, &j.ExperienceMin, &j.ExperienceMax, &j.ScheduleStart, &j.ScheduleEnd, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, j)
	}
	return jobs, total, rows.Err()
}

// Create inserts a job and its skills in one transaction.
func (r *JobRepository) Create(ctx context.Context, job *model.Job, skills []model.JobSkill) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO jobs (title, description, duration_minutes, total_questions, experience_min, experience_max, schedule_start, schedule_end)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		job.Title, job.Description, job.DurationMinutes, job.TotalQuestions,
		job.ExperienceMin, job.ExperienceMax, job.ScheduleStart, job.ScheduleEnd,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return err
	}

	for _, s := range skills {
		if _, err := tx.Exec(ctx,
			`INSERT INTO job_skills (job_id, skill_name, priority) VALUES ($1, $2, $3)`,
			job.ID, s.SkillName, s.Priority); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Update modifies a job's fields.
func (r *JobRepository) Update(ctx context.Context, job *model.Job) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE jobs SET title = $1, description = $2, duration_minutes = $3, total_questions = $4,
		        experience_min = $5, experience_max = $6, schedule_start = $7, schedule_end = $8, updated_at = NOW()
		 WHERE id = $9`,
		job.Title, job.Description, job.DurationMinutes, job.TotalQuestions,
		job.ExperienceMin, job.ExperienceMax, job.ScheduleStart, job.ScheduleEnd, job.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a job. Skills and attempts cascade at the schema level.
func (r *JobRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ReplaceSkills swaps a job's skill set atomically.
func (r *JobRepository) ReplaceSkills(ctx context.Context, jobID int, skills []model.JobSkill) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM job_skills WHERE job_id = $1`, jobID); err != nil {
		return err
	}
	for _, s := range skills {
		if _, err := tx.Exec(ctx,
			`INSERT INTO job_skills (job_id, skill_name, priority) VALUES ($1, $2, $3)`,
			jobID, s.SkillName, s.Priority); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelens/hirelens/internal/model"
)

// DashboardRepository handles recruiter dashboard data access.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// GetSummaryCounts retrieves the high-level metrics for the dashboard.
func (r *DashboardRepository) GetSummaryCounts(ctx context.Context) (totalCandidates, totalJobs, totalQuestions, totalAttempts int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM candidates),
			(SELECT COUNT(*) FROM jobs),
			(SELECT COUNT(*) FROM mcqs),
			(SELECT COUNT(*) FROM assessment_attempts)`,
	).Scan(&totalCandidates, &totalJobs, &totalQuestions, &totalAttempts)
	return
}

// GetAttemptStatusCounts retrieves the distribution of attempts by status.
func (r *DashboardRepository) GetAttemptStatusCounts(ctx context.Context) (map[model.AttemptStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM assessment_attempts GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.AttemptStatus]int)
	for rows.Next() {
		var status model.AttemptStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// DashboardUpcomingJob is a job whose assessment window has not opened yet.
type DashboardUpcomingJob struct {
	ID            int        `json:"id"`
	Title         string     `json:"title"`
	ScheduleStart *time.Time `json:"schedule_start"`
	Duration      int        `json:"duration_minutes"`
}

// GetUpcomingJobs retrieves the next N jobs with a future schedule window.
func (r *DashboardRepository) GetUpcomingJobs(ctx context.Context, limit int) ([]DashboardUpcomingJob, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, schedule_start, duration_minutes
		 FROM jobs
		 WHERE schedule_start > NOW()
		 ORDER BY schedule_start ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []DashboardUpcomingJob
	for rows.Next() {
		var j DashboardUpcomingJob
		if err := rows.Scan(&j.ID, &j.Title, &j.ScheduleStart, &j.Duration); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if jobs == nil {
		jobs = []DashboardUpcomingJob{}
	}
	return jobs, rows.Err()
}

// DashboardJobResult aggregates completed attempts per job.
type DashboardJobResult struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	LastCompletedAt *time.Time `json:"last_completed_at"`
	CompletedCount  int        `json:"completed_count"`
	AverageAccuracy *float64   `json:"average_accuracy"`
	ForcedCount     int        `json:"forced_count"`
}

// GetRecentJobResults retrieves the last N jobs with completed attempts,
// with completion, accuracy and forced-termination aggregates pulled
// from the stored reports.
func (r *DashboardRepository) GetRecentJobResults(ctx context.Context, limit int) ([]DashboardJobResult, error) {
	// performance is a skill -> report map, so accuracy averages over
	// the expanded per-skill entries.
	query := `
		SELECT
			j.id,
			j.title,
			MAX(a.completed_at) AS last_completed_at,
			COUNT(DISTINCT a.id) AS completed_count,
			AVG((sp.value->>'accuracy_percent')::float) AS average_accuracy,
			COUNT(DISTINCT a.id) FILTER (WHERE (a.proctoring->>'forced_termination')::bool) AS forced_count
		FROM jobs j
		JOIN assessment_attempts a ON a.job_id = j.id AND a.status = $1
		LEFT JOIN LATERAL jsonb_each(a.performance) sp ON TRUE
		GROUP BY j.id, j.title
		ORDER BY last_completed_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, model.AttemptStatusCompleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []DashboardJobResult
	for rows.Next() {
		var jr DashboardJobResult
		if err := rows.Scan(&jr.ID, &jr.Title, &jr.LastCompletedAt, &jr.CompletedCount, &jr.AverageAccuracy, &jr.ForcedCount); err != nil {
			return nil, err
		}
		results = append(results, jr)
	}
	if results == nil {
		results = []DashboardJobResult{}
	}
	return results, rows.Err()
}

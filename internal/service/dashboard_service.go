package service

import (
	"context"

	"github.com/hirelens/hirelens/internal/model"
	"github.com/hirelens/hirelens/internal/repository"
)

// DashboardData consolidates all metrics for the recruiter dashboard.
type DashboardData struct {
	TotalCandidates     int                               `json:"total_candidates"`
	TotalJobs           int                               `json:"total_jobs"`
	TotalQuestions      int                               `json:"total_questions"`
	TotalAttempts       int                               `json:"total_attempts"`
	AttemptStatusCounts map[model.AttemptStatus]int       `json:"attempt_status_counts"`
	UpcomingJobs        []repository.DashboardUpcomingJob `json:"upcoming_jobs"`
	RecentJobResults    []repository.DashboardJobResult   `json:"recent_job_results"`
}

// DashboardService handles recruiter dashboard business logic.
type DashboardService struct {
	repo *repository.DashboardRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo *repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// GetDashboardData fetches every dashboard metric.
func (s *DashboardService) GetDashboardData(ctx context.Context) (*DashboardData, error) {
	candidates, jobs, questions, attempts, err := s.repo.GetSummaryCounts(ctx)
	if err != nil {
		return nil, err
	}

	statusCounts, err := s.repo.GetAttemptStatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.repo.GetUpcomingJobs(ctx, 5)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.GetRecentJobResults(ctx, 5)
	if err != nil {
		return nil, err
	}

	return &DashboardData{
		TotalCandidates:     candidates,
		TotalJobs:           jobs,
		TotalQuestions:      questions,
		TotalAttempts:       attempts,
		AttemptStatusCounts: statusCounts,
		UpcomingJobs:        upcoming,
		RecentJobResults:    recent,
	}, nil
}

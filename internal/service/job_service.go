package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hirelens/hirelens/internal/config"
	"github.com/hirelens/hirelens/internal/model"
	"github.com/hirelens/hirelens/internal/repository"
	"github.com/hirelens/hirelens/internal/response"
)

// BankRefillTask asks the generation worker to top a skill band up to a
// minimum bank size.
type BankRefillTask struct {
	Skill    string               `json:"skill"`
	Band     model.DifficultyBand `json:"band"`
	MinCount int                  `json:"min_count"`
}

// bankTargetPerBand is the bank size PrepareBank tops each skill band
// up to.
const bankTargetPerBand = 10

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrScheduleWindow = errors.New("schedule end must be after schedule start")
)

// JobService handles job posting business logic.
type JobService struct {
	jobs *repository.JobRepository
	mcqs *repository.MCQRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewJobService creates a new JobService.
func NewJobService(jobs *repository.JobRepository, mcqs *repository.MCQRepository, rdb *redis.Client, log zerolog.Logger) *JobService {
	return &JobService{
		jobs: jobs,
		mcqs: mcqs,
		rdb:  rdb,
		log:  log.With().Str("component", "job_service").Logger(),
	}
}

// List retrieves jobs newest first.
func (s *JobService) List(ctx context.Context, page, perPage int) ([]model.Job, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	jobs, total, err := s.jobs.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if jobs == nil {
		jobs = []model.Job{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return jobs, pagination, nil
}

// Get retrieves a job with its skill requirements.
func (s *JobService) Get(ctx context.Context, id int) (*model.JobWithSkills, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	skills, err := s.jobs.GetSkills(ctx, id)
	if err != nil {
		return nil, err
	}
	if skills == nil {
		skills = []model.JobSkill{}
	}
	return &model.JobWithSkills{Job: *job, Skills: skills}, nil
}

// Create inserts a job with its skills and queues question bank refills
// for every skill so assessments never start against an empty bank.
func (s *JobService) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req.ScheduleStart != nil && req.ScheduleEnd != nil && !req.ScheduleEnd.After(*req.ScheduleStart) {
		return nil, ErrScheduleWindow
	}

	job := &model.Job{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		TotalQuestions:  req.TotalQuestions,
		ExperienceMin:   req.ExperienceMin,
		ExperienceMax:   req.ExperienceMax,
		ScheduleStart:   req.ScheduleStart,
		ScheduleEnd:     req.ScheduleEnd,
	}
	skills := make([]model.JobSkill, len(req.Skills))
	for i, in := range req.Skills {
		skills[i] = model.JobSkill{SkillName: in.SkillName, Priority: in.Priority}
	}

	if err := s.jobs.Create(ctx, job, skills); err != nil {
		return nil, err
	}

	s.enqueueRefills(ctx, skills)
	s.log.Info().Int("job_id", job.ID).Str("title", job.Title).Msg("Job created")
	return job, nil
}

// Update modifies a job and replaces its skill set.
func (s *JobService) Update(ctx context.Context, id int, req *model.UpdateJobRequest) (*model.Job, error) {
	if req.ScheduleStart != nil && req.ScheduleEnd != nil && !req.ScheduleEnd.After(*req.ScheduleStart) {
		return nil, ErrScheduleWindow
	}

	job := &model.Job{
		ID:              id,
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		TotalQuestions:  req.TotalQuestions,
		ExperienceMin:   req.ExperienceMin,
		ExperienceMax:   req.ExperienceMax,
		ScheduleStart:   req.ScheduleStart,
		ScheduleEnd:     req.ScheduleEnd,
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	skills := make([]model.JobSkill, len(req.Skills))
	for i, in := range req.Skills {
		skills[i] = model.JobSkill{JobID: id, SkillName: in.SkillName, Priority: in.Priority}
	}
	if err := s.jobs.ReplaceSkills(ctx, id, skills); err != nil {
		return nil, err
	}

	s.enqueueRefills(ctx, skills)
	return s.jobs.GetByID(ctx, id)
}

// Delete removes a job.
func (s *JobService) Delete(ctx context.Context, id int) error {
	if err := s.jobs.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrJobNotFound
		}
		return err
	}
	return nil
}

// BankStatus reports the bank size per band for each of a job's skills.
func (s *JobService) BankStatus(ctx context.Context, id int) (map[string]map[model.DifficultyBand]int, error) {
	skills, err := s.jobs.GetSkills(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(skills) == 0 {
		return nil, ErrJobNotFound
	}

	status := make(map[string]map[model.DifficultyBand]int, len(skills))
	for _, sk := range skills {
		counts, err := s.mcqs.CountBySkillBand(ctx, sk.SkillName)
		if err != nil {
			return nil, err
		}
		for _, band := range model.BandOrder {
			if _, ok := counts[band]; !ok {
				counts[band] = 0
			}
		}
		status[sk.SkillName] = counts
	}
	return status, nil
}

// PrepareBank queues a refill task per skill and band. Generation runs
// asynchronously; BankStatus shows progress.
func (s *JobService) PrepareBank(ctx context.Context, id int) (int, error) {
	skills, err := s.jobs.GetSkills(ctx, id)
	if err != nil {
		return 0, err
	}
	if len(skills) == 0 {
		return 0, ErrJobNotFound
	}
	queued := s.enqueueRefills(ctx, skills)
	return queued, nil
}

// enqueueRefills pushes one refill task per skill and band. Failures
// only log; the bank falls back to whatever it already holds.
func (s *JobService) enqueueRefills(ctx context.Context, skills []model.JobSkill) int {
	queued := 0
	pipe := s.rdb.Pipeline()
	for _, sk := range skills {
		for _, band := range model.BandOrder {
			task := BankRefillTask{Skill: sk.SkillName, Band: band, MinCount: bankTargetPerBand}
			payload, err := json.Marshal(task)
			if err != nil {
				continue
			}
			pipe.RPush(ctx, config.WorkerKey.BankRefillQueue, payload)
			queued++
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to queue bank refill tasks")
		return 0
	}
	s.log.Debug().Int("tasks", queued).Int("skills", len(skills)).Msg("Queued bank refill tasks")
	return queued
}

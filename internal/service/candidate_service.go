package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/hirelens/hirelens/internal/model"
	"github.com/hirelens/hirelens/internal/repository"
	"github.com/hirelens/hirelens/internal/response"
)

var ErrCandidateNotFound = errors.New("candidate not found")

// CandidateService handles recruiter-side candidate management.
type CandidateService struct {
	candidates *repository.CandidateRepository
	attempts   *repository.AttemptRepository
	jobs       *repository.JobRepository
}

// NewCandidateService creates a new CandidateService.
func NewCandidateService(candidates *repository.CandidateRepository, attempts *repository.AttemptRepository, jobs *repository.JobRepository) *CandidateService {
	return &CandidateService{candidates: candidates, attempts: attempts, jobs: jobs}
}

// List retrieves candidates with pagination.
func (s *CandidateService) List(ctx context.Context, page, perPage int) ([]model.Candidate, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	candidates, total, err := s.candidates.ListPaginated(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if candidates == nil {
		candidates = []model.Candidate{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return candidates, pagination, nil
}

// Get retrieves a candidate with their declared skills.
func (s *CandidateService) Get(ctx context.Context, id int) (*model.CandidateWithSkills, error) {
	candidate, err := s.candidates.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}
	skills, err := s.candidates.GetSkills(ctx, id)
	if err != nil {
		return nil, err
	}
	if skills == nil {
		skills = []model.CandidateSkill{}
	}
	return &model.CandidateWithSkills{Candidate: *candidate, Skills: skills}, nil
}

// Create registers a candidate with a hashed password and declared
// skills.
func (s *CandidateService) Create(ctx context.Context, req *model.CreateCandidateRequest) (*model.Candidate, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	candidate := &model.Candidate{
		Email:           req.Email,
		FullName:        req.FullName,
		PasswordHash:    string(hashed),
		ExperienceYears: req.ExperienceYears,
	}
	id, err := s.candidates.Create(ctx, candidate)
	if err != nil {
		return nil, err
	}
	candidate.ID = id

	if len(req.Skills) > 0 {
		if err := s.candidates.ReplaceSkills(ctx, id, toCandidateSkills(id, req.Skills)); err != nil {
			return nil, err
		}
	}
	return s.candidates.GetByID(ctx, id)
}

// Update modifies a candidate's profile, optionally their password, and
// replaces their skills when provided.
func (s *CandidateService) Update(ctx context.Context, id int, req *model.UpdateCandidateRequest) (*model.Candidate, error) {
	candidate := &model.Candidate{
		ID:              id,
		Email:           req.Email,
		FullName:        req.FullName,
		ExperienceYears: req.ExperienceYears,
	}
	if err := s.candidates.Update(ctx, candidate); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}

	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		if err := s.candidates.UpdatePassword(ctx, id, string(hashed)); err != nil {
			return nil, err
		}
	}

	if req.Skills != nil {
		if err := s.candidates.ReplaceSkills(ctx, id, toCandidateSkills(id, req.Skills)); err != nil {
			return nil, err
		}
	}
	return s.candidates.GetByID(ctx, id)
}

// Delete removes a candidate.
func (s *CandidateService) Delete(ctx context.Context, id int) error {
	if err := s.candidates.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrCandidateNotFound
		}
		return err
	}
	return nil
}

// Invite registers an assessment attempt for a candidate against a
// job. The attempt stays in REGISTERED until the candidate starts it.
func (s *CandidateService) Invite(ctx context.Context, candidateID, jobID int) (*model.AssessmentAttempt, error) {
	if _, err := s.candidates.GetByID(ctx, candidateID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}
	if _, err := s.jobs.GetByID(ctx, jobID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return s.attempts.Create(ctx, candidateID, jobID)
}

func toCandidateSkills(candidateID int, inputs []model.CandidateSkillInput) []model.CandidateSkill {
	skills := make([]model.CandidateSkill, len(inputs))
	for i, in := range inputs {
		skills[i] = model.CandidateSkill{
			CandidateID: candidateID,
			SkillName:   in.SkillName,
			Proficiency: in.Proficiency,
		}
	}
	return skills
}

package service

import (
	"context"
	"errors"

	"github.com/hirelens/hirelens/internal/model"
	"github.com/hirelens/hirelens/internal/repository"
	"github.com/hirelens/hirelens/internal/response"
)

var ErrMCQNotFound = errors.New("question not found")

// MCQService handles question bank management.
type MCQService struct {
	mcqs *repository.MCQRepository
	gen  *QuestionGenService
}

// NewMCQService creates a new MCQService.
func NewMCQService(mcqs *repository.MCQRepository, gen *QuestionGenService) *MCQService {
	return &MCQService{mcqs: mcqs, gen: gen}
}

// List retrieves bank questions, optionally filtered by skill and band.
func (s *MCQService) List(ctx context.Context, skill string, band model.DifficultyBand, page, perPage int) ([]model.MCQ, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	mcqs, total, err := s.mcqs.ListPaginated(ctx, skill, band, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if mcqs == nil {
		mcqs = []model.MCQ{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return mcqs, pagination, nil
}

// Create adds a hand-written question to the bank.
func (s *MCQService) Create(ctx context.Context, req *model.CreateMCQRequest) (*model.MCQ, error) {
	mcq := model.MCQ{
		Skill:         req.Skill,
		Band:          model.DifficultyBand(req.Band),
		QuestionText:  req.QuestionText,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Source:        "manual",
	}
	ids, err := s.mcqs.InsertBatch(ctx, []model.MCQ{mcq})
	if err != nil {
		return nil, err
	}
	return s.mcqs.GetByID(ctx, ids[0])
}

// Update modifies a bank question.
func (s *MCQService) Update(ctx context.Context, id int, req *model.UpdateMCQRequest) (*model.MCQ, error) {
	mcq := &model.MCQ{
		ID:            id,
		Skill:         req.Skill,
		Band:          model.DifficultyBand(req.Band),
		QuestionText:  req.QuestionText,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
	}
	if err := s.mcqs.Update(ctx, mcq); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrMCQNotFound
		}
		return nil, err
	}
	return s.mcqs.GetByID(ctx, id)
}

// Delete removes a question from the bank.
func (s *MCQService) Delete(ctx context.Context, id int) error {
	if err := s.mcqs.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrMCQNotFound
		}
		return err
	}
	return nil
}

// Generate produces questions synchronously through the generation
// service. Generated questions are persisted before being returned.
func (s *MCQService) Generate(ctx context.Context, req *model.GenerateMCQRequest) ([]model.MCQ, error) {
	return s.gen.QuestionsFor(ctx, req.Skill, model.DifficultyBand(req.Band), req.Count)
}

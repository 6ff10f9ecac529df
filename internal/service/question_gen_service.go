package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/hirelens/hirelens/internal/model"
	"github.com/hirelens/hirelens/internal/repository"
)

// QuestionGenService produces MCQs for a skill and difficulty band. It
// asks Gemini first and falls back to the stored bank when generation is
// disabled or fails, so an assessment can always be assembled.
type QuestionGenService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	mcqRepo  *repository.MCQRepository
	rateChan chan struct{} // Token bucket
}

// NewQuestionGenService creates the service. An empty apiKey disables
// Gemini entirely; the bank becomes the only source.
func NewQuestionGenService(ctx context.Context, apiKey string, concurrentReqs int, mcqRepo *repository.MCQRepository) (*QuestionGenService, error) {
	s := &QuestionGenService{mcqRepo: mcqRepo}
	if apiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set, question generation disabled")
		return s, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	m := client.GenerativeModel("gemini-3-flash-preview")
	m.SetTemperature(0.4)
	m.SetTopP(0.95)

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	s.client = client
	s.model = m
	s.rateChan = rateChan
	return s, nil
}

// Close releases the underlying Gemini client.
func (s *QuestionGenService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// QuestionsFor returns count questions for a skill at a band. Generated
// questions are persisted to the bank before being returned so every
// served MCQ has a stable ID for grading.
func (s *QuestionGenService) QuestionsFor(ctx context.Context, skill string, band model.DifficultyBand, count int) ([]model.MCQ, error) {
	if s.model != nil {
		mcqs, err := s.generate(ctx, skill, band, count)
		if err != nil {
			log.Warn().Err(err).Str("skill", skill).Str("band", string(band)).
				Msg("gemini generation failed, falling back to question bank")
		} else if len(mcqs) > 0 {
			return mcqs, nil
		}
	}

	banked, err := s.mcqRepo.ListBySkill(ctx, skill, band, count)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	return banked, nil
}

func (s *QuestionGenService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(2 * time.Minute):
		return fmt.Errorf("timeout waiting for gemini rate slot")
	}
}

func (s *QuestionGenService) releaseRate() {
	s.rateChan <- struct{}{}
}

// generatedQuestion is the JSON shape requested from the prompt.
type generatedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

func (s *QuestionGenService) generate(ctx context.Context, skill string, band model.DifficultyBand, count int) ([]model.MCQ, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	prompt := buildMCQPrompt(skill, band, count)
	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}

	rawText := extractText(resp)
	rawText = strings.TrimPrefix(rawText, "```json")
	rawText = strings.TrimPrefix(rawText, "```")
	rawText = strings.TrimSuffix(rawText, "```")
	rawText = strings.TrimSpace(rawText)

	var parsed []generatedQuestion
	if err := json.Unmarshal([]byte(rawText), &parsed); err != nil {
		// Try to extract the JSON array from surrounding prose.
		start := strings.Index(rawText, "[")
		end := strings.LastIndex(rawText, "]")
		if start >= 0 && end > start {
			json.Unmarshal([]byte(rawText[start:end+1]), &parsed)
		}
	}

	mcqs := make([]model.MCQ, 0, len(parsed))
	for _, q := range parsed {
		if !validGenerated(q) {
			continue
		}
		mcqs = append(mcqs, model.MCQ{
			Skill:         skill,
			Band:          band,
			QuestionText:  strings.TrimSpace(q.Question),
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Source:        "gemini",
		})
	}
	if len(mcqs) == 0 {
		return nil, fmt.Errorf("no valid questions in gemini response")
	}

	ids, err := s.mcqRepo.InsertBatch(ctx, mcqs)
	if err != nil {
		return nil, fmt.Errorf("store generated questions: %w", err)
	}
	for i := range mcqs {
		mcqs[i].ID = ids[i]
	}
	return mcqs, nil
}

func validGenerated(q generatedQuestion) bool {
	if strings.TrimSpace(q.Question) == "" || len(q.Options) != 4 {
		return false
	}
	switch q.CorrectAnswer {
	case "1", "2", "3", "4":
	default:
		return false
	}
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return false
		}
	}
	return true
}

func buildMCQPrompt(skill string, band model.DifficultyBand, count int) string {
	var b strings.Builder

	b.WriteString("You are an expert technical interviewer. Generate multiple-choice screening questions.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON array. No preamble, no markdown, no backticks.\n\n")
	b.WriteString(fmt.Sprintf("Generate exactly %d questions about %s.\n", count, skill))

	switch band {
	case model.BandGood:
		b.WriteString("Difficulty: fundamentals a junior practitioner should know.\n")
	case model.BandBetter:
		b.WriteString("Difficulty: applied knowledge expected from a mid-level practitioner.\n")
	case model.BandPerfect:
		b.WriteString("Difficulty: edge cases and depth expected from a senior practitioner.\n")
	}

	b.WriteString(`
JSON schema per question:
{"question": "string", "options": ["string", "string", "string", "string"], "correct_answer": "1"|"2"|"3"|"4"}

correct_answer is the 1-based index into options.
`)
	return b.String()
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

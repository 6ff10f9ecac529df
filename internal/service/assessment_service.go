package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/hirelens/hirelens/internal/config"
	"github.com/hirelens/hirelens/internal/model"
	"github.com/hirelens/hirelens/internal/repository"
)

// Assessment flow errors mapped to HTTP statuses by the handler.
var (
	ErrAttemptNotFound     = errors.New("assessment attempt not found")
	ErrNotYourAttempt      = errors.New("attempt belongs to another candidate")
	ErrAttemptCompleted    = errors.New("assessment is already completed")
	ErrSessionNotFound     = errors.New("assessment session not found")
	ErrScheduleNotOpen     = errors.New("assessment has not opened yet")
	ErrScheduleClosed      = errors.New("assessment period has ended")
	ErrNoSkills            = errors.New("no required skills found for this job")
	ErrNoQuestions         = errors.New("no questions available for this job")
	ErrInvalidSkill        = errors.New("invalid skill provided")
	ErrInvalidAnswer       = errors.New("invalid answer provided")
	ErrInvalidMCQ          = errors.New("invalid mcq_id provided")
	ErrMissingTestDuration = errors.New("test duration is not configured for this job")
)

var greetingMessages = []string{
	"Alright, let's get started with your assessment! Here's your first question.",
	"Ready to show your skills? Here's the next question for you!",
	"Time to shine! Let's dive into this question.",
	"Here comes a new challenge. You've got this!",
}

var correctFeedback = []string{
	"✅ Nice one! That was spot on.",
	"🎉 Great job! You nailed it!",
	"✅ Perfect! Keep it up!",
	"🌟 Awesome! That's correct.",
}

var incorrectFeedback = []string{
	"❌ Oops! The correct answer was: %s",
	"😅 Not quite. The right answer was: %s",
	"❌ Missed that one. Correct answer: %s",
	"😬 Close, but the answer was: %s",
}

// AssessmentService runs the adaptive assessment engine for one attempt
// at a time. Live state is a JSON blob in Redis with a Postgres mirror;
// a cache miss reloads from the mirror so a Redis restart does not kill
// a running sitting.
type AssessmentService struct {
	cfg         *config.Config
	rdb         *redis.Client
	attempts    *repository.AttemptRepository
	jobs        *repository.JobRepository
	candidates  *repository.CandidateRepository
	states      *repository.StateRepository
	questionGen *QuestionGenService
	monitor     *MonitorService
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(
	cfg *config.Config,
	rdb *redis.Client,
	attempts *repository.AttemptRepository,
	jobs *repository.JobRepository,
	candidates *repository.CandidateRepository,
	states *repository.StateRepository,
	questionGen *QuestionGenService,
	monitor *MonitorService,
) *AssessmentService {
	return &AssessmentService{
		cfg:         cfg,
		rdb:         rdb,
		attempts:    attempts,
		jobs:        jobs,
		candidates:  candidates,
		states:      states,
		questionGen: questionGen,
		monitor:     monitor,
	}
}

// Start initializes the adaptive engine for an attempt and returns the
// duration and question budget the client will run against.
func (s *AssessmentService) Start(ctx context.Context, attemptID, candidateID int) (*model.StartAssessmentResponse, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.CandidateID != candidateID {
		return nil, ErrNotYourAttempt
	}
	if attempt.Status == model.AttemptStatusCompleted {
		return nil, ErrAttemptCompleted
	}

	// A stored state means the candidate is resuming (page reload, or a
	// start retry after a client-side failure). Reuse it as-is.
	if existing, err := s.states.Get(ctx, attemptID); err != nil {
		return nil, err
	} else if existing != nil {
		if err := s.saveState(ctx, existing); err != nil {
			return nil, err
		}
		return &model.StartAssessmentResponse{
			TestDuration:   existing.TestDuration,
			TotalQuestions: existing.TotalQuestions,
		}, nil
	}

	job, err := s.jobs.GetByID(ctx, attempt.JobID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if job.ScheduleStart != nil && now.Before(*job.ScheduleStart) {
		return nil, ErrScheduleNotOpen
	}
	if job.ScheduleEnd != nil && now.After(*job.ScheduleEnd) {
		return nil, ErrScheduleClosed
	}
	if job.DurationMinutes <= 0 {
		return nil, ErrMissingTestDuration
	}

	jobSkills, err := s.jobs.GetSkills(ctx, attempt.JobID)
	if err != nil {
		return nil, err
	}
	if len(jobSkills) == 0 {
		return nil, ErrNoSkills
	}

	candidate, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	candidateSkills, err := s.candidates.GetSkills(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	state := s.buildState(ctx, attempt, job, jobSkills, candidate, candidateSkills)
	if bankEmpty(state.QuestionBank) {
		return nil, ErrNoQuestions
	}

	if err := s.saveState(ctx, state); err != nil {
		return nil, err
	}
	if err := s.attempts.MarkStarted(ctx, attemptID, state.StartTime); err != nil {
		return nil, err
	}
	s.monitor.Record(ctx, attemptID, model.EventRemark, "assessment started")

	return &model.StartAssessmentResponse{
		TestDuration:   state.TestDuration,
		TotalQuestions: state.TotalQuestions,
	}, nil
}

// buildState assembles the initial engine state: priority-weighted
// question quotas, per-skill starting bands, and a prefetched bank.
func (s *AssessmentService) buildState(
	ctx context.Context,
	attempt *model.AssessmentAttempt,
	job *model.Job,
	jobSkills []model.JobSkill,
	candidate *model.Candidate,
	candidateSkills []model.CandidateSkill,
) *model.EngineState {
	prioritySum := 0
	priorities := make(map[string]int, len(jobSkills))
	for _, js := range jobSkills {
		priorities[js.SkillName] = js.Priority
		prioritySum += js.Priority
	}
	if prioritySum == 0 {
		prioritySum = 1
	}

	questionsPerSkill := make(map[string]int, len(jobSkills))
	for _, js := range jobSkills {
		n := int(math.Round(float64(js.Priority) / float64(prioritySum) * float64(job.TotalQuestions)))
		if n < 1 {
			n = 1
		}
		questionsPerSkill[js.SkillName] = n
	}

	baseBand := baseBandForExperience(candidate.ExperienceYears, job.ExperienceMin, job.ExperienceMax)
	currentBand := make(map[string]model.DifficultyBand, len(jobSkills))
	initialBand := make(map[string]model.DifficultyBand, len(jobSkills))
	declaredBand := map[string]model.DifficultyBand{}
	for _, cs := range candidateSkills {
		if _, required := priorities[cs.SkillName]; required {
			declaredBand[cs.SkillName] = proficiencyBand(cs.Proficiency)
		}
	}
	for skill := range priorities {
		band, ok := declaredBand[skill]
		if !ok {
			band = baseBand
		}
		currentBand[skill] = band
		initialBand[skill] = band
	}

	performanceLog := make(map[string]*model.SkillPerformance, len(jobSkills))
	for skill := range priorities {
		performanceLog[skill] = &model.SkillPerformance{Responses: []model.SkillResponse{}}
	}

	state := &model.EngineState{
		AttemptID:         attempt.ID,
		JobID:             job.ID,
		CandidateID:       candidate.ID,
		TestDuration:      job.DurationMinutes * 60,
		TotalQuestions:    job.TotalQuestions,
		StartTime:         time.Now().UTC(),
		QuestionBank:      map[model.DifficultyBand]map[string][]model.BankQuestion{},
		QuestionsPerSkill: questionsPerSkill,
		SkillPriorities:   priorities,
		CurrentBand:       currentBand,
		InitialBand:       initialBand,
		AskedQuestions:    []model.BankQuestion{},
		PerformanceLog:    performanceLog,
		Proctoring: model.ProctoringData{
			Snapshots: []model.SnapshotEntry{},
			Remarks:   []string{},
		},
	}

	// Prefetch each skill's quota at every band so band shifts never
	// block on generation mid-assessment.
	for _, band := range model.BandOrder {
		state.QuestionBank[band] = map[string][]model.BankQuestion{}
		for skill, quota := range questionsPerSkill {
			mcqs, err := s.questionGen.QuestionsFor(ctx, skill, band, quota)
			if err != nil {
				log.Warn().Err(err).Str("skill", skill).Str("band", string(band)).
					Int("attempt_id", attempt.ID).Msg("prefetch questions")
				continue
			}
			bank := make([]model.BankQuestion, 0, len(mcqs))
			for _, m := range mcqs {
				bank = append(bank, toBankQuestion(m))
			}
			rand.Shuffle(len(bank), func(i, j int) { bank[i], bank[j] = bank[j], bank[i] })
			state.QuestionBank[band][skill] = bank
		}
	}
	return state
}

// NextQuestion serves the next question, or finalizes the attempt and
// returns a completion message once the budget or clock runs out.
// usedMCQIDs is the client's own served-question list; it is merged with
// the server's so neither side can cause a repeat.
func (s *AssessmentService) NextQuestion(ctx context.Context, attemptID, candidateID int, usedMCQIDs []int) (*model.NextQuestionResponse, *model.CompletionResponse, error) {
	state, err := s.loadState(ctx, attemptID)
	if err != nil {
		return nil, nil, err
	}
	if state.CandidateID != candidateID {
		return nil, nil, ErrNotYourAttempt
	}

	elapsed := time.Since(state.StartTime).Seconds()
	if state.QuestionCount >= state.TotalQuestions || elapsed >= float64(state.TestDuration) {
		completion, err := s.finalize(ctx, state, nil)
		if err != nil {
			return nil, nil, err
		}
		return nil, completion, nil
	}

	used := make(map[int]bool, len(usedMCQIDs)+len(state.AskedQuestions))
	for _, id := range usedMCQIDs {
		used[id] = true
	}
	for _, q := range state.AskedQuestions {
		used[q.MCQID] = true
	}

	for _, skill := range skillsByPriority(state) {
		if state.QuestionsPerSkill[skill] <= 0 {
			continue
		}
		band := state.CurrentBand[skill]

		question := s.pickQuestion(ctx, state, skill, band, used)
		if question == nil {
			continue
		}

		state.QuestionsPerSkill[skill]--
		state.QuestionCount++
		state.AskedQuestions = append(state.AskedQuestions, *question)
		if err := s.saveState(ctx, state); err != nil {
			return nil, nil, err
		}

		return &model.NextQuestionResponse{
			Greeting: greetingMessages[rand.Intn(len(greetingMessages))],
			Question: model.QuestionBody{
				MCQID:    question.MCQID,
				Question: question.Question,
				Options:  question.Options,
			},
			Skill:          skill,
			QuestionNumber: state.QuestionCount,
			TotalQuestions: state.TotalQuestions,
		}, nil, nil
	}

	// Every skill quota is exhausted or unservable.
	completion, err := s.finalize(ctx, state, nil)
	if err != nil {
		return nil, nil, err
	}
	return nil, completion, nil
}

// pickQuestion takes an unused question from the bank, topping the bank
// up with a live-generated one when the current slice runs dry.
func (s *AssessmentService) pickQuestion(ctx context.Context, state *model.EngineState, skill string, band model.DifficultyBand, used map[int]bool) *model.BankQuestion {
	for _, q := range state.QuestionBank[band][skill] {
		if !used[q.MCQID] {
			picked := q
			return &picked
		}
	}

	mcqs, err := s.questionGen.QuestionsFor(ctx, skill, band, 1)
	if err != nil {
		log.Warn().Err(err).Str("skill", skill).Str("band", string(band)).
			Int("attempt_id", state.AttemptID).Msg("refill question bank")
		return nil
	}
	for _, m := range mcqs {
		if used[m.ID] {
			continue
		}
		q := toBankQuestion(m)
		if state.QuestionBank[band] == nil {
			state.QuestionBank[band] = map[string][]model.BankQuestion{}
		}
		state.QuestionBank[band][skill] = append(state.QuestionBank[band][skill], q)
		return &q
	}
	return nil
}

// SubmitAnswer grades an answer, moves the skill's band, and returns the
// feedback line for the candidate.
func (s *AssessmentService) SubmitAnswer(ctx context.Context, attemptID, candidateID int, req *model.SubmitAnswerRequest) (*model.SubmitAnswerResponse, error) {
	state, err := s.loadState(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if state.CandidateID != candidateID {
		return nil, ErrNotYourAttempt
	}

	perf, ok := state.PerformanceLog[req.Skill]
	if !ok {
		return nil, ErrInvalidSkill
	}
	if len(req.Answer) != 1 || req.Answer[0] < '1' || req.Answer[0] > '4' {
		return nil, ErrInvalidAnswer
	}
	answerIdx := int(req.Answer[0] - '0')
	question := state.AskedQuestion(req.MCQID)
	if question == nil {
		return nil, ErrInvalidMCQ
	}
	if answerIdx > len(question.Options) {
		return nil, ErrInvalidAnswer
	}

	band := state.CurrentBand[req.Skill]
	chosen := question.Options[answerIdx-1]
	correct := chosen == question.Answer

	perf.QuestionsAttempted++
	perf.TimeSpent += req.TimeTaken
	perf.Responses = append(perf.Responses, model.SkillResponse{
		MCQID:     question.MCQID,
		Question:  question.Question,
		Chosen:    chosen,
		Correct:   question.Answer,
		IsCorrect: correct,
		Band:      string(band),
		TimeTaken: req.TimeTaken,
	})

	var feedback string
	if correct {
		perf.CorrectAnswers++
		if idx := model.BandIndex(band); idx < len(model.BandOrder)-1 {
			state.CurrentBand[req.Skill] = model.BandOrder[idx+1]
		}
		feedback = correctFeedback[rand.Intn(len(correctFeedback))]
	} else {
		perf.IncorrectAnswers++
		if idx := model.BandIndex(band); idx > 0 {
			state.CurrentBand[req.Skill] = model.BandOrder[idx-1]
		}
		feedback = fmt.Sprintf(incorrectFeedback[rand.Intn(len(incorrectFeedback))], question.Answer)
	}

	if err := s.saveState(ctx, state); err != nil {
		return nil, err
	}
	return &model.SubmitAnswerResponse{Feedback: feedback}, nil
}

// RecordSnapshot appends a stored snapshot path to the proctoring log.
func (s *AssessmentService) RecordSnapshot(ctx context.Context, attemptID, candidateID int, path string) error {
	state, err := s.loadState(ctx, attemptID)
	if err != nil {
		return err
	}
	if state.CandidateID != candidateID {
		return ErrNotYourAttempt
	}
	state.Proctoring.Snapshots = append(state.Proctoring.Snapshots, model.SnapshotEntry{
		Path:      path,
		Timestamp: time.Now().UTC(),
	})
	if err := s.saveState(ctx, state); err != nil {
		return err
	}
	s.monitor.Record(ctx, attemptID, model.EventSnapshot, path)
	return nil
}

// End finalizes an attempt with the client's proctoring counters merged
// over the server-side copy. Calling End on an already-completed attempt
// returns the stored completion instead of an error, so a retried end
// request stays harmless.
func (s *AssessmentService) End(ctx context.Context, attemptID, candidateID int, clientData *model.ClientProctoringData) (*model.CompletionResponse, error) {
	state, err := s.loadState(ctx, attemptID)
	if errors.Is(err, ErrSessionNotFound) {
		return s.completedResponse(ctx, attemptID, candidateID)
	}
	if err != nil {
		return nil, err
	}
	if state.CandidateID != candidateID {
		return nil, ErrNotYourAttempt
	}
	return s.finalize(ctx, state, clientData)
}

// finalize merges proctoring data, seals the performance log, marks the
// attempt completed, and tears down live state. The conditional update
// in MarkCompleted makes concurrent finalizes collapse to one winner.
func (s *AssessmentService) finalize(ctx context.Context, state *model.EngineState, clientData *model.ClientProctoringData) (*model.CompletionResponse, error) {
	if clientData != nil {
		p := &state.Proctoring
		if clientData.TabSwitches > p.TabSwitches {
			p.TabSwitches = clientData.TabSwitches
		}
		if clientData.FullscreenWarnings > p.FullscreenWarnings {
			p.FullscreenWarnings = clientData.FullscreenWarnings
		}
		p.Remarks = append(p.Remarks, clientData.Remarks...)
		if clientData.ForcedTermination {
			p.ForcedTermination = true
			p.TerminationReason = clientData.TerminationReason
		}
	}

	for skill, perf := range state.PerformanceLog {
		perf.FinalBand = state.CurrentBand[skill]
		if perf.QuestionsAttempted > 0 {
			perf.AccuracyPercent = math.Round(float64(perf.CorrectAnswers)/float64(perf.QuestionsAttempted)*10000) / 100
		}
	}

	performance, err := json.Marshal(state.PerformanceLog)
	if err != nil {
		return nil, fmt.Errorf("marshal performance log: %w", err)
	}
	proctoring, err := json.Marshal(state.Proctoring)
	if err != nil {
		return nil, fmt.Errorf("marshal proctoring data: %w", err)
	}

	won, err := s.attempts.MarkCompleted(ctx, state.AttemptID, performance, proctoring)
	if err != nil {
		return nil, err
	}
	if won {
		detail := ""
		if state.Proctoring.ForcedTermination {
			detail = state.Proctoring.TerminationReason
		}
		s.monitor.Record(ctx, state.AttemptID, model.EventTermination, detail)
	}

	s.dropState(ctx, state.AttemptID)

	return &model.CompletionResponse{
		Message:         "Assessment completed",
		CandidateReport: performance,
		ProctoringData:  &state.Proctoring,
		TotalQuestions:  state.TotalQuestions,
	}, nil
}

// completedResponse rebuilds a completion body from the persisted
// attempt row for end calls that arrive after finalization.
func (s *AssessmentService) completedResponse(ctx context.Context, attemptID, candidateID int) (*model.CompletionResponse, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.CandidateID != candidateID {
		return nil, ErrNotYourAttempt
	}
	if attempt.Status != model.AttemptStatusCompleted {
		return nil, ErrSessionNotFound
	}

	var proctoring model.ProctoringData
	if len(attempt.Proctoring) > 0 {
		if err := json.Unmarshal(attempt.Proctoring, &proctoring); err != nil {
			return nil, fmt.Errorf("unmarshal proctoring data: %w", err)
		}
	}
	return &model.CompletionResponse{
		Message:         "Assessment completed",
		CandidateReport: attempt.Performance,
		ProctoringData:  &proctoring,
	}, nil
}

// Results returns the stored report for a completed attempt.
func (s *AssessmentService) Results(ctx context.Context, attemptID, candidateID int) (*model.CompletionResponse, error) {
	resp, err := s.completedResponse(ctx, attemptID, candidateID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrAttemptCompleted
	}
	return resp, err
}

// ─── State persistence ──────────────────────────────────────────────────────

// loadState reads engine state from Redis, falling back to the Postgres
// mirror on a cache miss and re-priming Redis from it.
func (s *AssessmentService) loadState(ctx context.Context, attemptID int) (*model.EngineState, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.AttemptStateKey(attemptID)).Bytes()
	if err == nil {
		var state model.EngineState
		if err := json.Unmarshal(raw, &state); err != nil {
			return nil, fmt.Errorf("unmarshal engine state: %w", err)
		}
		return &state, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load engine state: %w", err)
	}

	state, err := s.states.Get(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrSessionNotFound
	}
	if err := s.saveState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// saveState writes through to Redis and the Postgres mirror.
func (s *AssessmentService) saveState(ctx context.Context, state *model.EngineState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal engine state: %w", err)
	}

	// TTL covers the sitting plus slack for the final end call.
	ttl := time.Duration(state.TestDuration)*time.Second + time.Hour
	if err := s.rdb.Set(ctx, config.CacheKey.AttemptStateKey(state.AttemptID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache engine state: %w", err)
	}
	if err := s.states.Upsert(ctx, state.AttemptID, raw); err != nil {
		return fmt.Errorf("mirror engine state: %w", err)
	}
	return nil
}

func (s *AssessmentService) dropState(ctx context.Context, attemptID int) {
	if err := s.rdb.Del(ctx, config.CacheKey.AttemptStateKey(attemptID)).Err(); err != nil {
		log.Warn().Err(err).Int("attempt_id", attemptID).Msg("drop cached engine state")
	}
	if err := s.states.Delete(ctx, attemptID); err != nil {
		log.Warn().Err(err).Int("attempt_id", attemptID).Msg("drop mirrored engine state")
	}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func toBankQuestion(m model.MCQ) model.BankQuestion {
	answer := ""
	if m.CorrectAnswer != "" {
		if idx := int(m.CorrectAnswer[0] - '0'); idx >= 1 && idx <= len(m.Options) {
			answer = m.Options[idx-1]
		}
	}
	return model.BankQuestion{
		MCQID:    m.ID,
		Question: m.QuestionText,
		Options:  m.Options,
		Answer:   answer,
	}
}

// baseBandForExperience splits the job's experience range into thirds
// and places the candidate on the matching band.
func baseBandForExperience(years, min, max float64) model.DifficultyBand {
	if max <= min {
		return model.BandGood
	}
	interval := (max - min) / 3
	switch {
	case years <= min+interval:
		return model.BandGood
	case years <= min+2*interval:
		return model.BandBetter
	case years <= max:
		return model.BandPerfect
	default:
		return model.BandGood
	}
}

// proficiencyBand maps a self-declared proficiency rating to a starting
// band. Ratings are 4, 6 or 8; anything else lands mid.
func proficiencyBand(proficiency int) model.DifficultyBand {
	switch proficiency {
	case 4:
		return model.BandGood
	case 8:
		return model.BandPerfect
	default:
		return model.BandBetter
	}
}

func skillsByPriority(state *model.EngineState) []string {
	skills := make([]string, 0, len(state.QuestionsPerSkill))
	for skill := range state.QuestionsPerSkill {
		skills = append(skills, skill)
	}
	sort.Slice(skills, func(i, j int) bool {
		pi, pj := state.SkillPriorities[skills[i]], state.SkillPriorities[skills[j]]
		if pi != pj {
			return pi > pj
		}
		return skills[i] < skills[j]
	})
	return skills
}

func bankEmpty(bank map[model.DifficultyBand]map[string][]model.BankQuestion) bool {
	for _, skills := range bank {
		for _, questions := range skills {
			if len(questions) > 0 {
				return false
			}
		}
	}
	return true
}

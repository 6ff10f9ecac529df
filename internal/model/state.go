package model

import "time"

// BankQuestion is an MCQ held in the per-attempt question bank. Answer
// is the correct option text, kept server-side for grading.
type BankQuestion struct {
	MCQID    int      `json:"mcq_id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// SkillResponse records a single graded answer for the performance log.
type SkillResponse struct {
	MCQID     int     `json:"mcq_id"`
	Question  string  `json:"question"`
	Chosen    string  `json:"chosen"`
	Correct   string  `json:"correct"`
	IsCorrect bool    `json:"is_correct"`
	Band      string  `json:"band"`
	TimeTaken float64 `json:"time_taken"`
}

// SkillPerformance accumulates per-skill results across an attempt.
type SkillPerformance struct {
	QuestionsAttempted int             `json:"questions_attempted"`
	CorrectAnswers     int             `json:"correct_answers"`
	IncorrectAnswers   int             `json:"incorrect_answers"`
	FinalBand          DifficultyBand  `json:"final_band"`
	TimeSpent          float64         `json:"time_spent"`
	Responses          []SkillResponse `json:"responses"`
	AccuracyPercent    float64         `json:"accuracy_percent"`
}

// EngineState is the full adaptive-engine state for one attempt. It is
// kept as JSON in Redis while the attempt runs and mirrored to Postgres
// so a cache eviction does not lose a live sitting.
type EngineState struct {
	AttemptID      int       `json:"attempt_id"`
	JobID          int       `json:"job_id"`
	CandidateID    int       `json:"candidate_id"`
	TestDuration   int       `json:"test_duration"` // seconds
	TotalQuestions int       `json:"total_questions"`
	StartTime      time.Time `json:"start_time"`
	QuestionCount  int       `json:"question_count"`

	// QuestionBank is band -> skill -> remaining questions.
	QuestionBank map[DifficultyBand]map[string][]BankQuestion `json:"question_bank"`

	// QuestionsPerSkill is the remaining quota per skill, decremented as
	// questions are served.
	QuestionsPerSkill map[string]int `json:"questions_per_skill"`

	// SkillPriorities orders skill selection, highest priority first.
	SkillPriorities map[string]int `json:"skill_priorities"`

	// CurrentBand tracks the adaptive band per skill.
	CurrentBand map[string]DifficultyBand `json:"current_band_per_skill"`
	InitialBand map[string]DifficultyBand `json:"initial_band_per_skill"`

	AskedQuestions []BankQuestion               `json:"asked_questions"`
	PerformanceLog map[string]*SkillPerformance `json:"performance_log"`
	Proctoring     ProctoringData               `json:"proctoring_data"`
}

// Asked reports whether mcqID was already served in this attempt.
func (s *EngineState) Asked(mcqID int) bool {
	for _, q := range s.AskedQuestions {
		if q.MCQID == mcqID {
			return true
		}
	}
	return false
}

// AskedQuestion returns the served question with mcqID, or nil.
func (s *EngineState) AskedQuestion(mcqID int) *BankQuestion {
	for i := range s.AskedQuestions {
		if s.AskedQuestions[i].MCQID == mcqID {
			return &s.AskedQuestions[i]
		}
	}
	return nil
}

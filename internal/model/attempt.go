package model

import (
	"encoding/json"
	"time"
)

// AttemptStatus enumerates the lifecycle states of an assessment attempt.
type AttemptStatus string

const (
	AttemptStatusRegistered AttemptStatus = "registered"
	AttemptStatusStarted    AttemptStatus = "started"
	AttemptStatusCompleted  AttemptStatus = "completed"
)

// AssessmentAttempt links a candidate to a job for one proctored sitting.
type AssessmentAttempt struct {
	ID          int             `json:"id"`
	CandidateID int             `json:"candidate_id"`
	JobID       int             `json:"job_id"`
	Status      AttemptStatus   `json:"status"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Performance json.RawMessage `json:"performance,omitempty"`
	Proctoring  json.RawMessage `json:"proctoring,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// StartAssessmentResponse is the body returned when an attempt starts.
// TestDuration is in seconds.
type StartAssessmentResponse struct {
	TestDuration   int `json:"test_duration"`
	TotalQuestions int `json:"total_questions"`
}

// QuestionBody is the question object inside a next-question response.
type QuestionBody struct {
	MCQID    int      `json:"mcq_id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// NextQuestionResponse delivers one question to the candidate.
type NextQuestionResponse struct {
	Greeting       string       `json:"greeting"`
	Question       QuestionBody `json:"question"`
	Skill          string       `json:"skill"`
	QuestionNumber int          `json:"question_number"`
	TotalQuestions int          `json:"total_questions"`
}

// CompletionResponse is returned by next-question or end once the
// attempt is over. Message is always "Assessment completed".
type CompletionResponse struct {
	Message         string          `json:"message"`
	CandidateReport json.RawMessage `json:"candidate_report,omitempty"`
	ProctoringData  *ProctoringData `json:"proctoring_data,omitempty"`
	TotalQuestions  int             `json:"total_questions,omitempty"`
}

// SubmitAnswerRequest is the candidate's answer to the current question.
// Answer is the 1-based option index as a string.
type SubmitAnswerRequest struct {
	Skill     string  `json:"skill" binding:"required"`
	Answer    string  `json:"answer" binding:"required,oneof=1 2 3 4"`
	TimeTaken float64 `json:"time_taken" binding:"min=0"`
	MCQID     int     `json:"mcq_id" binding:"required"`
}

// SubmitAnswerResponse carries the feedback line shown to the candidate.
type SubmitAnswerResponse struct {
	Feedback string `json:"feedback"`
}

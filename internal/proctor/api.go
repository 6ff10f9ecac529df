package proctor

import (
	"context"

	"github.com/hirelens/hirelens/internal/model"
)

// Backend is the assessment wire contract the controller drives. The
// HTTP implementation is APIClient; tests substitute a fake.
type Backend interface {
	// Start initializes the attempt. The response must carry a positive
	// test duration; the controller treats its absence as a fatal error.
	Start(ctx context.Context, attemptID int) (*model.StartAssessmentResponse, error)

	// NextQuestion returns either the next question or a completion
	// message, never both.
	NextQuestion(ctx context.Context, attemptID int, usedMCQIDs []int) (*model.NextQuestionResponse, *model.CompletionResponse, error)

	SubmitAnswer(ctx context.Context, attemptID int, req *model.SubmitAnswerRequest) (*model.SubmitAnswerResponse, error)

	CaptureSnapshot(ctx context.Context, attemptID int, frame []byte, contentType string) error

	End(ctx context.Context, attemptID int, data *model.ClientProctoringData) error
}

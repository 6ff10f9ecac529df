package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hirelens/hirelens/internal/middleware"
	"github.com/hirelens/hirelens/internal/model"
	"github.com/hirelens/hirelens/internal/response"
	"github.com/hirelens/hirelens/internal/service"
)

// AssessmentHandler serves the proctored assessment wire contract. The
// session controller on the candidate's machine consumes these bodies
// directly, so success responses are flat objects and every failure is
// {"error": "..."} with no envelope.
type AssessmentHandler struct {
	assessments *service.AssessmentService
	snapshots   *service.SnapshotService
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(assessments *service.AssessmentService, snapshots *service.SnapshotService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments, snapshots: snapshots}
}

// Start godoc
// POST /api/assessment/start/:attempt_id
// Initializes the adaptive engine and returns duration and question budget.
func (h *AssessmentHandler) Start(c *gin.Context) {
	attemptID, claims, ok := h.attemptAndClaims(c)
	if !ok {
		return
	}

	resp, err := h.assessments.Start(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		h.writeFlowError(c, attemptID, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// NextQuestion godoc
// GET /api/assessment/next-question/:attempt_id?used_mcq_ids=[...]
// Serves the next question or the completion message.
func (h *AssessmentHandler) NextQuestion(c *gin.Context) {
	attemptID, claims, ok := h.attemptAndClaims(c)
	if !ok {
		return
	}

	var usedIDs []int
	if raw := c.Query("used_mcq_ids"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &usedIDs); err != nil {
			response.Error(c, http.StatusBadRequest, "used_mcq_ids must be a JSON array of integers")
			return
		}
	}

	question, completion, err := h.assessments.NextQuestion(c.Request.Context(), attemptID, claims.UserID, usedIDs)
	if err != nil {
		h.writeFlowError(c, attemptID, err)
		return
	}
	if completion != nil {
		c.JSON(http.StatusOK, completion)
		return
	}
	c.JSON(http.StatusOK, question)
}

// SubmitAnswer godoc
// POST /api/assessment/submit-answer/:attempt_id
// Grades an answer and returns the feedback line.
func (h *AssessmentHandler) SubmitAnswer(c *gin.Context) {
	attemptID, claims, ok := h.attemptAndClaims(c)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid answer provided")
		return
	}

	resp, err := h.assessments.SubmitAnswer(c.Request.Context(), attemptID, claims.UserID, &req)
	if err != nil {
		h.writeFlowError(c, attemptID, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CaptureSnapshot godoc
// POST /api/assessment/capture-snapshot/:attempt_id
// Accepts a multipart webcam frame and records it in the proctoring log.
func (h *AssessmentHandler) CaptureSnapshot(c *gin.Context) {
	attemptID, claims, ok := h.attemptAndClaims(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("snapshot")
	if err != nil {
		response.ErrorCode(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	path, err := h.snapshots.Save(attemptID, file, header)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFileType):
			response.ErrorCode(c, http.StatusUnsupportedMediaType, response.ErrUnsupportedFile)
		case errors.Is(err, service.ErrFileTooLarge):
			response.ErrorCode(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		default:
			log.Error().Err(err).Int("attempt_id", attemptID).Msg("save snapshot")
			response.ErrorCode(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	if err := h.assessments.RecordSnapshot(c.Request.Context(), attemptID, claims.UserID, path); err != nil {
		h.writeFlowError(c, attemptID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Snapshot captured", "path": path})
}

// End godoc
// POST /api/assessment/end/:attempt_id
// Finalizes the attempt, merging the client's proctoring counters.
func (h *AssessmentHandler) End(c *gin.Context) {
	attemptID, claims, ok := h.attemptAndClaims(c)
	if !ok {
		return
	}

	var req model.EndAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorCode(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	resp, err := h.assessments.End(c.Request.Context(), attemptID, claims.UserID, &req.ProctoringData)
	if err != nil {
		h.writeFlowError(c, attemptID, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Results godoc
// GET /api/assessment/results/:attempt_id
// Returns the stored report for a completed attempt.
func (h *AssessmentHandler) Results(c *gin.Context) {
	attemptID, claims, ok := h.attemptAndClaims(c)
	if !ok {
		return
	}

	resp, err := h.assessments.Results(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		h.writeFlowError(c, attemptID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"candidate_report": resp.CandidateReport,
		"proctoring_data":  resp.ProctoringData,
		"total_questions":  resp.TotalQuestions,
	})
}

func (h *AssessmentHandler) attemptAndClaims(c *gin.Context) (int, *service.Claims, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.AbortError(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return 0, nil, false
	}
	attemptID, err := strconv.Atoi(c.Param("attempt_id"))
	if err != nil || attemptID <= 0 {
		response.ErrorCode(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, nil, false
	}
	return attemptID, claims, true
}

// writeFlowError maps engine errors onto the flat wire contract.
func (h *AssessmentHandler) writeFlowError(c *gin.Context, attemptID int, err error) {
	switch {
	case errors.Is(err, service.ErrAttemptNotFound):
		response.Error(c, http.StatusNotFound, "Assessment attempt not found")
	case errors.Is(err, service.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, "Assessment session not found")
	case errors.Is(err, service.ErrNotYourAttempt):
		response.Error(c, http.StatusForbidden, "Unauthorized")
	case errors.Is(err, service.ErrAttemptCompleted):
		response.Error(c, http.StatusBadRequest, "Assessment is already completed")
	case errors.Is(err, service.ErrScheduleNotOpen):
		response.Error(c, http.StatusForbidden, "Assessment not yet started")
	case errors.Is(err, service.ErrScheduleClosed):
		response.Error(c, http.StatusForbidden, "Assessment period has ended")
	case errors.Is(err, service.ErrNoSkills):
		response.Error(c, http.StatusBadRequest, "No required skills found for this job")
	case errors.Is(err, service.ErrNoQuestions):
		response.Error(c, http.StatusBadRequest, "No questions available for this job")
	case errors.Is(err, service.ErrMissingTestDuration):
		response.Error(c, http.StatusBadRequest, "Test duration is not configured for this job")
	case errors.Is(err, service.ErrInvalidSkill):
		response.Error(c, http.StatusBadRequest, "Invalid skill provided")
	case errors.Is(err, service.ErrInvalidAnswer):
		response.Error(c, http.StatusBadRequest, "Invalid answer provided")
	case errors.Is(err, service.ErrInvalidMCQ):
		response.Error(c, http.StatusBadRequest, "Invalid mcq_id provided")
	default:
		log.Error().Err(err).Int("attempt_id", attemptID).Msg("assessment flow error")
		response.ErrorCode(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

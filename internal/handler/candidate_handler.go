package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hirelens/hirelens/internal/model"
	"github.com/hirelens/hirelens/internal/repository"
	"github.com/hirelens/hirelens/internal/response"
	"github.com/hirelens/hirelens/internal/service"
	"github.com/hirelens/hirelens/internal/validator"
)

// CandidateHandler handles recruiter-facing candidate management.
type CandidateHandler struct {
	candidateService *service.CandidateService
	authService      *service.AuthService
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(candidateService *service.CandidateService, authService *service.AuthService) *CandidateHandler {
	return &CandidateHandler{
		candidateService: candidateService,
		authService:      authService,
	}
}

// ListCandidates godoc
// GET /api/recruiter/candidates
func (h *CandidateHandler) ListCandidates(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	candidates, pagination, err := h.candidateService.List(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessPaginated(c, http.StatusOK, gin.H{"candidates": candidates}, pagination)
}

// GetCandidate godoc
// GET /api/recruiter/candidates/:id
func (h *CandidateHandler) GetCandidate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.candidateService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCandidateNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// CreateCandidate godoc
// POST /api/recruiter/candidates
func (h *CandidateHandler) CreateCandidate(c *gin.Context) {
	var req model.CreateCandidateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	candidate, err := h.candidateService.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"candidate": candidate})
}

// UpdateCandidate godoc
// PUT /api/recruiter/candidates/:id
func (h *CandidateHandler) UpdateCandidate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateCandidateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	candidate, err := h.candidateService.Update(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCandidateNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, repository.ErrDuplicateEmail):
			response.Fail(c, http.StatusConflict, response.ErrConflict)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"candidate": candidate})
}

// DeleteCandidate godoc
// DELETE /api/recruiter/candidates/:id
func (h *CandidateHandler) DeleteCandidate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.candidateService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrCandidateNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "candidate deleted"})
}

// InviteCandidate godoc
// POST /api/recruiter/candidates/:id/invite
// Registers an assessment attempt for the candidate against a job.
func (h *CandidateHandler) InviteCandidate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.InviteCandidateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.candidateService.Invite(c.Request.Context(), id, req.JobID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCandidateNotFound), errors.Is(err, service.ErrJobNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"attempt": attempt})
}

// ResetCandidateSession godoc
// POST /api/recruiter/candidates/:id/reset-session
// Clears a candidate's single-device session so they can log in again.
func (h *CandidateHandler) ResetCandidateSession(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.authService.ResetCandidateSession(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "candidate session reset"})
}

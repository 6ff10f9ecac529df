package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hirelens/hirelens/internal/model"
	"github.com/hirelens/hirelens/internal/response"
	"github.com/hirelens/hirelens/internal/service"
	"github.com/hirelens/hirelens/internal/validator"
)

// MCQHandler handles recruiter question bank endpoints.
type MCQHandler struct {
	mcqService *service.MCQService
}

// NewMCQHandler creates a new MCQHandler.
func NewMCQHandler(mcqService *service.MCQService) *MCQHandler {
	return &MCQHandler{mcqService: mcqService}
}

// ListMCQs godoc
// GET /api/recruiter/mcqs?skill=&band=&page=&per_page=
func (h *MCQHandler) ListMCQs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	skill := c.Query("skill")
	band := model.DifficultyBand(c.Query("band"))

	mcqs, pagination, err := h.mcqService.List(c.Request.Context(), skill, band, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessPaginated(c, http.StatusOK, gin.H{"mcqs": mcqs}, pagination)
}

// CreateMCQ godoc
// POST /api/recruiter/mcqs
func (h *MCQHandler) CreateMCQ(c *gin.Context) {
	var req model.CreateMCQRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	mcq, err := h.mcqService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"mcq": mcq})
}

// UpdateMCQ godoc
// PUT /api/recruiter/mcqs/:id
func (h *MCQHandler) UpdateMCQ(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateMCQRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	mcq, err := h.mcqService.Update(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrMCQNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"mcq": mcq})
}

// DeleteMCQ godoc
// DELETE /api/recruiter/mcqs/:id
func (h *MCQHandler) DeleteMCQ(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.mcqService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrMCQNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "question deleted"})
}

// GenerateMCQs godoc
// POST /api/recruiter/mcqs/generate
// Generates and persists questions synchronously. Heavier batches should
// go through a job's prepare-bank endpoint instead.
func (h *MCQHandler) GenerateMCQs(c *gin.Context) {
	var req model.GenerateMCQRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	mcqs, err := h.mcqService.Generate(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"mcqs": mcqs, "generated": len(mcqs)})
}

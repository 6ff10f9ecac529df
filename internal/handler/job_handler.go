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

// JobHandler handles recruiter job management endpoints.
type JobHandler struct {
	jobService *service.JobService
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobService *service.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// ListJobs godoc
// GET /api/recruiter/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	jobs, pagination, err := h.jobService.List(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessPaginated(c, http.StatusOK, gin.H{"jobs": jobs}, pagination)
}

// GetJob godoc
// GET /api/recruiter/jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := strconv.Atoi(c.Param("job_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.jobService.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// CreateJob godoc
// POST /api/recruiter/jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req model.CreateJobRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	job, err := h.jobService.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrScheduleWindow) {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"job": job})
}

// UpdateJob godoc
// PUT /api/recruiter/jobs/:job_id
func (h *JobHandler) UpdateJob(c *gin.Context) {
	jobID, err := strconv.Atoi(c.Param("job_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateJobRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	job, err := h.jobService.Update(c.Request.Context(), jobID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJobNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrScheduleWindow):
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"job": job})
}

// DeleteJob godoc
// DELETE /api/recruiter/jobs/:job_id
func (h *JobHandler) DeleteJob(c *gin.Context) {
	jobID, err := strconv.Atoi(c.Param("job_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.jobService.Delete(c.Request.Context(), jobID); err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "job deleted"})
}

// GetBankStatus godoc
// GET /api/recruiter/jobs/:job_id/bank
// Shows how many questions the bank holds per skill and band.
func (h *JobHandler) GetBankStatus(c *gin.Context) {
	jobID, err := strconv.Atoi(c.Param("job_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	status, err := h.jobService.BankStatus(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"bank": status})
}

// PrepareBank godoc
// POST /api/recruiter/jobs/:job_id/prepare-bank
// Queues background question generation for every skill and band of the
// job.
func (h *JobHandler) PrepareBank(c *gin.Context) {
	jobID, err := strconv.Atoi(c.Param("job_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	queued, err := h.jobService.PrepareBank(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"queued_tasks": queued})
}

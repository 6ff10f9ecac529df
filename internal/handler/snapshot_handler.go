package handler

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hirelens/hirelens/internal/model"
	"github.com/hirelens/hirelens/internal/repository"
	"github.com/hirelens/hirelens/internal/response"
	"github.com/hirelens/hirelens/internal/service"
)

// SnapshotHandler serves stored webcam snapshots to recruiters.
type SnapshotHandler struct {
	snapshotService *service.SnapshotService
	attemptRepo     *repository.AttemptRepository
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(snapshotService *service.SnapshotService, attemptRepo *repository.AttemptRepository) *SnapshotHandler {
	return &SnapshotHandler{
		snapshotService: snapshotService,
		attemptRepo:     attemptRepo,
	}
}

// ListAttemptSnapshots godoc
// GET /api/recruiter/attempts/:attempt_id/snapshots
// Lists the snapshot entries recorded in the attempt's proctoring data.
func (h *SnapshotHandler) ListAttemptSnapshots(c *gin.Context) {
	attemptID, err := strconv.Atoi(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.attemptRepo.GetByID(c.Request.Context(), attemptID)
	if err != nil {
		if repository.IsNotFound(err) {
			response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	snapshots := []model.SnapshotEntry{}
	if len(attempt.Proctoring) > 0 {
		var proctoring model.ProctoringData
		if err := json.Unmarshal(attempt.Proctoring, &proctoring); err == nil && proctoring.Snapshots != nil {
			snapshots = proctoring.Snapshots
		}
	}

	response.Success(c, http.StatusOK, gin.H{"snapshots": snapshots})
}

// ServeSnapshot godoc
// GET /api/recruiter/snapshots/*path
// Streams one stored snapshot image.
func (h *SnapshotHandler) ServeSnapshot(c *gin.Context) {
	stored := c.Param("path")
	if len(stored) > 0 && stored[0] == '/' {
		stored = stored[1:]
	}

	full, err := h.snapshotService.Resolve(stored)
	if err != nil {
		if os.IsNotExist(err) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.File(full)
}

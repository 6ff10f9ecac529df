package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hirelens/hirelens/internal/response"
	"github.com/hirelens/hirelens/internal/service"
)

// DashboardHandler handles recruiter dashboard endpoints.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboardData godoc
// GET /api/recruiter/dashboard
// Returns summary stat cards, attempt status distribution, upcoming job
// windows, and recent completion aggregates.
func (h *DashboardHandler) GetDashboardData(c *gin.Context) {
	data, err := h.dashboardService.GetDashboardData(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, data)
}

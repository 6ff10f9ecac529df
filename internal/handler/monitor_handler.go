package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/hirelens/hirelens/internal/middleware"
	"github.com/hirelens/hirelens/internal/model"
	"github.com/hirelens/hirelens/internal/repository"
	"github.com/hirelens/hirelens/internal/response"
	"github.com/hirelens/hirelens/internal/service"
	ws "github.com/hirelens/hirelens/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams live proctoring events to recruiters and
// serves the persisted event history.
type MonitorHandler struct {
	monitor    *service.MonitorService
	proctoring *repository.ProctoringRepository
	attempts   *repository.AttemptRepository
	log        zerolog.Logger
	upgrader   websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(
	monitor *service.MonitorService,
	proctoring *repository.ProctoringRepository,
	attempts *repository.AttemptRepository,
	log zerolog.Logger,
	allowedOrigins []string,
) *MonitorHandler {
	return &MonitorHandler{
		monitor:    monitor,
		proctoring: proctoring,
		attempts:   attempts,
		log:        log.With().Str("component", "monitor_handler").Logger(),
		upgrader:   buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/recruiter/attempts/:attempt_id/monitor?token=...
// Upgrades to WebSocket and relays the attempt's proctoring events as
// they happen. The stream closes when the attempt terminates.
func (h *MonitorHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	attemptID, err := strconv.Atoi(c.Param("attempt_id"))
	if err != nil || attemptID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attempt ID"})
		return
	}
	if _, err := h.attempts.GetByID(c.Request.Context(), attemptID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "attempt not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Int("attempt_id", attemptID).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	sub := h.monitor.Subscribe(ctx, attemptID)
	defer sub.Close()

	// Reader goroutine: only pings are expected from the recruiter side.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var env ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &env); err != nil {
				return
			}
			if env.Action == ws.ActionPing {
				_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			}
		}
	}()

	ch := sub.Channel()
	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-keepalive.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event model.ProctoringEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.log.Warn().Err(err).Msg("malformed monitor event")
				continue
			}
			if err := ws.WriteTyped(conn, ws.ProctorEventResponse{
				Event:      ws.EventProctor,
				AttemptID:  event.AttemptID,
				EventType:  event.EventType,
				Detail:     event.Detail,
				OccurredAt: event.OccurredAt.Format(time.RFC3339),
			}); err != nil {
				return
			}
			if event.EventType == model.EventTermination {
				_ = ws.WriteTyped(conn, ws.StreamEndResponse{Event: ws.EventStreamEnd, Reason: event.Detail})
				return
			}
		}
	}
}

// AttemptEvents godoc
// GET /api/recruiter/attempts/:attempt_id/events
// Returns the persisted proctoring event history for an attempt.
func (h *MonitorHandler) AttemptEvents(c *gin.Context) {
	attemptID, err := strconv.Atoi(c.Param("attempt_id"))
	if err != nil || attemptID <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	events, err := h.proctoring.ListByAttempt(c.Request.Context(), attemptID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"events": events})
}

// CompletedAttempts godoc
// GET /api/recruiter/jobs/:job_id/attempts?page=&per_page=
// Lists completed attempts for a job with their stored reports.
func (h *MonitorHandler) CompletedAttempts(c *gin.Context) {
	jobID, err := strconv.Atoi(c.Param("job_id"))
	if err != nil || jobID <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	attempts, total, err := h.attempts.ListCompletedByJob(c.Request.Context(), jobID, perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	totalPages := (total + perPage - 1) / perPage
	response.SuccessPaginated(c, http.StatusOK, gin.H{"attempts": attempts}, &response.Pagination{
		Page: page, PerPage: perPage, TotalItems: total, TotalPages: totalPages,
	})
}

package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hirelens/hirelens/internal/config"
	"github.com/hirelens/hirelens/internal/handler"
	"github.com/hirelens/hirelens/internal/middleware"
	"github.com/hirelens/hirelens/internal/response"
	"github.com/hirelens/hirelens/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Assessment *handler.AssessmentHandler
	Monitor    *handler.MonitorHandler
	Dashboard  *handler.DashboardHandler
	Job        *handler.JobHandler
	MCQ        *handler.MCQHandler
	Candidate  *handler.CandidateHandler
	Snapshot   *handler.SnapshotHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for assessment starts (10 per minute per IP); a
	// looping client retrying start must not hammer question generation.
	startLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	auth := router.Group("/api/auth")
	{
		auth.POST("/candidate/login", handlers.Auth.CandidateLogin)
		auth.POST("/recruiter/login", handlers.Auth.RecruiterLogin)

		auth.POST("/candidate/logout", middleware.RequireCandidateJWT(authService), handlers.Auth.CandidateLogout)
		auth.GET("/candidate/me", middleware.RequireCandidateJWT(authService), handlers.Auth.GetCandidateProfile)
	}

	// ─── 2. Assessment Group (Candidate JWT + Single Device) ───────────
	// These routes speak the flat session-controller contract.
	assessment := router.Group("/api/assessment")
	assessment.Use(
		middleware.RequireCandidateJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		assessment.POST("/start/:attempt_id", startLimiter.Middleware(), handlers.Assessment.Start)
		assessment.GET("/next-question/:attempt_id", handlers.Assessment.NextQuestion)
		assessment.POST("/submit-answer/:attempt_id", handlers.Assessment.SubmitAnswer)
		assessment.POST("/capture-snapshot/:attempt_id", handlers.Assessment.CaptureSnapshot)
		assessment.POST("/end/:attempt_id", handlers.Assessment.End)
		assessment.GET("/results/:attempt_id", handlers.Assessment.Results)
	}

	// ─── 3. Recruiter Group (Recruiter JWT) ────────────────────────────
	recruiter := router.Group("/api/recruiter")
	recruiter.Use(middleware.RequireRecruiterJWT(authService))
	{
		recruiter.GET("/dashboard", handlers.Dashboard.GetDashboardData)

		recruiter.GET("/jobs", handlers.Job.ListJobs)
		recruiter.POST("/jobs", handlers.Job.CreateJob)
		recruiter.GET("/jobs/:job_id", handlers.Job.GetJob)
		recruiter.PUT("/jobs/:job_id", handlers.Job.UpdateJob)
		recruiter.DELETE("/jobs/:job_id", handlers.Job.DeleteJob)
		recruiter.GET("/jobs/:job_id/bank", handlers.Job.GetBankStatus)
		recruiter.POST("/jobs/:job_id/prepare-bank", handlers.Job.PrepareBank)
		recruiter.GET("/jobs/:job_id/attempts", handlers.Monitor.CompletedAttempts)

		recruiter.GET("/mcqs", handlers.MCQ.ListMCQs)
		recruiter.POST("/mcqs", handlers.MCQ.CreateMCQ)
		recruiter.POST("/mcqs/generate", handlers.MCQ.GenerateMCQs)
		recruiter.PUT("/mcqs/:mcq_id", handlers.MCQ.UpdateMCQ)
		recruiter.DELETE("/mcqs/:mcq_id", handlers.MCQ.DeleteMCQ)

		recruiter.GET("/candidates", handlers.Candidate.ListCandidates)
		recruiter.POST("/candidates", handlers.Candidate.CreateCandidate)
		recruiter.GET("/candidates/:id", handlers.Candidate.GetCandidate)
		recruiter.PUT("/candidates/:id", handlers.Candidate.UpdateCandidate)
		recruiter.DELETE("/candidates/:id", handlers.Candidate.DeleteCandidate)
		recruiter.POST("/candidates/:id/invite", handlers.Candidate.InviteCandidate)
		recruiter.POST("/candidates/:id/reset-session", handlers.Candidate.ResetCandidateSession)

		recruiter.GET("/attempts/:attempt_id/events", handlers.Monitor.AttemptEvents)
		recruiter.GET("/attempts/:attempt_id/snapshots", handlers.Snapshot.ListAttemptSnapshots)
		recruiter.GET("/snapshots/*path", handlers.Snapshot.ServeSnapshot)

		recruiter.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	// ─── 4. WebSocket Group (Recruiter WS Auth) ────────────────────────
	ws := router.Group("/ws/recruiter")
	ws.Use(middleware.RequireRecruiterWSAuth(authService))
	{
		ws.GET("/attempts/:attempt_id/monitor", handlers.Monitor.AttemptStream)
	}

	return router
}

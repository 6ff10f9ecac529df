package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hirelens/hirelens/internal/config"
	"github.com/hirelens/hirelens/internal/database"
	"github.com/hirelens/hirelens/internal/handler"
	"github.com/hirelens/hirelens/internal/logger"
	"github.com/hirelens/hirelens/internal/repository"
	"github.com/hirelens/hirelens/internal/router"
	"github.com/hirelens/hirelens/internal/service"
	"github.com/hirelens/hirelens/internal/validator"
	"github.com/hirelens/hirelens/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting HireLens Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	candidateRepo := repository.NewCandidateRepository(pool)
	recruiterRepo := repository.NewRecruiterRepository(pool)
	jobRepo := repository.NewJobRepository(pool)
	mcqRepo := repository.NewMCQRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	stateRepo := repository.NewStateRepository(pool)
	proctoringRepo := repository.NewProctoringRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	monitorService := service.NewMonitorService(rdb)
	snapshotService := service.NewSnapshotService(cfg)
	questionGenService, err := service.NewQuestionGenService(ctx, cfg.GeminiAPIKey, cfg.GeminiMaxConcurrent, mcqRepo)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize question generation")
	}
	defer questionGenService.Close()

	assessmentService := service.NewAssessmentService(
		cfg, rdb, attemptRepo, jobRepo, candidateRepo, stateRepo, questionGenService, monitorService,
	)
	jobService := service.NewJobService(jobRepo, mcqRepo, rdb, log)
	mcqService := service.NewMCQService(mcqRepo, questionGenService)
	candidateService := service.NewCandidateService(candidateRepo, attemptRepo, jobRepo)
	dashboardService := service.NewDashboardService(dashboardRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService, candidateRepo, recruiterRepo),
		Assessment: handler.NewAssessmentHandler(assessmentService, snapshotService),
		Monitor:    handler.NewMonitorHandler(monitorService, proctoringRepo, attemptRepo, log, cfg.AllowedOrigins),
		Dashboard:  handler.NewDashboardHandler(dashboardService),
		Job:        handler.NewJobHandler(jobService),
		MCQ:        handler.NewMCQHandler(mcqService),
		Candidate:  handler.NewCandidateHandler(candidateService, authService),
		Snapshot:   handler.NewSnapshotHandler(snapshotService, attemptRepo),
		System:     handler.NewSystemHandler(rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	proctoringWorker := worker.NewProctoringWorker(proctoringRepo, rdb, log)
	go proctoringWorker.Start(workerCtx)

	generationWorker := worker.NewGenerationWorker(mcqRepo, questionGenService, rdb, log)
	go generationWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

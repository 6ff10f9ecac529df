package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/hirelens/hirelens/internal/config"
	"github.com/hirelens/hirelens/internal/database"
	"github.com/hirelens/hirelens/internal/logger"
	"github.com/hirelens/hirelens/internal/service"
)

// Clears a candidate's single-device session so they can log in again.
// Used by support when a candidate's browser died mid-assessment.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: reset-session <candidate_id>")
		os.Exit(1)
	}
	candidateID, err := strconv.Atoi(os.Args[1])
	if err != nil || candidateID <= 0 {
		fmt.Println("Error: candidate_id must be a positive integer")
		os.Exit(1)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	authService := service.NewAuthService(cfg, rdb)
	if err := authService.ResetCandidateSession(ctx, candidateID); err != nil {
		log.Fatal().Err(err).Int("candidate_id", candidateID).Msg("Failed to reset session")
	}

	fmt.Printf("Session reset for candidate %d\n", candidateID)
}

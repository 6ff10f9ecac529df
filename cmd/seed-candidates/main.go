package main

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hirelens/hirelens/internal/config"
	"github.com/hirelens/hirelens/internal/database"
	"github.com/hirelens/hirelens/internal/logger"
	"github.com/hirelens/hirelens/internal/model"
	"github.com/hirelens/hirelens/internal/repository"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	candidateRepo := repository.NewCandidateRepository(pool)

	fmt.Println("=== Seeding Demo Job and Candidates ===")

	// Demo job with a weighted skill set.
	var jobID int
	err = pool.QueryRow(ctx, `SELECT id FROM jobs WHERE title = $1`, "Backend Engineer (Demo)").Scan(&jobID)
	if err != nil {
		err = pool.QueryRow(ctx,
			`INSERT INTO jobs (title, description, duration_minutes, total_questions, experience_min, experience_max)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			"Backend Engineer (Demo)",
			"Builds and operates backend services. Strong Go and SQL required.",
			30, 12, 1.0, 7.0,
		).Scan(&jobID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create demo job")
		}
		skills := map[string]int{"Go": 5, "SQL": 3, "Docker": 2}
		for skill, priority := range skills {
			if _, err := pool.Exec(ctx,
				`INSERT INTO job_skills (job_id, skill_name, priority) VALUES ($1, $2, $3)`,
				jobID, skill, priority); err != nil {
				log.Fatal().Err(err).Str("skill", skill).Msg("Failed to add job skill")
			}
		}
		fmt.Printf("Created demo job with ID: %d\n", jobID)
	} else {
		fmt.Printf("Found existing demo job with ID: %d\n", jobID)
	}

	names := []string{
		"Aarav Sharma", "Priya Patel", "Rohan Gupta", "Ananya Iyer", "Vikram Singh",
		"Meera Nair", "Arjun Reddy", "Kavya Menon", "Karan Malhotra", "Divya Krishnan",
		"Rahul Verma", "Sneha Joshi", "Aditya Rao", "Pooja Desai", "Nikhil Kapoor",
		"Ishita Bose", "Siddharth Kulkarni", "Tanvi Shah", "Manish Tiwari", "Ritika Saxena",
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash seed password")
	}

	successCount := 0
	for i, name := range names {
		candidate := &model.Candidate{
			Email:           fmt.Sprintf("candidate%d@example.com", i+1),
			FullName:        name,
			PasswordHash:    string(hash),
			ExperienceYears: float64(i%8) + 0.5,
		}

		id, err := candidateRepo.Create(ctx, candidate)
		if err != nil {
			fmt.Printf("Error creating candidate %s: %v\n", candidate.Email, err)
			continue
		}

		// Rotate proficiency so seeded candidates land on different bands.
		proficiencies := []int{4, 6, 8}
		skills := []model.CandidateSkill{
			{CandidateID: id, SkillName: "Go", Proficiency: proficiencies[i%3]},
			{CandidateID: id, SkillName: "SQL", Proficiency: proficiencies[(i+1)%3]},
		}
		if err := candidateRepo.ReplaceSkills(ctx, id, skills); err != nil {
			fmt.Printf("Error adding skills for candidate %d: %v\n", id, err)
			continue
		}

		if _, err := pool.Exec(ctx,
			`INSERT INTO assessment_attempts (candidate_id, job_id, status) VALUES ($1, $2, $3)`,
			id, jobID, model.AttemptStatusRegistered); err != nil {
			fmt.Printf("Error registering attempt for candidate %d: %v\n", id, err)
			continue
		}

		successCount++
		if (i+1)%10 == 0 {
			fmt.Printf("Created %d candidates...\n", i+1)
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d candidates.\n", successCount, len(names))
}

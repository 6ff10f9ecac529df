package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hirelens/hirelens/internal/config"
	"github.com/hirelens/hirelens/internal/repository"
	"github.com/hirelens/hirelens/internal/service"
)

const (
	GenerationPollTimeout = 1 * time.Second
	generationRetryDelay  = 3 * time.Second
)

// GenerationWorker consumes bank refill tasks and tops skill bands up
// through the question generation service. Generation is slow and
// rate-limited, so tasks run one at a time off the queue.
type GenerationWorker struct {
	mcqs *repository.MCQRepository
	gen  *service.QuestionGenService
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewGenerationWorker creates a new GenerationWorker.
func NewGenerationWorker(mcqs *repository.MCQRepository, gen *service.QuestionGenService, rdb *redis.Client, log zerolog.Logger) *GenerationWorker {
	return &GenerationWorker{
		mcqs: mcqs,
		gen:  gen,
		rdb:  rdb,
		log:  log.With().Str("component", "generation_worker").Logger(),
	}
}

// Start blocks consuming the refill queue until ctx is cancelled.
func (w *GenerationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("GenerationWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("GenerationWorker stopped")
			return
		default:
		}

		item, err := w.rdb.BLPop(ctx, GenerationPollTimeout, config.WorkerKey.BankRefillQueue).Result()
		if err != nil {
			if err != redis.Nil && ctx.Err() == nil {
				w.log.Error().Err(err).Msg("BLPop error")
				time.Sleep(generationRetryDelay)
			}
			continue
		}
		if len(item) < 2 {
			continue
		}

		var task service.BankRefillTask
		if err := json.Unmarshal([]byte(item[1]), &task); err != nil {
			w.log.Error().Err(err).Msg("Invalid refill task payload, discarding")
			continue
		}

		w.process(ctx, task)
	}
}

// process tops the skill band up to the task's minimum. Failures are
// logged and dropped; the next prepare-bank call re-queues them.
func (w *GenerationWorker) process(ctx context.Context, task service.BankRefillTask) {
	counts, err := w.mcqs.CountBySkillBand(ctx, task.Skill)
	if err != nil {
		w.log.Error().Err(err).Str("skill", task.Skill).Msg("Count bank failed")
		return
	}

	have := counts[task.Band]
	if have >= task.MinCount {
		return
	}
	missing := task.MinCount - have

	generated, err := w.gen.QuestionsFor(ctx, task.Skill, task.Band, missing)
	if err != nil {
		w.log.Warn().
			Err(err).
			Str("skill", task.Skill).
			Str("band", string(task.Band)).
			Msg("Generation failed")
		return
	}

	fresh := 0
	for _, q := range generated {
		if q.Source == "gemini" {
			fresh++
		}
	}
	w.log.Info().
		Str("skill", task.Skill).
		Str("band", string(task.Band)).
		Int("generated", fresh).
		Int("bank_size", have+fresh).
		Msg("Bank refill processed")
}

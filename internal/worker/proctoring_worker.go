package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hirelens/hirelens/internal/config"
	"github.com/hirelens/hirelens/internal/model"
	"github.com/hirelens/hirelens/internal/repository"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ProctoringWorker drains the proctoring event queue into Postgres.
// Events are buffered and flushed in batches; a failed batch falls back
// to row-by-row inserts and requeues what still fails.
type ProctoringWorker struct {
	repo *repository.ProctoringRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewProctoringWorker creates a new ProctoringWorker.
func NewProctoringWorker(repo *repository.ProctoringRepository, rdb *redis.Client, log zerolog.Logger) *ProctoringWorker {
	return &ProctoringWorker{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "proctoring_worker").Logger(),
	}
}

// Start runs the drain loop until ctx is cancelled.
func (w *ProctoringWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ProctoringWorker started")

	buffer := make([]model.ProctoringEvent, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		// Flush on size or age.
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// BLPop blocks for 1 second. Returns immediately if data exists.
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistProctoringQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // Queue empty, loop back to check flush timer
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var event model.ProctoringEvent
		if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed event")
			continue
		}
		buffer = append(buffer, event)
	}
}

// flushSafe attempts a bulk insert, then a row-by-row fallback.
func (w *ProctoringWorker) flushSafe(ctx context.Context, batch []model.ProctoringEvent) {
	if err := w.repo.InsertBatch(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *ProctoringWorker) fallbackInsert(ctx context.Context, batch []model.ProctoringEvent) {
	requeueList := make([]model.ProctoringEvent, 0)
	for _, e := range batch {
		if err := w.repo.Insert(ctx, e); err != nil {
			w.log.Error().Err(err).Int("attempt_id", e.AttemptID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, e)
		}
	}
	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *ProctoringWorker) requeue(ctx context.Context, items []model.ProctoringEvent) {
	pipe := w.rdb.Pipeline()
	for _, e := range items {
		data, _ := json.Marshal(e)
		pipe.RPush(ctx, config.WorkerKey.PersistProctoringQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
	// Back off so a hard-down DB does not spin the loop.
	time.Sleep(2 * time.Second)
}

func (w *ProctoringWorker) shutdown(buffer []model.ProctoringEvent) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}

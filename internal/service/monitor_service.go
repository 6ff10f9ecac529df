package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/hirelens/hirelens/internal/config"
	"github.com/hirelens/hirelens/internal/model"
)

// MonitorService fans proctoring events out to two sinks: a Redis
// pub/sub channel that feeds recruiter live-monitor sockets, and a Redis
// list drained by the persistence worker. Both writes are best-effort;
// losing a monitor event must never fail the candidate's request.
type MonitorService struct {
	rdb *redis.Client
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(rdb *redis.Client) *MonitorService {
	return &MonitorService{rdb: rdb}
}

// Record publishes an event for live monitoring and queues it for
// persistence.
func (s *MonitorService) Record(ctx context.Context, attemptID int, eventType, detail string) {
	e := model.ProctoringEvent{
		AttemptID:  attemptID,
		EventType:  eventType,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Int("attempt_id", attemptID).Msg("marshal proctoring event")
		return
	}

	if err := s.rdb.Publish(ctx, config.CacheKey.AttemptMonitorChannel(attemptID), payload).Err(); err != nil {
		log.Warn().Err(err).Int("attempt_id", attemptID).Msg("publish monitor event")
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistProctoringQueue, payload).Err(); err != nil {
		log.Warn().Err(err).Int("attempt_id", attemptID).Msg("queue proctoring event")
	}
}

// Subscribe opens a pub/sub subscription for one attempt's event stream.
// The caller owns the returned PubSub and must close it.
func (s *MonitorService) Subscribe(ctx context.Context, attemptID int) *redis.PubSub {
	return s.rdb.Subscribe(ctx, config.CacheKey.AttemptMonitorChannel(attemptID))
}

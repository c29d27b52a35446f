package progress

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const snapshotTTL = 30 * time.Minute

// RedisSink shares progress across API replicas by keeping the latest event
// per generation in Redis under a short TTL.
type RedisSink struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewRedisSink(client *redis.Client, logger zerolog.Logger) *RedisSink {
	return &RedisSink{client: client, logger: logger}
}

func (s *RedisSink) Publish(ctx context.Context, generationID string, event Event) {
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, progressKey(generationID), raw, snapshotTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("generation_id", generationID).Msg("progress snapshot write failed")
	}
}

func (s *RedisSink) Latest(ctx context.Context, generationID string) (Event, bool) {
	raw, err := s.client.Get(ctx, progressKey(generationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Event{}, false
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("generation_id", generationID).Msg("progress snapshot read failed")
		return Event{}, false
	}
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return Event{}, false
	}
	return event, true
}

func progressKey(generationID string) string {
	return "generation:progress:" + generationID
}

var _ Sink = (*RedisSink)(nil)

package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Conversations idle longer than this are dropped by Redis. Long-term
// retention happens in the Postgres archive, not here.
const conversationTTL = 24 * time.Hour

// RedisStore persists conversation state as one JSON value per conversation.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewRedisStore creates a Redis-backed conversation store.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	return &RedisStore{
		redis:  client,
		tracer: otel.Tracer("honeypot.internal.conversation.store"),
	}
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, conversationID string) (*State, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_state")
	defer span.End()

	data, err := s.redis.Get(ctx, conversationKey(conversationID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to decode state: %w", err)
	}
	return &state, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, conversationID string, state *State) error {
	ctx, span := s.tracer.Start(ctx, "conversation.save_state")
	defer span.End()

	data, err := json.Marshal(state)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal state: %w", err)
	}
	if err := s.redis.Set(ctx, conversationKey(conversationID), data, conversationTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist state: %w", err)
	}
	return nil
}

func conversationKey(id string) string {
	return fmt.Sprintf("conversation:%s", id)
}

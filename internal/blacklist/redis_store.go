package blacklist

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/decoyline/scam-honeypot/internal/detection"
)

const (
	upiSetKey     = "flagged:upi_ids"
	accountSetKey = "flagged:bank_accounts"
	linkSetKey    = "flagged:phishing_links"
)

// RedisStore backs the flagged intelligence sets with Redis sets so flags
// survive restarts and are shared across instances.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewRedisStore creates a Redis-backed flagged intelligence store.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("blacklist: redis client cannot be nil")
	}
	return &RedisStore{
		redis:  client,
		tracer: otel.Tracer("honeypot.internal.blacklist"),
	}
}

// Add implements Store. All three unions ride one pipeline so a call lands
// atomically from the perspective of concurrent readers.
func (s *RedisStore) Add(ctx context.Context, intel detection.Intelligence) error {
	ctx, span := s.tracer.Start(ctx, "blacklist.add")
	defer span.End()

	pipe := s.redis.TxPipeline()
	if members := toMembers(intel.UPIIDs); len(members) > 0 {
		pipe.SAdd(ctx, upiSetKey, members...)
	}
	if members := toMembers(intel.BankAccounts); len(members) > 0 {
		pipe.SAdd(ctx, accountSetKey, members...)
	}
	if members := toMembers(intel.PhishingLinks); len(members) > 0 {
		pipe.SAdd(ctx, linkSetKey, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("blacklist: failed to add flagged intelligence: %w", err)
	}
	return nil
}

// Check implements Store. Candidates are tested in the fixed order UPI,
// bank account, link; the first membership hit wins.
func (s *RedisStore) Check(ctx context.Context, intel detection.Intelligence) (*Match, error) {
	ctx, span := s.tracer.Start(ctx, "blacklist.check")
	defer span.End()

	sets := []struct {
		kind   Kind
		key    string
		values []string
	}{
		{KindUPI, upiSetKey, intel.UPIIDs},
		{KindBank, accountSetKey, intel.BankAccounts},
		{KindLink, linkSetKey, intel.PhishingLinks},
	}

	for _, set := range sets {
		for _, v := range set.values {
			ok, err := s.redis.SIsMember(ctx, set.key, normalize(v)).Result()
			if err != nil {
				span.RecordError(err)
				return nil, fmt.Errorf("blacklist: membership check failed: %w", err)
			}
			if ok {
				return &Match{Kind: set.kind, Value: v}, nil
			}
		}
	}
	return nil, nil
}

func toMembers(values []string) []interface{} {
	members := make([]interface{}, 0, len(values))
	for _, v := range values {
		members = append(members, normalize(v))
	}
	return members
}

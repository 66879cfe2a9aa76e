package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decoyline/scam-honeypot/internal/lifecycle"
	"github.com/decoyline/scam-honeypot/internal/transcript"
)

func stateStores(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(client),
	}
}

func TestStore_LoadMissingConversation(t *testing.T) {
	for name, store := range stateStores(t) {
		t.Run(name, func(t *testing.T) {
			state, err := store.Load(context.Background(), "never-seen")
			require.NoError(t, err)
			assert.Nil(t, state)
		})
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, store := range stateStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			state := NewState()
			state.Append(transcript.RoleScammer, "urgent, your account is blocked")
			state.Append(transcript.RoleHoneypot, "what should I do?")
			state.Phase = lifecycle.PhasePressure
			state.Block(BlockedReasonPattern, BlockRuleMaxTurns)

			require.NoError(t, store.Save(ctx, "conv-1", state))

			loaded, err := store.Load(ctx, "conv-1")
			require.NoError(t, err)
			require.NotNil(t, loaded)
			assert.Equal(t, lifecycle.PhasePressure, loaded.Phase)
			assert.Len(t, loaded.Messages, 2)
			assert.True(t, loaded.Blocked)
			assert.Equal(t, BlockedReasonPattern, loaded.BlockedReason)
			assert.Equal(t, BlockRuleMaxTurns, loaded.BlockedRule)
		})
	}
}

func TestStore_SaveDetachesFromCaller(t *testing.T) {
	for name, store := range stateStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			state := NewState()
			state.Append(transcript.RoleScammer, "hello")
			require.NoError(t, store.Save(ctx, "conv-1", state))

			state.Append(transcript.RoleScammer, "mutated after save")

			loaded, err := store.Load(ctx, "conv-1")
			require.NoError(t, err)
			require.NotNil(t, loaded)
			assert.Len(t, loaded.Messages, 1)
		})
	}
}

func TestRedisStore_StateExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "conv-1", NewState()))
	mr.FastForward(conversationTTL + time.Minute)

	state, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Nil(t, state)
}

package blacklist

import (
	"context"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decoyline/scam-honeypot/internal/detection"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(client),
	}
}

func TestAddAndCheck(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			match, err := store.Check(ctx, detection.Intelligence{UPIIDs: []string{"scammer@paytm"}})
			require.NoError(t, err)
			assert.Nil(t, match, "empty store must not match")

			require.NoError(t, store.Add(ctx, detection.Intelligence{
				UPIIDs:        []string{"scammer@paytm"},
				BankAccounts:  []string{"123456789012"},
				PhishingLinks: []string{"http://evil.test/verify"},
			}))

			match, err = store.Check(ctx, detection.Intelligence{UPIIDs: []string{"scammer@paytm"}})
			require.NoError(t, err)
			require.NotNil(t, match)
			assert.Equal(t, KindUPI, match.Kind)
			assert.Equal(t, "scammer@paytm", match.Value)

			match, err = store.Check(ctx, detection.Intelligence{BankAccounts: []string{"123456789012"}})
			require.NoError(t, err)
			require.NotNil(t, match)
			assert.Equal(t, KindBank, match.Kind)

			match, err = store.Check(ctx, detection.Intelligence{PhishingLinks: []string{"HTTP://EVIL.TEST/VERIFY"}})
			require.NoError(t, err)
			require.NotNil(t, match, "matching is case-insensitive")
			assert.Equal(t, KindLink, match.Kind)
		})
	}
}

func TestCheckOrderFirstMatchWins(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Add(ctx, detection.Intelligence{
				UPIIDs:        []string{"x@ybl"},
				BankAccounts:  []string{"999999999"},
				PhishingLinks: []string{"www.bad.test"},
			}))

			// All three candidate kinds are flagged; UPI is reported.
			match, err := store.Check(ctx, detection.Intelligence{
				UPIIDs:        []string{"x@ybl"},
				BankAccounts:  []string{"999999999"},
				PhishingLinks: []string{"www.bad.test"},
			})
			require.NoError(t, err)
			require.NotNil(t, match)
			assert.Equal(t, KindUPI, match.Kind)

			// Without a UPI candidate the bank account wins over the link.
			match, err = store.Check(ctx, detection.Intelligence{
				BankAccounts:  []string{"999999999"},
				PhishingLinks: []string{"www.bad.test"},
			})
			require.NoError(t, err)
			require.NotNil(t, match)
			assert.Equal(t, KindBank, match.Kind)
		})
	}
}

func TestAddIdempotent(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			intel := detection.Intelligence{UPIIDs: []string{"dup@upi"}}
			require.NoError(t, store.Add(ctx, intel))
			require.NoError(t, store.Add(ctx, intel))

			match, err := store.Check(ctx, intel)
			require.NoError(t, err)
			require.NotNil(t, match)
		})
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Add(ctx, detection.Intelligence{UPIIDs: []string{"race@paytm"}})
		}()
		go func() {
			defer wg.Done()
			_, _ = store.Check(ctx, detection.Intelligence{UPIIDs: []string{"race@paytm"}})
		}()
	}
	wg.Wait()

	match, err := store.Check(ctx, detection.Intelligence{UPIIDs: []string{"race@paytm"}})
	require.NoError(t, err)
	assert.NotNil(t, match)
}

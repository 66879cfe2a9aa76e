package conversation

import (
	"context"
	"encoding/json"
	"sync"
)

// Store persists conversation state between turns. Load returns (nil, nil)
// for a conversation that has never been seen. Save overwrites the whole
// record; the orchestrator calls it exactly once per completed turn.
type Store interface {
	Load(ctx context.Context, conversationID string) (*State, error)
	Save(ctx context.Context, conversationID string, state *State) error
}

// MemoryStore keeps conversation state in process memory. It exists for
// tests and for running without Redis; state is lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory conversation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, conversationID string) (*State, error) {
	s.mu.RLock()
	raw, ok := s.data[conversationID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Save implements Store. State is serialized on write so later mutations of
// the caller's struct cannot leak into the stored copy.
func (s *MemoryStore) Save(_ context.Context, conversationID string, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[conversationID] = raw
	s.mu.Unlock()
	return nil
}

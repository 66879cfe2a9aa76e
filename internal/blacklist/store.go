package blacklist

import (
	"context"
	"strings"
	"sync"

	"github.com/decoyline/scam-honeypot/internal/detection"
)

// Kind identifies which indicator set produced a blacklist match.
type Kind string

const (
	KindUPI  Kind = "upi_id"
	KindBank Kind = "bank_account"
	KindLink Kind = "phishing_link"
)

// Match describes the first flagged indicator found during a check.
type Match struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

// Store is the cross-conversation registry of indicators previously seen in
// confirmed scams. Entries are only ever added; the engine never prunes.
// Implementations must be safe for concurrent Add and Check calls.
type Store interface {
	// Add unions the given indicators into the flagged sets. Idempotent.
	Add(ctx context.Context, intel detection.Intelligence) error
	// Check looks the indicators up, testing UPI handles, then bank
	// accounts, then links. It stops at the first hit.
	Check(ctx context.Context, intel detection.Intelligence) (*Match, error)
}

// MemoryStore keeps the flagged sets in process memory. Flags do not survive
// a restart; use the Redis store when durability matters.
type MemoryStore struct {
	mu       sync.RWMutex
	upiIDs   map[string]struct{}
	accounts map[string]struct{}
	links    map[string]struct{}
}

// NewMemoryStore creates an empty in-memory flagged intelligence store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		upiIDs:   make(map[string]struct{}),
		accounts: make(map[string]struct{}),
		links:    make(map[string]struct{}),
	}
}

// Add implements Store. The union is applied atomically under the write lock.
func (s *MemoryStore) Add(_ context.Context, intel detection.Intelligence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range intel.UPIIDs {
		s.upiIDs[normalize(v)] = struct{}{}
	}
	for _, v := range intel.BankAccounts {
		s.accounts[normalize(v)] = struct{}{}
	}
	for _, v := range intel.PhishingLinks {
		s.links[normalize(v)] = struct{}{}
	}
	return nil
}

// Check implements Store.
func (s *MemoryStore) Check(_ context.Context, intel detection.Intelligence) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range intel.UPIIDs {
		if _, ok := s.upiIDs[normalize(v)]; ok {
			return &Match{Kind: KindUPI, Value: v}, nil
		}
	}
	for _, v := range intel.BankAccounts {
		if _, ok := s.accounts[normalize(v)]; ok {
			return &Match{Kind: KindBank, Value: v}, nil
		}
	}
	for _, v := range intel.PhishingLinks {
		if _, ok := s.links[normalize(v)]; ok {
			return &Match{Kind: KindLink, Value: v}, nil
		}
	}
	return nil, nil
}

// normalize applies the same case folding used at extraction time so lookups
// are exact string matches.
func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

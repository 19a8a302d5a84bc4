package leases

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process lease store for tests and local development.
type MemoryStore struct {
	mu    sync.Mutex
	rows  map[string]memoryLease
	clock func() time.Time
}

type memoryLease struct {
	callSid   string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]memoryLease), clock: time.Now}
}

// SetClock injects a deterministic clock for tests.
func (s *MemoryStore) SetClock(clock func() time.Time) { s.clock = clock }

func (s *MemoryStore) Acquire(ctx context.Context, agentID, callSid string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if l, ok := s.rows[agentID]; ok && l.expiresAt.After(now) && l.callSid != callSid {
		return ErrNotAcquired
	}
	s.rows[agentID] = memoryLease{callSid: callSid, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) Release(ctx context.Context, agentID, callSid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.rows[agentID]; ok && l.callSid == callSid {
		delete(s.rows, agentID)
	}
	return nil
}

func (s *MemoryStore) Owner(ctx context.Context, agentID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.rows[agentID]
	if !ok || !l.expiresAt.After(s.clock()) {
		return "", nil
	}
	return l.callSid, nil
}

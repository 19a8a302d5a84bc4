package agents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory agent pool for tests and local development.
// A single mutex guards find-and-reserve so the check-and-set is atomic.
type MemoryRepo struct {
	mu     sync.Mutex
	agents map[string]Agent
	clock  func() time.Time
}

func NewMemoryRepo(seed ...Agent) *MemoryRepo {
	r := &MemoryRepo{agents: make(map[string]Agent), clock: time.Now}
	for _, a := range seed {
		if a.Status == "" {
			a.Status = StatusAvailable
		}
		r.agents[a.ID] = a
	}
	return r
}

// SetClock injects a deterministic clock for tests.
func (r *MemoryRepo) SetClock(clock func() time.Time) { r.clock = clock }

func (r *MemoryRepo) ReserveAvailable(ctx context.Context) (Agent, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Stable iteration keeps local behavior predictable; the contract itself
	// does not promise an ordering.
	ids := make([]string, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		a := r.agents[id]
		if a.Status != StatusAvailable {
			continue
		}
		a.Status = StatusBusy
		a.UpdatedAt = r.clock().UTC()
		r.agents[id] = a
		return a, true, nil
	}
	return Agent{}, false, nil
}

func (r *MemoryRepo) Release(ctx context.Context, agentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.agents[agentID]
	if !ok {
		return ErrNotFound
	}
	a.Status = StatusAvailable
	a.UpdatedAt = r.clock().UTC()
	r.agents[agentID] = a
	return nil
}

func (r *MemoryRepo) SetStatus(ctx context.Context, agentID string, status Status) (Agent, error) {
	if !ValidStatus(status) {
		return Agent{}, ErrInvalidStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.agents[agentID]
	if !ok {
		return Agent{}, ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = r.clock().UTC()
	r.agents[agentID] = a
	return a, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, agentID string) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.agents[agentID]
	if !ok {
		return Agent{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

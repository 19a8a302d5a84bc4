package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory call ledger for tests and local development.
type MemoryRepo struct {
	mu    sync.Mutex
	rows  map[string]Call
	clock func() time.Time
	seq   int
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: make(map[string]Call), clock: time.Now}
}

// SetClock injects a deterministic clock for tests.
func (r *MemoryRepo) SetClock(clock func() time.Time) { r.clock = clock }

func (r *MemoryRepo) Create(ctx context.Context, callSid, from, to string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.rows[callSid]; ok {
		return existing, nil
	}

	now := r.clock().UTC()
	// seq breaks ties for calls created within the same clock tick.
	r.seq++
	c := Call{
		CallSid:   callSid,
		From:      from,
		To:        to,
		Status:    StatusInitiated,
		CreatedAt: now.Add(time.Duration(r.seq) * time.Nanosecond),
		UpdatedAt: now,
	}
	r.rows[callSid] = c
	return c, nil
}

func (r *MemoryRepo) Update(ctx context.Context, callSid string, p Patch) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.rows[callSid]
	if !ok {
		return Call{}, ErrNotFound
	}
	c = applyPatch(c, p)
	c.UpdatedAt = r.clock().UTC()
	r.rows[callSid] = c
	return c, nil
}

func (r *MemoryRepo) Get(ctx context.Context, callSid string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.rows[callSid]
	if !ok {
		return Call{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Call, 0, len(r.rows))
	for _, c := range r.rows {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func applyPatch(c Call, p Patch) Call {
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.Transcript != nil {
		c.Transcript = *p.Transcript
	}
	if p.Extraction != nil {
		e := *p.Extraction
		c.Extraction = &e
	}
	if p.Verification != nil {
		v := *p.Verification
		c.Verification = &v
	}
	if p.AgentID != nil {
		c.AgentID = *p.AgentID
	}
	if p.RecordingURL != nil {
		c.RecordingURL = *p.RecordingURL
	}
	return c
}

package leases

import (
	"context"
	"log/slog"
	"time"

	"frontdesk/internal/agents"
)

// Janitor sweeps the agent pool and releases busy agents whose reservation
// lease has expired (the caller abandoned before the dial-status callback).
type Janitor struct {
	Agents   agents.Repository
	Leases   Store
	Interval time.Duration
	Log      *slog.Logger
}

// Run sweeps on a ticker until ctx is cancelled.
func (j Janitor) Run(ctx context.Context) {
	interval := j.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep performs a single pass. Errors are logged, not returned: a failed
// sweep is retried on the next tick.
func (j Janitor) Sweep(ctx context.Context) {
	log := j.Log
	if log == nil {
		log = slog.Default()
	}

	pool, err := j.Agents.List(ctx)
	if err != nil {
		log.Error("lease sweep: list agents failed", "err", err)
		return
	}

	for _, a := range pool {
		if a.Status != agents.StatusBusy {
			continue
		}
		owner, err := j.Leases.Owner(ctx, a.ID)
		if err != nil {
			log.Error("lease sweep: owner lookup failed", "agent_id", a.ID, "err", err)
			continue
		}
		if owner != "" {
			continue
		}
		if err := j.Agents.Release(ctx, a.ID); err != nil {
			log.Error("lease sweep: release failed", "agent_id", a.ID, "err", err)
			continue
		}
		log.Warn("released agent with expired reservation lease", "agent_id", a.ID)
	}
}

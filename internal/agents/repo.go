package agents

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("agents: not found")
	ErrInvalidStatus = errors.New("agents: invalid status")
)

// Repository is the persistence contract for the shared agent pool.
//
// ReserveAvailable is the only path that sets an agent busy, and it must be
// atomic: two concurrent calls racing for the last available agent must never
// both win. The memory implementation serializes on a mutex; the Postgres
// implementation uses a conditional update inside a transaction.
type Repository interface {
	// ReserveAvailable atomically claims any available agent, marking it busy.
	// Returns ok=false when no agent is available. Selection among multiple
	// available agents is intentionally unspecified.
	ReserveAvailable(ctx context.Context) (Agent, bool, error)

	// Release puts an agent back in the pool. It is unconditional and
	// idempotent: releasing an already-available agent is not an error.
	Release(ctx context.Context, agentID string) error

	// SetStatus overrides an agent's status directly. Operator control only;
	// the dialogue flow must go through ReserveAvailable/Release.
	SetStatus(ctx context.Context, agentID string, status Status) (Agent, error)

	GetByID(ctx context.Context, agentID string) (Agent, error)
	List(ctx context.Context) ([]Agent, error)
}

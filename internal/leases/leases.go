// Package leases guards agent reservations with a TTL.
//
// A reservation is normally released by the dial-status callback, but a caller
// who abandons the call mid-gather never triggers that callback and would
// strand the agent as busy forever. Each reservation therefore takes a lease;
// the janitor returns busy agents whose lease has expired to the pool.
package leases

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL comfortably covers a normal reserve-dial-teardown cycle.
const DefaultTTL = 15 * time.Minute

var ErrNotAcquired = errors.New("leases: not acquired")

// Store tracks which call holds which agent.
type Store interface {
	// Acquire takes the lease for agentID on behalf of callSid.
	// Fails with ErrNotAcquired when another call already holds it.
	Acquire(ctx context.Context, agentID, callSid string, ttl time.Duration) error

	// Release drops the lease, but only if callSid still owns it. Releasing a
	// lease that expired or was taken over is a no-op, not an error.
	Release(ctx context.Context, agentID, callSid string) error

	// Owner returns the callSid holding the lease, or "" when unheld.
	Owner(ctx context.Context, agentID string) (string, error)
}

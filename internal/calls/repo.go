package calls

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("calls: not found")

// Repository is the persistence contract for the call ledger.
type Repository interface {
	// Create records first contact. It is idempotent on CallSid: repeated
	// creates return the existing row unchanged.
	Create(ctx context.Context, callSid, from, to string) (Call, error)

	// Update merge-applies a patch. The ledger accepts updates for terminal
	// calls; it is a log, not a state-machine guard.
	Update(ctx context.Context, callSid string, p Patch) (Call, error)

	Get(ctx context.Context, callSid string) (Call, error)

	// List returns all calls, newest first.
	List(ctx context.Context) ([]Call, error)
}

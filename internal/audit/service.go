package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only. No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records agent-pool audit events.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogReserved records an agent reservation for a call.
func (s *Service) LogReserved(ctx context.Context, agentID, callSid string) error {
	return s.Append(ctx, Event{
		Type:    EventTypeReserved,
		AgentID: agentID,
		CallSid: callSid,
		Message: "agent reserved for call transfer",
	})
}

// LogReleased records an agent returning to the pool.
func (s *Service) LogReleased(ctx context.Context, agentID, callSid, dialStatus string) error {
	return s.Append(ctx, Event{
		Type:    EventTypeReleased,
		AgentID: agentID,
		CallSid: callSid,
		Message: "agent released, dial status " + dialStatus,
	})
}

// LogStatusOverride records a manual operator override.
func (s *Service) LogStatusOverride(ctx context.Context, agentID, status string) error {
	return s.Append(ctx, Event{
		Type:    EventTypeStatusOverride,
		AgentID: agentID,
		Message: "status manually set to " + status,
	})
}

package audit

import "time"

// Event is an immutable, append-only audit record of agent-pool activity.
//
// Invariants:
// - Events are never updated or deleted.
// - Recording is best-effort; call flow must never block on audit failures.
type Event struct {
	ID string `json:"id" db:"id"`

	Type EventType `json:"type" db:"type"`

	// AgentID is the agent the event concerns.
	AgentID string `json:"agent_id,omitempty" db:"agent_id"`
	// CallSid is the call involved, when the event belongs to a call flow.
	CallSid string `json:"call_sid,omitempty" db:"call_sid"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	// EventTypeReserved: an agent was atomically claimed for a call.
	EventTypeReserved EventType = "agent_reserved"
	// EventTypeReleased: an agent returned to the pool after call teardown.
	EventTypeReleased EventType = "agent_released"
	// EventTypeStatusOverride: an operator set an agent's status by hand.
	EventTypeStatusOverride EventType = "status_override"
)

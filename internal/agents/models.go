package agents

import "time"

// Agent is a human operator who can take transferred calls.
//
// Status invariant: within the reservation protocol, an agent is busy iff it
// is currently assigned to exactly one live call. Manual overrides bypass the
// protocol and may write any status, busy included; every override is audited.
type Agent struct {
	ID          string `json:"id" db:"agent_id"`
	Name        string `json:"name" db:"name"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`

	Status Status `json:"status" db:"status"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusOffline   Status = "offline"
)

// ValidStatus reports whether s is one of the known agent statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusAvailable, StatusBusy, StatusOffline:
		return true
	default:
		return false
	}
}

package calls

import "time"

// Call is one phone call's lifecycle record.
//
// Rows are an audit trail: they are created at first contact, merge-updated on
// every webhook round-trip, and never deleted. The ledger itself never rejects
// an update; "no transitions out of a terminal status" is enforced by the
// dialogue controller, not here.
type Call struct {
	// CallSid is the carrier-assigned call identifier, stable for the call's
	// duration.
	CallSid string `json:"call_sid" db:"call_sid"`

	From string `json:"from" db:"from_number"`
	To   string `json:"to" db:"to_number"`

	Status Status `json:"status" db:"status"`

	// Transcript is the accumulated caller speech, one space-joined string.
	Transcript string `json:"transcript,omitempty" db:"transcript"`

	Extraction   *Extraction   `json:"extraction,omitempty" db:"extraction"`
	Verification *Verification `json:"verification,omitempty" db:"verification"`

	// AgentID is set when an agent has been reserved for this call.
	// At most one non-null assignment per call.
	AgentID string `json:"agent_id,omitempty" db:"agent_id"`

	RecordingURL string `json:"recording_url,omitempty" db:"recording_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Extraction is the information-extraction oracle's last structured output.
type Extraction struct {
	Name          string `json:"name"`
	Age           int    `json:"age"`
	ReadyForHuman bool   `json:"ready_for_human"`
	Response      string `json:"response,omitempty"`
}

// Verification is the plausibility judgment recorded on the ready branch.
type Verification struct {
	IsValid         bool    `json:"is_valid"`
	ConfidenceScore float64 `json:"confidence_score"`
	Reason          string  `json:"reason,omitempty"`
}

type Status string

const (
	StatusInitiated         Status = "initiated"
	StatusInProgressAI      Status = "in_progress_ai"
	StatusSpeechUnclear     Status = "speech_unclear"
	StatusConnecting        Status = "connecting"
	StatusNoAgentsAvailable Status = "no_agents_available"
	StatusAIError           Status = "ai_error"

	// Dial outcomes reported by the carrier's status callback.
	StatusCompleted Status = "completed"
	StatusNoAnswer  Status = "no_answer"
	StatusBusy      Status = "busy"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// IsTerminal reports whether a call in this status has ended.
// Terminal calls are never transitioned again.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusNoAgentsAvailable, StatusAIError, StatusCompleted,
		StatusNoAnswer, StatusBusy, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// DialOutcome maps a Twilio DialCallStatus value onto the call status enum.
// Unknown values fall back to failed so the call still terminates cleanly.
func DialOutcome(dialCallStatus string) Status {
	switch dialCallStatus {
	case "completed", "answered":
		return StatusCompleted
	case "no-answer":
		return StatusNoAnswer
	case "busy":
		return StatusBusy
	case "canceled":
		return StatusCanceled
	default:
		return StatusFailed
	}
}

// Patch is a merge-update: only non-nil fields are applied.
type Patch struct {
	Status       *Status
	Transcript   *string
	Extraction   *Extraction
	Verification *Verification
	AgentID      *string
	RecordingURL *string
}

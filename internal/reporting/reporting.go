// Package reporting aggregates call ledger rows into the dashboard's metrics.
package reporting

import (
	"context"

	"frontdesk/internal/calls"
)

// Summary is the dashboard metrics payload.
type Summary struct {
	TotalCalls int `json:"total_calls"`
	Active     int `json:"active"`

	// ByStatus counts every call by its current status.
	ByStatus map[string]int `json:"by_status"`

	Completed     int `json:"completed"`
	Transferred   int `json:"transferred"`
	NoAgents      int `json:"no_agents"`
	SystemErrors  int `json:"system_errors"`
	WithRecording int `json:"with_recording"`
}

// Service computes metrics from the call ledger.
type Service struct {
	Ledger calls.Repository
}

func NewService(ledger calls.Repository) *Service {
	return &Service{Ledger: ledger}
}

// Summarize walks the ledger once and buckets every call. The ledger is small
// enough that a full scan per dashboard refresh is fine.
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	rows, err := s.Ledger.List(ctx)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{ByStatus: make(map[string]int)}
	for _, c := range rows {
		sum.TotalCalls++
		sum.ByStatus[string(c.Status)]++

		if !c.Status.IsTerminal() {
			sum.Active++
		}
		switch c.Status {
		case calls.StatusCompleted:
			sum.Completed++
		case calls.StatusNoAgentsAvailable:
			sum.NoAgents++
		case calls.StatusAIError:
			sum.SystemErrors++
		}
		if c.AgentID != "" {
			sum.Transferred++
		}
		if c.RecordingURL != "" {
			sum.WithRecording++
		}
	}
	return sum, nil
}

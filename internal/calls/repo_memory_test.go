package calls

import (
	"context"
	"testing"
	"time"
)

func TestCreateIsIdempotent(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	first, err := repo.Create(ctx, "CA1", "+15551112222", "+15559998888")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Status != StatusInitiated {
		t.Fatalf("expected initiated, got %q", first.Status)
	}

	again, err := repo.Create(ctx, "CA1", "+15550000000", "+15550000001")
	if err != nil {
		t.Fatalf("create again: %v", err)
	}
	if again.From != "+15551112222" {
		t.Fatalf("repeated create must not overwrite, got from=%q", again.From)
	}
}

func TestUpdateMergesOnlyProvidedFields(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	repo.Create(ctx, "CA1", "+1", "+2")

	st := StatusInProgressAI
	tr := "my name is john"
	c, err := repo.Update(ctx, "CA1", Patch{Status: &st, Transcript: &tr})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if c.Status != StatusInProgressAI || c.Transcript != tr {
		t.Fatalf("unexpected call after update: %+v", c)
	}

	agent := "agent-1"
	c, err = repo.Update(ctx, "CA1", Patch{AgentID: &agent})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	// Prior fields survive a partial patch.
	if c.Status != StatusInProgressAI || c.Transcript != tr || c.AgentID != "agent-1" {
		t.Fatalf("merge-update lost fields: %+v", c)
	}
}

func TestUpdateAcceptsTerminalRows(t *testing.T) {
	// The ledger is an audit log, not a state-machine guard.
	repo := NewMemoryRepo()
	ctx := context.Background()
	repo.Create(ctx, "CA1", "+1", "+2")

	st := StatusCompleted
	if _, err := repo.Update(ctx, "CA1", Patch{Status: &st}); err != nil {
		t.Fatalf("update: %v", err)
	}
	rec := "https://api.twilio.com/recordings/RE1"
	c, err := repo.Update(ctx, "CA1", Patch{RecordingURL: &rec})
	if err != nil {
		t.Fatalf("update after terminal: %v", err)
	}
	if c.RecordingURL != rec {
		t.Fatalf("expected recording url recorded")
	}
}

func TestUpdateUnknownCall(t *testing.T) {
	repo := NewMemoryRepo()
	if _, err := repo.Update(context.Background(), "CA404", Patch{}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	now := time.Unix(1700000000, 0)
	repo.SetClock(func() time.Time { now = now.Add(time.Second); return now })

	repo.Create(ctx, "CA1", "+1", "+2")
	repo.Create(ctx, "CA2", "+1", "+2")
	repo.Create(ctx, "CA3", "+1", "+2")

	out, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(out))
	}
	if out[0].CallSid != "CA3" || out[2].CallSid != "CA1" {
		t.Fatalf("expected newest first, got %v, %v, %v", out[0].CallSid, out[1].CallSid, out[2].CallSid)
	}
}

func TestStatusTerminality(t *testing.T) {
	terminal := []Status{StatusNoAgentsAvailable, StatusAIError, StatusCompleted, StatusNoAnswer, StatusBusy, StatusFailed, StatusCanceled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Fatalf("expected %q to be terminal", s)
		}
	}
	live := []Status{StatusInitiated, StatusInProgressAI, StatusSpeechUnclear, StatusConnecting}
	for _, s := range live {
		if s.IsTerminal() {
			t.Fatalf("expected %q to be live", s)
		}
	}
}

func TestDialOutcomeMapping(t *testing.T) {
	cases := map[string]Status{
		"completed": StatusCompleted,
		"answered":  StatusCompleted,
		"no-answer": StatusNoAnswer,
		"busy":      StatusBusy,
		"canceled":  StatusCanceled,
		"failed":    StatusFailed,
		"garbage":   StatusFailed,
	}
	for in, want := range cases {
		if got := DialOutcome(in); got != want {
			t.Fatalf("DialOutcome(%q) = %q, want %q", in, got, want)
		}
	}
}

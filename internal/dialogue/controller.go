// Package dialogue implements the call-state controller: the per-turn state
// machine that decides, after each caller utterance, whether to re-prompt,
// hand the caller to a human, or end the call.
//
// The controller keeps no memory of its own between webhook invocations. All
// cross-turn state lives in the call ledger or in the conversation transcript
// round-tripped by the carrier; each turn reconstructs everything it needs
// from those two sources.
package dialogue

import (
	"context"
	"errors"
	"time"

	"frontdesk/internal/agents"
	"frontdesk/internal/audit"
	"frontdesk/internal/calls"
	"frontdesk/internal/convstate"
	"frontdesk/internal/leases"
	"frontdesk/internal/oracle"
	"frontdesk/pkg/logger"
)

// ConfidenceThreshold gates the extraction oracle: recognition at or below
// this confidence is treated as noise and re-prompted without an oracle call.
const ConfidenceThreshold = 0.5

// Controller orchestrates one call's lifecycle across webhook invocations.
type Controller struct {
	Extractor oracle.Extractor
	Verifier  oracle.Verifier
	Agents    agents.Repository
	Ledger    calls.Repository
	Leases    leases.Store
	Audit     *audit.Service

	// LeaseTTL bounds how long a reservation may outlive its dial-status
	// callback. Zero means leases.DefaultTTL.
	LeaseTTL time.Duration
}

type IncomingCall struct {
	CallSid string
	From    string
	To      string
}

type GatherInput struct {
	CallSid      string
	SpeechResult string
	Confidence   float64
	// Prior is the transcript decoded from the round-tripped token; empty on
	// the first gather turn.
	Prior string
}

type DialStatusInput struct {
	AgentID        string
	CallSid        string
	DialCallStatus string
	RecordingURL   string
}

// HandleIncoming records first contact and greets the caller.
func (c *Controller) HandleIncoming(ctx context.Context, in IncomingCall) (Decision, error) {
	if _, err := c.Ledger.Create(ctx, in.CallSid, in.From, in.To); err != nil {
		return Decision{}, err
	}
	return Decision{Kind: KindGreet, Speech: SpeechGreeting}, nil
}

// HandleGather runs one dialogue turn. Every branch returns a Decision the
// renderer can turn into valid voice markup; the caller always hears something
// before the line drops.
func (c *Controller) HandleGather(ctx context.Context, in GatherInput) (Decision, error) {
	log := logger.From(ctx).With("call_sid", in.CallSid)

	// Terminal calls are never transitioned again. A stray webhook for a
	// finished call gets a bare hangup.
	if call, err := c.Ledger.Get(ctx, in.CallSid); err == nil && call.Status.IsTerminal() {
		log.Warn("gather for terminal call ignored", "status", string(call.Status))
		return Decision{Kind: KindHangup}, nil
	}

	// Noise guard: no speech, or recognition at or below the threshold, never
	// reaches the oracle. The transcript travels on unchanged.
	if in.SpeechResult == "" || in.Confidence <= ConfidenceThreshold {
		log.Info("speech unclear, re-prompting", "confidence", in.Confidence)
		c.patch(ctx, in.CallSid, calls.Patch{Status: statusPtr(calls.StatusSpeechUnclear)})
		return Decision{Kind: KindReprompt, Speech: SpeechUnclear, Transcript: in.Prior}, nil
	}

	transcript := convstate.Append(in.Prior, in.SpeechResult)
	if err := convstate.CheckLimit(transcript); err != nil {
		log.Warn("transcript limit exceeded, ending call")
		c.patch(ctx, in.CallSid, calls.Patch{Status: statusPtr(calls.StatusFailed)})
		return Decision{Kind: KindHangup, Speech: SpeechTooLong}, nil
	}

	// The oracle re-derives everything from the full accumulated transcript;
	// it holds no state between turns.
	extraction, err := c.Extractor.Extract(ctx, transcript)
	if err != nil {
		// Terminal for this call. A voice caller cannot be kept waiting on
		// retries, and there is no way to resume once the call ends.
		log.Error("extraction oracle failed", "err", err)
		c.patch(ctx, in.CallSid, calls.Patch{
			Status:     statusPtr(calls.StatusAIError),
			Transcript: &transcript,
		})
		return Decision{Kind: KindHangup, Speech: SpeechAIError}, nil
	}

	c.patch(ctx, in.CallSid, calls.Patch{
		Transcript: &transcript,
		Extraction: &calls.Extraction{
			Name:          extraction.Name,
			Age:           extraction.Age,
			ReadyForHuman: extraction.ReadyForHuman,
			Response:      extraction.Response,
		},
	})

	if !extraction.ReadyForHuman {
		log.Info("more information needed", "name", extraction.Name, "age", extraction.Age)
		c.patch(ctx, in.CallSid, calls.Patch{Status: statusPtr(calls.StatusInProgressAI)})
		prompt := extraction.Response
		if prompt == "" {
			prompt = SpeechRepeat
		}
		return Decision{Kind: KindGatherMore, Speech: prompt, Transcript: transcript}, nil
	}

	return c.connectToAgent(ctx, in.CallSid, extraction)
}

// connectToAgent is the ready branch: verify, reserve, dial.
func (c *Controller) connectToAgent(ctx context.Context, callSid string, extraction oracle.Extraction) (Decision, error) {
	log := logger.From(ctx).With("call_sid", callSid)

	c.patch(ctx, callSid, calls.Patch{Status: statusPtr(calls.StatusConnecting)})

	// The verification judgment is recorded for the audit trail; the transfer
	// itself is gated on the extraction's readiness flag alone.
	if c.Verifier != nil {
		if v, err := c.Verifier.Verify(ctx, extraction.Name, extraction.Age); err != nil {
			log.Warn("verification oracle failed", "err", err)
		} else {
			c.patch(ctx, callSid, calls.Patch{Verification: &calls.Verification{
				IsValid:         v.IsValid,
				ConfidenceScore: v.ConfidenceScore,
				Reason:          v.Reason,
			}})
			if !v.IsValid {
				log.Warn("verification flagged caller info", "reason", v.Reason)
			}
		}
	}

	agent, ok, err := c.Agents.ReserveAvailable(ctx)
	if err != nil {
		log.Error("agent reservation failed", "err", err)
		c.patch(ctx, callSid, calls.Patch{Status: statusPtr(calls.StatusAIError)})
		return Decision{Kind: KindHangup, Speech: SpeechAIError}, nil
	}
	if !ok {
		log.Warn("no agents available")
		c.patch(ctx, callSid, calls.Patch{Status: statusPtr(calls.StatusNoAgentsAvailable)})
		return Decision{Kind: KindHangup, Speech: joinSpeech(extraction.Response, SpeechNoAgents)}, nil
	}

	if c.Leases != nil {
		if err := c.Leases.Acquire(ctx, agent.ID, callSid, c.LeaseTTL); err != nil {
			// Without a lease the agent could be stranded busy forever if the
			// caller abandons; give the agent back rather than risk it.
			log.Error("reservation lease failed, releasing agent", "agent_id", agent.ID, "err", err)
			_ = c.Agents.Release(ctx, agent.ID)
			c.patch(ctx, callSid, calls.Patch{Status: statusPtr(calls.StatusNoAgentsAvailable)})
			return Decision{Kind: KindHangup, Speech: SpeechNoAgents}, nil
		}
	}

	c.patch(ctx, callSid, calls.Patch{AgentID: &agent.ID})
	if c.Audit != nil {
		if err := c.Audit.LogReserved(ctx, agent.ID, callSid); err != nil {
			log.Warn("audit append failed", "err", err)
		}
	}

	log.Info("connecting caller to agent", "agent_id", agent.ID, "agent", agent.Name)
	return Decision{Kind: KindConnect, Speech: extraction.Response, Agent: agent}, nil
}

// HandleDialStatus releases the reserved agent and closes out the call record.
// Release is unconditional: completed, no-answer, busy and failed all release
// identically, and repeating the callback is harmless.
func (c *Controller) HandleDialStatus(ctx context.Context, in DialStatusInput) (Decision, error) {
	log := logger.From(ctx).With("call_sid", in.CallSid, "agent_id", in.AgentID)

	if err := c.Agents.Release(ctx, in.AgentID); err != nil && !errors.Is(err, agents.ErrNotFound) {
		return Decision{}, err
	}
	if c.Leases != nil {
		if err := c.Leases.Release(ctx, in.AgentID, in.CallSid); err != nil {
			log.Warn("lease release failed", "err", err)
		}
	}
	if c.Audit != nil {
		if err := c.Audit.LogReleased(ctx, in.AgentID, in.CallSid, in.DialCallStatus); err != nil {
			log.Warn("audit append failed", "err", err)
		}
	}

	// A repeated callback must not rewrite one terminal status with another;
	// the record keeps the outcome of the first teardown.
	if call, err := c.Ledger.Get(ctx, in.CallSid); err == nil && call.Status.IsTerminal() {
		log.Warn("dial status for terminal call, record unchanged", "status", string(call.Status))
		return Decision{Kind: KindNone}, nil
	}

	patch := calls.Patch{Status: statusPtr(calls.DialOutcome(in.DialCallStatus))}
	if in.RecordingURL != "" {
		patch.RecordingURL = &in.RecordingURL
	}
	c.patch(ctx, in.CallSid, patch)

	log.Info("dial finished", "dial_status", in.DialCallStatus)
	return Decision{Kind: KindNone}, nil
}

// patch is a best-effort ledger update. The ledger is an audit trail; losing
// one write must not take down the live call.
func (c *Controller) patch(ctx context.Context, callSid string, p calls.Patch) {
	if _, err := c.Ledger.Update(ctx, callSid, p); err != nil {
		logger.From(ctx).Error("call ledger update failed", "call_sid", callSid, "err", err)
	}
}

func statusPtr(s calls.Status) *calls.Status { return &s }

func joinSpeech(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}

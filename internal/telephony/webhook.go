// Package telephony adapts Twilio voice webhooks to the dialogue controller
// and renders controller decisions back into TwiML.
package telephony

import (
	"errors"
	"net/http"
	"strconv"

	"frontdesk/internal/dialogue"
)

// Webhook routes. The gather action and dial-status action URLs are built from
// these, so handlers and renderer must agree on them.
const (
	IncomingPath   = "/webhooks/twilio/incoming"
	GatherPath     = "/webhooks/twilio/gather"
	DialStatusPath = "/webhooks/twilio/dial-status"
)

var ErrMissingCallSid = errors.New("telephony: missing CallSid")

// ParseIncomingCall reads the first-contact webhook form.
func ParseIncomingCall(r *http.Request) (dialogue.IncomingCall, error) {
	in := dialogue.IncomingCall{
		CallSid: r.PostFormValue("CallSid"),
		From:    r.PostFormValue("From"),
		To:      r.PostFormValue("To"),
	}
	if in.CallSid == "" {
		return dialogue.IncomingCall{}, ErrMissingCallSid
	}
	return in, nil
}

// ParseGatherResult reads a speech-result webhook. The conversation token
// travels in the action URL's query string, not the form body. Query parsing
// already reverses the renderer's percent-encoding, so the value comes out as
// the plain transcript.
func ParseGatherResult(r *http.Request) (dialogue.GatherInput, error) {
	in := dialogue.GatherInput{
		CallSid:      r.PostFormValue("CallSid"),
		SpeechResult: r.PostFormValue("SpeechResult"),
		Prior:        r.URL.Query().Get("conversation"),
	}
	if in.CallSid == "" {
		return dialogue.GatherInput{}, ErrMissingCallSid
	}
	if raw := r.PostFormValue("Confidence"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			in.Confidence = f
		}
	}
	return in, nil
}

// ParseDialStatus reads the dial action callback. The reserved agent's id
// travels in the action URL's query string.
func ParseDialStatus(r *http.Request) (dialogue.DialStatusInput, error) {
	in := dialogue.DialStatusInput{
		AgentID:        r.URL.Query().Get("agentId"),
		CallSid:        r.PostFormValue("CallSid"),
		DialCallStatus: r.PostFormValue("DialCallStatus"),
		RecordingURL:   r.PostFormValue("RecordingUrl"),
	}
	if in.CallSid == "" {
		return dialogue.DialStatusInput{}, ErrMissingCallSid
	}
	return in, nil
}

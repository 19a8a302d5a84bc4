// Package convstate encodes a call's dialogue history into the opaque token
// round-tripped through Twilio webhook parameters.
//
// Twilio has no session memory between webhook invocations, so this token is
// the only record the system has of what the caller already said. It must
// survive every round trip intact.
package convstate

import (
	"errors"
	"net/url"
	"strings"
)

// MaxTranscriptBytes caps accumulated history. Twilio round-trips the token in
// an action URL, so unbounded growth would eventually exceed URL limits and is
// a resource-exhaustion risk in any case.
const MaxTranscriptBytes = 8192

var ErrTranscriptTooLong = errors.New("convstate: transcript exceeds limit")

// Append adds one utterance to the accumulated transcript.
// Utterances are joined by a single space; nothing is dropped or reordered.
func Append(prior, utterance string) string {
	utterance = strings.TrimSpace(utterance)
	prior = strings.TrimSpace(prior)
	if prior == "" {
		return utterance
	}
	if utterance == "" {
		return prior
	}
	return prior + " " + utterance
}

// EncodeParam makes a transcript safe to carry as a single URL query parameter.
func EncodeParam(transcript string) string {
	return url.QueryEscape(transcript)
}

// DecodeParam reverses EncodeParam.
func DecodeParam(token string) (string, error) {
	s, err := url.QueryUnescape(token)
	if err != nil {
		return "", err
	}
	return s, nil
}

// CheckLimit reports whether a transcript is still within the defensive cap.
func CheckLimit(transcript string) error {
	if len(transcript) > MaxTranscriptBytes {
		return ErrTranscriptTooLong
	}
	return nil
}

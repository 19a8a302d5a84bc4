// Package oracle defines the natural-language services the dialogue controller
// consults. Both are opaque judgment calls over unstructured text; the
// controller treats them as functions with a failure mode and nothing more, so
// any compatible service (or a deterministic stub in tests) can stand in.
package oracle

import (
	"context"
	"errors"
)

// Extraction is the structured result of reading the accumulated transcript.
type Extraction struct {
	// Name is empty when no name was found.
	Name string `json:"name"`
	// Age is 0 when no valid age was found.
	Age int `json:"age"`
	// ReadyForHuman is true only when both a plausible name and a non-zero
	// age have been extracted.
	ReadyForHuman bool `json:"readyForHuman"`
	// Response is the next utterance to speak to the caller.
	Response string `json:"response"`
}

// Verification is a plausibility judgment over an extracted name/age pair.
type Verification struct {
	IsValid         bool    `json:"isValid"`
	ConfidenceScore float64 `json:"confidenceScore"`
	Reason          string  `json:"reason"`
}

// Extractor derives caller information from the full transcript so far.
// It is re-invoked from scratch every turn; it holds no state.
type Extractor interface {
	Extract(ctx context.Context, transcript string) (Extraction, error)
}

// Verifier judges whether an extracted name/age pair is plausible.
type Verifier interface {
	Verify(ctx context.Context, name string, age int) (Verification, error)
}

var ErrEmptyTranscript = errors.New("oracle: empty transcript")

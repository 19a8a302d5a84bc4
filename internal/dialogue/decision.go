package dialogue

import "frontdesk/internal/agents"

// Decision is the controller's answer to one webhook round-trip. It is
// deliberately an explicit tagged variant: the renderer switches exhaustively
// on Kind instead of sniffing optional fields.
type Decision struct {
	Kind Kind

	// Speech is the utterance to speak this turn. For gather kinds it is the
	// prompt inside the gather; for hangup kinds it precedes the hangup.
	Speech string

	// Transcript is the accumulated conversation carried to the next turn.
	// Only meaningful for KindReprompt and KindGatherMore; the renderer
	// encodes it into the action URL.
	Transcript string

	// Agent is the reserved operator. Set only for KindConnect.
	Agent agents.Agent
}

type Kind string

const (
	// KindGreet: gather speech with the greeting prompt; first turn.
	KindGreet Kind = "greet"
	// KindReprompt: speech was unclear; say a re-prompt and redirect back to
	// the gather endpoint with the transcript unchanged.
	KindReprompt Kind = "reprompt"
	// KindGatherMore: ask the oracle's follow-up question and gather again
	// with the updated transcript.
	KindGatherMore Kind = "gather_more"
	// KindConnect: bridge the caller to the reserved agent.
	KindConnect Kind = "connect"
	// KindHangup: speak Speech (when non-empty) and end the call.
	KindHangup Kind = "hangup"
	// KindNone: empty response; the webhook exists for its side effect.
	KindNone Kind = "none"
)

// Spoken lines. Kept as constants so tests can assert on exact phrasing.
const (
	SpeechGreeting = "Hello! Welcome to the AI Call Center. Please state your full name and age."
	SpeechUnclear  = "I'm sorry, I didn't catch that. Could you please repeat it?"
	SpeechRepeat   = "I'm sorry, can you please repeat that?"
	SpeechNoAgents = "I'm sorry, but all of our agents are currently busy. Please call back later."
	SpeechAIError  = "I'm sorry, we're experiencing a system error. Please try again later."
	SpeechTooLong  = "I'm sorry, I wasn't able to get the details we need. Please call back later."
)

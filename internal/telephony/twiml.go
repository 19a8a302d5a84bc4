package telephony

import (
	"fmt"
	"net/url"

	"github.com/twilio/twilio-go/twiml"

	"frontdesk/internal/convstate"
	"frontdesk/internal/dialogue"
)

// voiceName is applied to every spoken prompt.
const voiceName = "Google.en-US-Standard-C"

// RenderTwiML turns a controller decision into a TwiML voice document. The
// switch is exhaustive over decision kinds; an unknown kind renders a bare
// hangup so the caller never hears carrier error audio.
func RenderTwiML(d dialogue.Decision) (string, error) {
	switch d.Kind {
	case dialogue.KindGreet, dialogue.KindReprompt, dialogue.KindGatherMore:
		return renderGather(d.Speech, d.Transcript)
	case dialogue.KindConnect:
		return renderDial(d)
	case dialogue.KindHangup:
		return renderHangup(d.Speech)
	case dialogue.KindNone:
		return twiml.Voice(nil)
	default:
		return renderHangup("")
	}
}

// renderGather speaks the prompt inside a speech gather whose action URL
// carries the accumulated transcript. A trailing redirect to the same URL
// turns caller silence into an empty speech result instead of a dropped call.
func renderGather(prompt, transcript string) (string, error) {
	action := gatherAction(transcript)
	gather := &twiml.VoiceGather{
		Input:         "speech",
		Action:        action,
		Method:        "POST",
		SpeechTimeout: "auto",
		SpeechModel:   "phone_call",
		InnerElements: []twiml.Element{say(prompt)},
	}
	redirect := &twiml.VoiceRedirect{Url: action, Method: "POST"}
	return twiml.Voice([]twiml.Element{gather, redirect})
}

func renderDial(d dialogue.Decision) (string, error) {
	elements := make([]twiml.Element, 0, 2)
	if d.Speech != "" {
		elements = append(elements, say(d.Speech))
	}
	dial := &twiml.VoiceDial{
		Action:        fmt.Sprintf("%s?agentId=%s", DialStatusPath, url.QueryEscape(d.Agent.ID)),
		Method:        "POST",
		Record:        "record-from-answer",
		InnerElements: []twiml.Element{&twiml.VoiceNumber{PhoneNumber: d.Agent.PhoneNumber}},
	}
	elements = append(elements, dial)
	return twiml.Voice(elements)
}

func renderHangup(speech string) (string, error) {
	elements := make([]twiml.Element, 0, 2)
	if speech != "" {
		elements = append(elements, say(speech))
	}
	elements = append(elements, &twiml.VoiceHangup{})
	return twiml.Voice(elements)
}

func say(message string) *twiml.VoiceSay {
	return &twiml.VoiceSay{Message: message, Voice: voiceName}
}

func gatherAction(transcript string) string {
	if transcript == "" {
		return GatherPath
	}
	return fmt.Sprintf("%s?conversation=%s", GatherPath, convstate.EncodeParam(transcript))
}

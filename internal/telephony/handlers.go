package telephony

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"frontdesk/internal/dialogue"
	"frontdesk/pkg/logger"
)

// Handlers groups the webhook handlers for dependency injection.
// Keep these thin: parse the form, run the controller, render TwiML.
type Handlers struct {
	Controller *dialogue.Controller
}

// Incoming answers the first-contact webhook with the greeting gather.
func (h Handlers) Incoming(c *gin.Context) {
	in, err := ParseIncomingCall(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid required"})
		return
	}
	d, err := h.Controller.HandleIncoming(c.Request.Context(), in)
	if err != nil {
		logger.FromGin(c).Error("incoming call handling failed", "err", err)
		d = dialogue.Decision{Kind: dialogue.KindHangup, Speech: dialogue.SpeechAIError}
	}
	respond(c, d)
}

// Gather runs one dialogue turn for a speech result.
func (h Handlers) Gather(c *gin.Context) {
	in, err := ParseGatherResult(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid required"})
		return
	}
	d, err := h.Controller.HandleGather(c.Request.Context(), in)
	if err != nil {
		logger.FromGin(c).Error("gather handling failed", "err", err)
		d = dialogue.Decision{Kind: dialogue.KindHangup, Speech: dialogue.SpeechAIError}
	}
	respond(c, d)
}

// DialStatus tears down the reservation after the bridged leg ends. Twilio
// only needs an empty document back.
func (h Handlers) DialStatus(c *gin.Context) {
	in, err := ParseDialStatus(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid required"})
		return
	}
	d, err := h.Controller.HandleDialStatus(c.Request.Context(), in)
	if err != nil {
		logger.FromGin(c).Error("dial status handling failed", "err", err)
		d = dialogue.Decision{Kind: dialogue.KindNone}
	}
	respond(c, d)
}

// respond writes the decision as TwiML. Rendering is infallible in practice;
// if it does fail the caller still gets valid markup ending the call.
func respond(c *gin.Context, d dialogue.Decision) {
	xml, err := RenderTwiML(d)
	if err != nil {
		logger.FromGin(c).Error("twiml rendering failed", "err", err)
		xml, _ = RenderTwiML(dialogue.Decision{Kind: dialogue.KindHangup})
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, xml)
}

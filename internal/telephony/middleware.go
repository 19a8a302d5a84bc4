package telephony

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/client"

	"frontdesk/pkg/logger"
)

// SignatureMiddleware verifies the X-Twilio-Signature header on webhook
// requests. Twilio signs the public URL it requested plus the POST params, so
// validation needs the externally visible base URL, not the listener address.
//
// In strict mode a bad signature is rejected with 403. Outside production the
// middleware only warns, which keeps local tunnels and curl testing usable.
func SignatureMiddleware(authToken, publicBaseURL string, strict bool) gin.HandlerFunc {
	validator := client.NewRequestValidator(authToken)
	base := strings.TrimRight(publicBaseURL, "/")

	return func(c *gin.Context) {
		log := logger.FromGin(c)

		if authToken == "" {
			log.Warn("webhook signature validation disabled, no auth token configured")
			c.Next()
			return
		}

		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed form body"})
			return
		}
		params := make(map[string]string, len(c.Request.PostForm))
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}

		fullURL := base + c.Request.URL.RequestURI()
		signature := c.GetHeader("X-Twilio-Signature")

		if !validator.Validate(fullURL, params, signature) {
			if strict {
				log.Warn("rejected webhook with invalid signature", "url", fullURL)
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
				return
			}
			log.Warn("webhook signature invalid, continuing in non-strict mode", "url", fullURL)
		}
		c.Next()
	}
}

package main

import (
	"database/sql"
	"net/http"
	"time"

	"frontdesk/internal/agents"
	"frontdesk/internal/audit"
	"frontdesk/internal/calls"
	"frontdesk/internal/config"
	"frontdesk/internal/dialogue"
	"frontdesk/internal/httpapi"
	"frontdesk/internal/reporting"
	"frontdesk/internal/telephony"
	"frontdesk/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type deps struct {
	Controller *dialogue.Controller
	Agents     agents.Repository
	Ledger     calls.Repository
	Audit      *audit.Service
	DB         *sql.DB
	Redis      *redis.Client
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, cfg config.Config, d deps) {
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), d.DB, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := d.Redis.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Provider webhooks (public, signature-validated).
	webhooks := r.Group("/webhooks/twilio")
	webhooks.Use(telephony.SignatureMiddleware(cfg.Twilio.AuthToken, cfg.App.PublicBaseURL, cfg.IsProduction()))
	{
		h := telephony.Handlers{Controller: d.Controller}
		webhooks.POST("/incoming", h.Incoming)
		webhooks.POST("/gather", h.Gather)
		webhooks.POST("/dial-status", h.DialStatus)
	}

	// Dashboard JSON API.
	{
		h := httpapi.Handlers{
			Agents:    d.Agents,
			Ledger:    d.Ledger,
			Reporting: reporting.NewService(d.Ledger),
			Audit:     d.Audit,
		}
		r.GET("/agents", h.ListAgents)
		r.PUT("/agents", h.SetAgentStatus)
		r.GET("/calls", h.ListCalls)
		r.GET("/calls/summary", h.CallSummary)
	}
}

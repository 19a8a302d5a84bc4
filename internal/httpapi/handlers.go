// Package httpapi serves the dashboard's JSON endpoints.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"frontdesk/internal/agents"
	"frontdesk/internal/audit"
	"frontdesk/internal/calls"
	"frontdesk/internal/reporting"
	"frontdesk/pkg/logger"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Agents    agents.Repository
	Ledger    calls.Repository
	Reporting *reporting.Service
	Audit     *audit.Service
}

// --- Agents ---

func (h Handlers) ListAgents(c *gin.Context) {
	list, err := h.Agents.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "agent listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": list})
}

type setAgentStatusRequest struct {
	AgentID string `json:"agent_id"`
	Status  string `json:"status"`
}

// SetAgentStatus is the operator's manual override. It writes the status
// directly, bypassing the reservation protocol, and leaves an audit event.
func (h Handlers) SetAgentStatus(c *gin.Context) {
	var req setAgentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.AgentID == "" || req.Status == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "agent_id, status required"})
		return
	}

	a, err := h.Agents.SetStatus(c.Request.Context(), req.AgentID, agents.Status(req.Status))
	switch {
	case errors.Is(err, agents.ErrInvalidStatus):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	case errors.Is(err, agents.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "agent not found"})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "status update failed"})
		return
	}

	if h.Audit != nil {
		if err := h.Audit.LogStatusOverride(c.Request.Context(), req.AgentID, req.Status); err != nil {
			logger.FromGin(c).Warn("audit append failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, a)
}

// --- Calls ---

// callView is a ledger row with the assigned agent resolved for display.
type callView struct {
	calls.Call
	Agent *agents.Agent `json:"agent,omitempty"`
}

func (h Handlers) ListCalls(c *gin.Context) {
	ctx := c.Request.Context()
	rows, err := h.Ledger.List(ctx)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call listing failed"})
		return
	}

	// Resolve each distinct agent once; a missing agent row leaves the id bare.
	resolved := make(map[string]*agents.Agent)
	out := make([]callView, 0, len(rows))
	for _, row := range rows {
		view := callView{Call: row}
		if row.AgentID != "" {
			a, ok := resolved[row.AgentID]
			if !ok {
				if found, err := h.Agents.GetByID(ctx, row.AgentID); err == nil {
					a = &found
				}
				resolved[row.AgentID] = a
			}
			view.Agent = a
		}
		out = append(out, view)
	}
	c.JSON(http.StatusOK, gin.H{"calls": out})
}

func (h Handlers) CallSummary(c *gin.Context) {
	sum, err := h.Reporting.Summarize(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

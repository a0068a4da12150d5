package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rotorgate/rotorgate/internal/auth"
	"github.com/rotorgate/rotorgate/internal/registry"
)

// HealthHandler reports liveness and pool occupancy.
type HealthHandler struct {
	pool *auth.Pool
}

// NewHealthHandler creates the handler.
func NewHealthHandler(pool *auth.Pool) *HealthHandler {
	return &HealthHandler{pool: pool}
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	counts := h.pool.Counts()
	c.JSON(http.StatusOK, gin.H{
		"status":               "ok",
		"antigravity_accounts": counts[registry.ProviderAntigravity],
		"codex_accounts":       counts[registry.ProviderCodex],
	})
}

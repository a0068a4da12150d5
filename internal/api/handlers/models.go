package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rotorgate/rotorgate/internal/registry"
)

// ModelsHandler serves the model listing.
type ModelsHandler struct {
	registry *registry.Registry
}

// NewModelsHandler creates the handler.
func NewModelsHandler(reg *registry.Registry) *ModelsHandler {
	return &ModelsHandler{registry: reg}
}

// List handles GET /v1/models.
func (h *ModelsHandler) List(c *gin.Context) {
	entries := h.registry.List()
	data := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		data = append(data, gin.H{
			"id":          entry.ID,
			"object":      "model",
			"created":     entry.Created,
			"owned_by":    string(entry.Provider),
			"displayName": entry.DisplayName,
		})
	}
	c.JSON(http.StatusOK, gin.H{"object": "list", "data": data})
}

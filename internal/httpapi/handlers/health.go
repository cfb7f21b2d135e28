package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/chat-gateway/internal/embedding"
)

// Health reports readiness, per spec.md §6's GET /health.
func (h *Handler) Health(c *gin.Context) {
	storesConnected := h.Gateway != nil

	c.JSON(http.StatusOK, gin.H{
		"ok":                  storesConnected,
		"providersConfigured": h.ProvidersConfigured,
		"storesConnected":     storesConnected,
		"embeddingModel":      h.Cfg.EmbeddingService,
		"embeddingSize":       embedding.Dimension,
	})
}

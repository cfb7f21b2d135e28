package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/chat-gateway/internal/vectorstore"
)

// Stats handles GET /api/v1/embedding/stats, per spec.md §6.
func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	counts := gin.H{}

	for _, collection := range []vectorstore.Collection{
		vectorstore.CollectionMessages,
		vectorstore.CollectionRooms,
		vectorstore.CollectionUsers,
		vectorstore.CollectionAIChatMessages,
	} {
		authCount, err := h.Gateway.Count(ctx, collection, nil)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		shadowCount, _ := h.Gateway.ShadowCount(ctx, collection, nil)
		counts[string(collection)] = gin.H{"authoritative": authCount, "shadow": shadowCount}
	}

	ok(c, gin.H{"counts": counts})
}

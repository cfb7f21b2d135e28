// Package httpapi wires gin routes to internal/httpapi/handlers, mounted
// by cmd/server, per spec.md §6.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/chat-gateway/internal/httpapi/handlers"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "route not found"})
	})

	r.GET("/health", h.Health)
	r.POST("/transcribe-audio", h.TranscribeAudio)
	r.POST("/describe-image", h.DescribeImage)
	r.POST("/extract-text", h.ExtractText)

	api := r.Group("/api/v1")
	{
		api.POST("/embedding/messages", h.IngestMessage)
		api.POST("/embedding/search", h.Search)
		api.GET("/embedding/stats", h.Stats)
		api.GET("/embedding/rooms/:roomId/summary", h.RoomSummary)
		api.GET("/embedding/users/:userId/personalization-summary", h.UserPersonalizationSummary)
		api.DELETE("/embedding/messages/:id", h.DeleteMessage)
		api.DELETE("/embedding/rooms/:roomId", h.DeleteRoom)

		api.POST("/chat", h.Chat)
		api.POST("/chat/reply", h.Reply)
		api.GET("/chat/history", h.ChatHistory)
		api.DELETE("/chat/history/:roomId", h.DeleteChatHistory)

		api.GET("/queues/stats", h.QueueStats)
		api.GET("/rate-limits", h.RateLimits)
	}

	return r
}

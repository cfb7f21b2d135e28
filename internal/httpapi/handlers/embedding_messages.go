package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/chat-gateway/internal/ingestion"
	"github.com/suPer8Hu/chat-gateway/internal/vectorstore"
)

type mediaItemReq struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`
}

type ingestMessageReq struct {
	Room      string         `json:"room" binding:"required"`
	Message   string         `json:"message"`
	Media     []mediaItemReq `json:"media"`
	InitID    string         `json:"initId" binding:"required"`
	CreatedAt *time.Time     `json:"createdAt"`
	From      string         `json:"from"`
	FromName  string         `json:"from_name"`
}

// IngestMessage handles POST /api/v1/embedding/messages, per spec.md §6.
func (h *Handler) IngestMessage(c *gin.Context) {
	var req ingestMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "room, initId, and one of message/media are required")
		return
	}
	if req.Message == "" && len(req.Media) == 0 {
		fail(c, http.StatusBadRequest, "one of message or media is required")
		return
	}

	start := time.Now()

	media := make([]ingestion.MediaItem, 0, len(req.Media))
	for _, m := range req.Media {
		media = append(media, ingestion.MediaItem{Kind: ingestion.MediaKind(m.Kind), Key: m.Key})
	}

	ingestReq := ingestion.Request{
		RoomID:            req.Room,
		SenderID:          req.From,
		SenderName:        req.FromName,
		ExternalMessageID: req.InitID,
		Text:              req.Message,
		Media:             media,
	}
	if req.CreatedAt != nil {
		ingestReq.CreatedAt = *req.CreatedAt
	}

	result, err := h.Ingestion.Ingest(c.Request.Context(), ingestReq)
	if err != nil {
		if err == ingestion.ErrNoContent {
			fail(c, http.StatusBadRequest, "message has no content")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	ok(c, gin.H{
		"data": gin.H{
			"id":          result.ID,
			"room_id":     result.RoomID,
			"sender_id":   result.SenderID,
			"sender_name": result.SenderName,
			"text":        result.Text,
			"created_at":  result.CreatedAt,
		},
		"processingTime": time.Since(start).Milliseconds(),
	})
}

// DeleteMessage handles DELETE /api/v1/embedding/messages/:id, per spec.md §6.
func (h *Handler) DeleteMessage(c *gin.Context) {
	id := c.Param("id")
	if err := h.Gateway.Delete(c.Request.Context(), vectorstore.CollectionMessages, []string{id}); err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, gin.H{})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/chat-gateway/internal/identity"
	"github.com/suPer8Hu/chat-gateway/internal/vectorstore"
)

// RoomSummary handles GET /api/v1/embedding/rooms/:roomId/summary, per
// spec.md §6.
func (h *Handler) RoomSummary(c *gin.Context) {
	roomID := c.Param("roomId")
	points, err := h.Gateway.Retrieve(c.Request.Context(), vectorstore.CollectionRooms, []string{identity.RoomID(roomID)})
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if len(points) == 0 {
		ok(c, gin.H{"roomId": roomID, "summary": "", "messageCount": 0})
		return
	}
	room := vectorstore.RoomAggregateFromPoint(points[0])
	ok(c, gin.H{"roomId": room.RoomID, "summary": room.Summary, "messageCount": room.MessageCount})
}

// UserPersonalizationSummary handles
// GET /api/v1/embedding/users/:userId/personalization-summary, per spec.md §6.
func (h *Handler) UserPersonalizationSummary(c *gin.Context) {
	userID := c.Param("userId")
	points, err := h.Gateway.Retrieve(c.Request.Context(), vectorstore.CollectionUsers, []string{identity.UserID(userID)})
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if len(points) == 0 {
		ok(c, gin.H{"userId": userID, "personalizationSummary": "", "messageCount": 0})
		return
	}
	user := vectorstore.UserAggregateFromPoint(points[0])
	ok(c, gin.H{"userId": user.UserID, "personalizationSummary": user.PersonalizationSummary, "messageCount": user.MessageCount})
}

// DeleteRoom handles DELETE /api/v1/embedding/rooms/:roomId, per spec.md §6:
// every message in the room is removed from both stores, then the room
// aggregate itself.
func (h *Handler) DeleteRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	ctx := c.Request.Context()

	filter := vectorstore.Filter{Equals: map[string]string{"roomId": roomID}}
	if err := h.Gateway.DeleteByFilter(ctx, vectorstore.CollectionMessages, filter); err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.Gateway.Delete(ctx, vectorstore.CollectionRooms, []string{identity.RoomID(roomID)}); err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	ok(c, gin.H{})
}

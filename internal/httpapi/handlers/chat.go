package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/chat-gateway/internal/chatorchestrator"
	"github.com/suPer8Hu/chat-gateway/internal/contextassembly"
	"github.com/suPer8Hu/chat-gateway/internal/history"
)

type chatReq struct {
	RoomID       string `json:"roomId" binding:"required"`
	UserID       string `json:"userId"`
	UserQuestion string `json:"userQuestion" binding:"required"`
}

// Chat handles POST /api/v1/chat, per spec.md §6.
func (h *Handler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "roomId and userQuestion are required")
		return
	}

	result, err := h.Orchestrator.Chat(c.Request.Context(), chatorchestrator.ChatRequest{
		RoomID: req.RoomID, UserID: req.UserID, UserQuestion: req.UserQuestion,
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	ok(c, gin.H{
		"answer":          result.Answer,
		"suggestedAnswer": result.SuggestedAnswer,
		"provider":        result.Provider,
		"model":           result.Model,
		"context":         contextJSON(result.Context),
		"metadata":        gin.H{"durationMs": result.Duration.Milliseconds()},
	})
}

type replyReq struct {
	RoomID    string `json:"roomId" binding:"required"`
	SenderID  string `json:"senderId" binding:"required"`
	MessageID string `json:"messageId" binding:"required"`
}

// Reply handles POST /api/v1/chat/reply, per spec.md §6. ErrMessageNotFound
// maps to 404 and ErrCannotReplyToSelf maps to 403, per spec.md §4.J/§7.
func (h *Handler) Reply(c *gin.Context) {
	var req replyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "roomId, senderId, and messageId are required")
		return
	}

	result, err := h.Orchestrator.Reply(c.Request.Context(), chatorchestrator.ReplyRequest{
		RoomID: req.RoomID, SenderID: req.SenderID, MessageID: req.MessageID,
	})
	if err != nil {
		switch {
		case errors.Is(err, contextassembly.ErrMessageNotFound):
			fail(c, http.StatusNotFound, "target message not found")
		case errors.Is(err, contextassembly.ErrCannotReplyToSelf):
			fail(c, http.StatusForbidden, "cannot reply to your own message")
		default:
			fail(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	ok(c, gin.H{
		"answer":          result.Answer,
		"suggestedAnswer": result.SuggestedAnswer,
		"targetMessage": gin.H{
			"externalMessageId": result.TargetExternalID,
			"senderId":          result.TargetSenderID,
			"senderName":        result.TargetSenderName,
			"text":              result.TargetText,
		},
		"context":  contextJSON(result.Context),
		"metadata": gin.H{"durationMs": result.Duration.Milliseconds()},
	})
}

// contextJSON renders a contextassembly.Quality as the `context` response
// object spec.md §6/§8 names.
func contextJSON(q contextassembly.Quality) gin.H {
	return gin.H{
		"hasRoomSummary":      q.HasRoomSummary,
		"hasUserProfile":      q.HasUserProfile,
		"hasPriorChats":       q.HasPriorChats,
		"latestMessagesCount": q.LatestMessagesCount,
		"score":               q.Score,
	}
}

// ChatHistory handles GET /api/v1/chat/history, per spec.md §6.
func (h *Handler) ChatHistory(c *gin.Context) {
	userID := c.Query("userId")
	roomID := c.Query("roomId")
	if userID == "" && roomID == "" {
		fail(c, http.StatusBadRequest, "at least one of userId or roomId is required")
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := h.History.Query(c.Request.Context(), history.QueryParams{UserID: userID, RoomID: roomID, Limit: limit})
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	ok(c, gin.H{"count": len(records), "history": records})
}

// DeleteChatHistory handles DELETE /api/v1/chat/history/:roomId, per spec.md §6.
func (h *Handler) DeleteChatHistory(c *gin.Context) {
	roomID := c.Param("roomId")
	userID := c.Query("userId")

	if err := h.History.DeleteForRoom(c.Request.Context(), roomID, userID); err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, gin.H{})
}

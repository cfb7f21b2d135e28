package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/chat-gateway/internal/embedding"
	"github.com/suPer8Hu/chat-gateway/internal/vectorstore"
)

type searchReq struct {
	Query    string  `json:"query" binding:"required"`
	TopK     *int    `json:"topK"`
	MinScore float32 `json:"minScore"`
	Room     string  `json:"room"`
}

// Search handles POST /api/v1/embedding/search, per spec.md §6: a
// cosine-similarity search over messages, reported separately for the
// authoritative and shadow stores.
func (h *Handler) Search(c *gin.Context) {
	var req searchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "query is required")
		return
	}
	topK := 5
	if req.TopK != nil {
		topK = *req.TopK
	}
	if topK < 1 || topK > 100 {
		fail(c, http.StatusBadRequest, "topK must be between 1 and 100")
		return
	}
	minScore := req.MinScore
	if minScore == 0 {
		minScore = 0.5
	}

	ctx := c.Request.Context()
	vector, err := h.Embedder.Embed(ctx, req.Query, embedding.PrefixQuery)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	var filter *vectorstore.Filter
	if req.Room != "" {
		filter = &vectorstore.Filter{Equals: map[string]string{"roomId": req.Room}}
	}

	authResults, err := h.Gateway.Authoritative.Search(ctx, vectorstore.CollectionMessages, vector, topK, filter)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	shadowResults, err := h.Gateway.Shadow.Search(ctx, vectorstore.CollectionMessages, vector, topK, filter)
	if err != nil {
		shadowResults = nil
	}

	ok(c, gin.H{
		"query": req.Query,
		"results": gin.H{
			"authoritative": aboveScore(authResults, minScore),
			"shadow":        aboveScore(shadowResults, minScore),
		},
		"metadata": gin.H{"topK": topK, "minScore": minScore, "room": req.Room},
	})
}

func aboveScore(results []vectorstore.SearchResult, minScore float32) []vectorstore.SearchResult {
	out := make([]vectorstore.SearchResult, 0, len(results))
	for _, r := range results {
		if r.Score >= minScore {
			out = append(out, r)
		}
	}
	return out
}

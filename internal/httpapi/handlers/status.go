package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/chat-gateway/internal/jobqueue"
)

// QueueStats handles GET /api/v1/queues/stats, per spec.md §6.
func (h *Handler) QueueStats(c *gin.Context) {
	ctx := c.Request.Context()
	out := gin.H{}
	for _, kind := range []jobqueue.Kind{jobqueue.KindAudio, jobqueue.KindImage, jobqueue.KindOCR, jobqueue.KindLLM} {
		stats, err := h.Queue.Stats(ctx, kind)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		out[string(kind)] = gin.H{"waiting": stats.Waiting, "completed": stats.Completed, "failed": stats.Failed}
	}
	ok(c, gin.H{"queues": out})
}

// RateLimits handles GET /api/v1/rate-limits, per spec.md §6.
func (h *Handler) RateLimits(c *gin.Context) {
	ctx := c.Request.Context()
	out := gin.H{}
	for key, policy := range h.Policies.All() {
		provider, service := splitStatusKey(key)
		status, err := h.Limiter.Status(ctx, provider, service)
		if err != nil {
			continue
		}
		out[key] = gin.H{
			"minuteCount": status.MinuteCount,
			"dayCount":    status.DayCount,
			"credits":     status.Credits,
			"perMinute":   policy.PerMinute,
			"perDay":      policy.PerDay,
			"creditLimit": policy.CreditLimit,
		}
	}
	ok(c, gin.H{"rateLimits": out})
}

func splitStatusKey(k string) (provider, service string) {
	for i := 0; i < len(k); i++ {
		if k[i] == ':' {
			return k[:i], k[i+1:]
		}
	}
	return k, ""
}

// Package handlers implements the HTTP surface of spec.md §6 over gin,
// translating business-package sentinel errors into the status codes
// spec.md §7 names.
package handlers

import (
	"github.com/suPer8Hu/chat-gateway/internal/chatorchestrator"
	"github.com/suPer8Hu/chat-gateway/internal/config"
	"github.com/suPer8Hu/chat-gateway/internal/embedding"
	"github.com/suPer8Hu/chat-gateway/internal/history"
	"github.com/suPer8Hu/chat-gateway/internal/ingestion"
	"github.com/suPer8Hu/chat-gateway/internal/jobqueue"
	"github.com/suPer8Hu/chat-gateway/internal/media"
	"github.com/suPer8Hu/chat-gateway/internal/policystore"
	"github.com/suPer8Hu/chat-gateway/internal/ratelimit"
	"github.com/suPer8Hu/chat-gateway/internal/vectorstore"
)

type Handler struct {
	Cfg config.Config

	Gateway      *vectorstore.DualGateway
	Embedder     embedding.Model
	Media        *media.Fetcher
	MediaClient  ingestion.MediaExtractor
	Queue        *jobqueue.Queue
	Limiter      *ratelimit.Limiter
	Policies     *policystore.Store
	Ingestion    *ingestion.Service
	History      *history.Store
	Orchestrator *chatorchestrator.Service

	ProvidersConfigured map[string]bool
}

func New(cfg config.Config,
	gateway *vectorstore.DualGateway,
	embedder embedding.Model,
	mediaFetcher *media.Fetcher,
	mediaClient ingestion.MediaExtractor,
	queue *jobqueue.Queue,
	limiter *ratelimit.Limiter,
	policies *policystore.Store,
	ingestionSvc *ingestion.Service,
	historyStore *history.Store,
	orchestrator *chatorchestrator.Service,
	providersConfigured map[string]bool,
) *Handler {
	return &Handler{
		Cfg:                 cfg,
		Gateway:             gateway,
		Embedder:            embedder,
		Media:               mediaFetcher,
		MediaClient:         mediaClient,
		Queue:               queue,
		Limiter:             limiter,
		Policies:            policies,
		Ingestion:           ingestionSvc,
		History:             historyStore,
		Orchestrator:        orchestrator,
		ProvidersConfigured: providersConfigured,
	}
}

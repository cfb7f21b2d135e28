// Command server runs the HTTP-facing half of the chat-gateway process
// split of spec.md §5: it accepts synchronous requests, enqueues job-kind
// work onto internal/jobqueue, and blocks for the result via internal/llmclient
// while the worker process (cmd/worker) drains the same queues.
package main

import (
	"context"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/suPer8Hu/chat-gateway/internal/chatorchestrator"
	"github.com/suPer8Hu/chat-gateway/internal/config"
	"github.com/suPer8Hu/chat-gateway/internal/contextassembly"
	"github.com/suPer8Hu/chat-gateway/internal/embedding"
	"github.com/suPer8Hu/chat-gateway/internal/history"
	"github.com/suPer8Hu/chat-gateway/internal/httpapi"
	"github.com/suPer8Hu/chat-gateway/internal/httpapi/handlers"
	"github.com/suPer8Hu/chat-gateway/internal/ingestion"
	"github.com/suPer8Hu/chat-gateway/internal/jobqueue"
	"github.com/suPer8Hu/chat-gateway/internal/llmclient"
	"github.com/suPer8Hu/chat-gateway/internal/media"
	"github.com/suPer8Hu/chat-gateway/internal/platform/logger"
	"github.com/suPer8Hu/chat-gateway/internal/policystore"
	"github.com/suPer8Hu/chat-gateway/internal/ratelimit"
	"github.com/suPer8Hu/chat-gateway/internal/summary"
	"github.com/suPer8Hu/chat-gateway/internal/vectorstore"
)

func main() {
	cfg := config.Load()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.CacheStoreURL})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Log.WithError(err).Fatal("server: cache store unreachable")
	}

	policies, err := policystore.Open(cfg.PolicyStorePath)
	if err != nil {
		logger.Log.WithError(err).Fatal("server: open policy store failed")
	}
	if err := policies.Seed(defaultPolicies()); err != nil {
		logger.Log.WithError(err).Fatal("server: seed policies failed")
	}

	limiter := ratelimit.New(rdb, policies)

	authoritative := vectorstore.NewWeaviateStore(weaviateScheme(cfg.AuthoritativeVectorURL), weaviateHost(cfg.AuthoritativeVectorURL), cfg.AuthoritativeVectorAPIKey)
	shadow, err := vectorstore.NewChromemStore(cfg.DBPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("server: open shadow store failed")
	}
	gateway := vectorstore.NewDualGateway(authoritative, shadow)

	ctx := context.Background()
	for _, collection := range []vectorstore.Collection{
		vectorstore.CollectionMessages,
		vectorstore.CollectionRooms,
		vectorstore.CollectionUsers,
		vectorstore.CollectionAIChatMessages,
	} {
		if err := gateway.Bootstrap(ctx, collection, embedding.Dimension); err != nil {
			logger.Log.WithError(err).WithField("collection", collection).Fatal("server: bootstrap collection failed")
		}
	}

	embedder := embedding.NewHTTPModel(cfg.EmbeddingService)
	mediaFetcher := media.NewFetcher(cfg.SenderBackendURL, cfg.SenderBackendMediaExceptionToken, cfg.SenderBackendMediaExceptionQuery)

	queue := jobqueue.New(rdb)
	client := llmclient.New(queue)

	summaries := summary.New(gateway, client)
	ingestionSvc := ingestion.New(mediaFetcher, client, embedder, gateway, summaries)

	historyStore := history.New(gateway)
	assembler := contextassembly.New(gateway, historyStore)
	orchestrator := chatorchestrator.New(assembler, client, historyStore)

	providersConfigured := map[string]bool{
		"groq":       cfg.GroqAPIKey != "",
		"deepgram":   cfg.DeepgramAPIKey != "",
		"assemblyai": cfg.AssemblyAIAPIKey != "",
		"gemini":     cfg.GeminiAPIKey != "",
	}

	h := handlers.New(cfg, gateway, embedder, mediaFetcher, client, queue, limiter, policies, ingestionSvc, historyStore, orchestrator, providersConfigured)
	router := httpapi.NewRouter(h)

	srvCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-srvCtx.Done()
		logger.Log.Info("server: shutting down")
	}()

	logger.Log.WithField("port", cfg.Port).Info("server: listening")
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Log.WithError(err).Fatal("server: listen failed")
	}
}

// defaultPolicies seeds the rate-limit table on first boot so the limiter
// has working ceilings without a manual provisioning step, per spec.md §4.D.
func defaultPolicies() map[string]ratelimit.Policy {
	return map[string]ratelimit.Policy{
		"groq:audio":       {PerMinute: 20, PerDay: 2000},
		"groq:image":       {PerMinute: 20, PerDay: 2000},
		"groq:ocr":         {PerMinute: 20, PerDay: 2000},
		"groq:llm":         {PerMinute: 30, PerDay: 3000},
		"deepgram:audio":   {PerMinute: 15, PerDay: 1000, CreditLimit: 200, EstimatedCostPerRequest: 0.01},
		"assemblyai:audio": {PerMinute: 10, PerDay: 500, CreditLimit: 100, EstimatedCostPerRequest: 0.02},
		"gemini:image":     {PerMinute: 15, PerDay: 1500},
		"gemini:ocr":       {PerMinute: 15, PerDay: 1500},
		"gemini:llm":       {PerMinute: 15, PerDay: 1500},
	}
}

func weaviateScheme(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return "http"
	}
	return u.Scheme
}

func weaviateHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

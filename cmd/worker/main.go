// Command worker drains internal/jobqueue at a fixed per-kind concurrency
// and runs each job through internal/dispatcher's provider-fallback chains,
// the worker half of the process split described in spec.md §5.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/suPer8Hu/chat-gateway/internal/config"
	"github.com/suPer8Hu/chat-gateway/internal/dispatcher"
	"github.com/suPer8Hu/chat-gateway/internal/jobqueue"
	"github.com/suPer8Hu/chat-gateway/internal/media"
	"github.com/suPer8Hu/chat-gateway/internal/platform/logger"
	"github.com/suPer8Hu/chat-gateway/internal/policystore"
	"github.com/suPer8Hu/chat-gateway/internal/provideradapter"
	"github.com/suPer8Hu/chat-gateway/internal/ratelimit"
)

// retainedResultTTL bounds how long a completed/failed job's result stays
// in Redis before the cron reaper clears it.
const retainedResultTTL = 24 * time.Hour

func main() {
	cfg := config.Load()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.CacheStoreURL})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Log.WithError(err).Fatal("worker: cache store unreachable")
	}

	policies, err := policystore.Open(cfg.PolicyStorePath)
	if err != nil {
		logger.Log.WithError(err).Fatal("worker: open policy store failed")
	}
	limiter := ratelimit.New(rdb, policies)

	groq := provideradapter.NewGroqProvider(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel, media.FetchURL)
	deepgram := provideradapter.NewDeepgramProvider(cfg.DeepgramBaseURL, cfg.DeepgramAPIKey, media.FetchURL)
	assemblyai := provideradapter.NewAssemblyAIProvider(cfg.AssemblyAIBaseURL, cfg.AssemblyAIAPIKey, media.FetchURL)
	gemini := provideradapter.NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel, media.FetchURL)

	d := dispatcher.New(limiter, groq, deepgram, assemblyai, gemini)
	queue := jobqueue.New(rdb)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reaper := cron.New()
	if _, err := reaper.AddFunc("@hourly", func() {
		if err := policies.Reload(); err != nil {
			logger.Log.WithError(err).Warn("worker: policy reload failed")
		}
		queue.Clean(ctx, retainedResultTTL)
	}); err != nil {
		logger.Log.WithError(err).Fatal("worker: schedule reaper failed")
	}
	reaper.Start()
	defer reaper.Stop()

	var wg sync.WaitGroup
	for _, kind := range []jobqueue.Kind{jobqueue.KindAudio, jobqueue.KindImage, jobqueue.KindOCR, jobqueue.KindLLM} {
		pool := dispatcher.NewWorkerPool(queue, d, kind)
		wg.Add(1)
		go func(kind jobqueue.Kind) {
			defer wg.Done()
			logger.Log.WithField("kind", kind).Info("worker: pool started")
			pool.Run(ctx)
			logger.Log.WithField("kind", kind).Info("worker: pool stopped")
		}(kind)
	}

	logger.Log.Info("worker: running")
	<-ctx.Done()
	logger.Log.Info("worker: shutting down")
	wg.Wait()
}

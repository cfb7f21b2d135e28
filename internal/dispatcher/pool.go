package dispatcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/suPer8Hu/chat-gateway/internal/jobqueue"
	"github.com/suPer8Hu/chat-gateway/internal/platform/logger"
)

// pollInterval bounds how long each Dequeue BLPOP call blocks for, so the
// pool notices context cancellation promptly on shutdown.
const pollInterval = 5 * time.Second

// WorkerPool drains one job kind's queue at a fixed concurrency, carried
// from cmd/worker/main.go's original goroutine-fan-out-over-a-buffered-
// channel shape, generalized from a single RabbitMQ delivery channel to
// internal/jobqueue's per-kind Dequeue loop.
type WorkerPool struct {
	queue       *jobqueue.Queue
	dispatcher  *Dispatcher
	kind        jobqueue.Kind
	concurrency int
}

func NewWorkerPool(queue *jobqueue.Queue, dispatcher *Dispatcher, kind jobqueue.Kind) *WorkerPool {
	concurrency := jobqueue.Concurrency[kind]
	if concurrency <= 0 {
		concurrency = 1
	}
	return &WorkerPool{queue: queue, dispatcher: dispatcher, kind: kind, concurrency: concurrency}
}

// Run blocks, fanning dequeued jobs out to a fixed pool of goroutines, until
// ctx is cancelled; it then drains in-flight jobs before returning.
func (wp *WorkerPool) Run(ctx context.Context) {
	jobs := make(chan *jobqueue.Job, wp.concurrency*2)

	var wg sync.WaitGroup
	wg.Add(wp.concurrency)
	for i := 0; i < wp.concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for job := range jobs {
				wp.process(ctx, job)
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		default:
		}

		job, err := wp.queue.Dequeue(ctx, wp.kind, pollInterval)
		if err != nil {
			if ctx.Err() != nil {
				close(jobs)
				wg.Wait()
				return
			}
			logger.Log.WithError(err).WithField("kind", wp.kind).Warn("dispatcher: dequeue failed")
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue // BLPOP timed out with nothing queued
		}
		jobs <- job
	}
}

// process runs one job's chain walk and resolves it terminally or retries
// it with exponential backoff, preserving the job's ID across retries so a
// caller's JobHandle.Await keeps listening on the same notification channel.
// A job whose hard timeout elapses fails terminally without a retry.
func (wp *WorkerPool) process(ctx context.Context, job *jobqueue.Job) {
	jobCtx, cancel := context.WithTimeout(ctx, time.Duration(job.TimeoutMs)*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := wp.dispatcher.HandleJob(jobCtx, job)
	cost := time.Since(start)

	if err == nil {
		wp.queue.Complete(ctx, job, result)
		return
	}

	job.AttemptsRemaining--
	if job.AttemptsRemaining <= 0 || errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
		logger.Log.WithError(err).WithFields(map[string]any{
			"job": job.ID, "kind": job.Kind, "cost": cost,
		}).Error("dispatcher: job failed terminally")
		wp.queue.RecordTerminalFailure(ctx, job, err.Error())
		return
	}

	backoff := jobqueue.Backoff(defaultAttempts - job.AttemptsRemaining)
	logger.Log.WithError(err).WithFields(map[string]any{
		"job": job.ID, "kind": job.Kind, "attemptsRemaining": job.AttemptsRemaining, "backoff": backoff,
	}).Warn("dispatcher: job failed, retrying")

	time.AfterFunc(backoff, func() {
		if err := wp.queue.Requeue(context.Background(), job); err != nil {
			logger.Log.WithError(err).WithField("job", job.ID).Error("dispatcher: requeue failed")
		}
	})
}

const defaultAttempts = 3

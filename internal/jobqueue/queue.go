// Package jobqueue implements durable FIFO-with-priority queues on top of
// the shared Redis cache store, with a blocking JobHandle.Await surface
// backed by Redis Pub/Sub completion notifications rather than polling.
//
// Priority is enforced with a single BLPOP across the three priority keys
// for a kind, listed high-to-low: Redis checks the keys in the order given
// and pops from the first non-empty one, which gives strict
// high-drains-before-normal-before-low preemption of dequeue without a
// poll loop.
package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/suPer8Hu/chat-gateway/internal/platform/logger"
)

const (
	queueKeyPrefix  = "bull:queue:"
	resultKeyPrefix = "bull:result:"
	jobKeyPrefix    = "bull:job:"
	pubsubPrefix    = "bull:notify:"
	completedZSet   = "bull:completed"
	failedZSet      = "bull:failed"
)

func queueKey(kind Kind, p Priority) string {
	return fmt.Sprintf("%s%s:%s", queueKeyPrefix, kind, p.label())
}

func notifyChannel(jobID string) string { return pubsubPrefix + jobID }

type Queue struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

func newJobID() string {
	return ulid.Make().String()
}

// Enqueue persists the job and pushes its ID onto the priority queue for
// its kind. It returns a JobHandle the caller can Await.
func (q *Queue) Enqueue(ctx context.Context, kind Kind, payload string, opts EnqueueOptions) (*JobHandle, error) {
	if opts.Priority == 0 {
		opts.Priority = PriorityNormal
	}
	if opts.Attempts <= 0 {
		opts.Attempts = defaultAttempts
	}
	if opts.TimeoutMs <= 0 {
		opts.TimeoutMs = int(HardTimeout[kind] / time.Millisecond)
	}

	job := Job{
		ID:                newJobID(),
		Kind:              kind,
		Priority:          opts.Priority,
		Payload:           payload,
		AttemptsRemaining: opts.Attempts,
		TimeoutMs:         opts.TimeoutMs,
		Status:            StatusQueued,
		CreatedAt:         time.Now().UTC(),
	}

	b, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}

	pipe := q.rdb.TxPipeline()
	pipe.Set(ctx, jobKeyPrefix+job.ID, b, resultRetention*4)
	pipe.RPush(ctx, queueKey(kind, opts.Priority), job.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	return &JobHandle{rdb: q.rdb, jobID: job.ID, timeout: time.Duration(job.TimeoutMs) * time.Millisecond}, nil
}

// Dequeue blocks until a job of the given kind is available, trying high,
// then normal, then low priority, and returns it marked active.
func (q *Queue) Dequeue(ctx context.Context, kind Kind, blockFor time.Duration) (*Job, error) {
	keys := []string{
		queueKey(kind, PriorityHigh),
		queueKey(kind, PriorityNormal),
		queueKey(kind, PriorityLow),
	}
	res, err := q.rdb.BLPop(ctx, blockFor, keys...).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	jobID := res[1]

	raw, err := q.rdb.Get(ctx, jobKeyPrefix+jobID).Bytes()
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, err
	}
	job.Status = StatusActive
	q.saveJob(ctx, &job)
	return &job, nil
}

// Requeue puts a job back on its priority queue under the same ID, so a
// caller blocked on the original JobHandle.Await keeps listening on the
// right notification channel across retries.
func (q *Queue) Requeue(ctx context.Context, job *Job) error {
	job.Status = StatusQueued
	q.saveJob(ctx, job)
	return q.rdb.RPush(ctx, queueKey(job.Kind, job.Priority), job.ID).Err()
}

func (q *Queue) saveJob(ctx context.Context, job *Job) {
	b, err := json.Marshal(job)
	if err != nil {
		return
	}
	q.rdb.Set(ctx, jobKeyPrefix+job.ID, b, resultRetention*4)
}

// Complete records a terminal result and publishes it on the job's
// completion channel so any blocked JobHandle.Await wakes immediately.
func (q *Queue) Complete(ctx context.Context, job *Job, result Result) {
	job.Status = StatusCompleted
	q.saveJob(ctx, job)
	q.publishResult(ctx, job.ID, result, completedZSet, completedKeepLast)
}

// RecordTerminalFailure records a job's final failure, once attempts are
// exhausted or the hard timeout is hit. A failure with attempts remaining is
// not recorded here: the caller re-enqueues the job with backoff instead.
func (q *Queue) RecordTerminalFailure(ctx context.Context, job *Job, errMsg string) {
	job.Status = StatusFailed
	q.saveJob(ctx, job)
	q.publishResult(ctx, job.ID, Result{Err: errMsg}, failedZSet, failedKeepLast)
}

// Backoff returns the exponential backoff delay before the next retry
// attempt, starting at 2s.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := baseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

func (q *Queue) publishResult(ctx context.Context, jobID string, result Result, zsetKey string, keepLast int64) {
	b, err := json.Marshal(result)
	if err != nil {
		logger.Log.WithError(err).Error("jobqueue: marshal result failed")
		return
	}

	pipe := q.rdb.TxPipeline()
	pipe.Set(ctx, resultKeyPrefix+jobID, b, resultRetention)
	pipe.ZAdd(ctx, zsetKey, redis.Z{Score: float64(time.Now().UnixNano()), Member: jobID})
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.WithError(err).Error("jobqueue: persist result failed")
	}

	// Publish after the result is durably stored so a waiter that wakes on
	// the notification can always read it back.
	if err := q.rdb.Publish(ctx, notifyChannel(jobID), "done").Err(); err != nil {
		logger.Log.WithError(err).Warn("jobqueue: publish completion notice failed")
	}

	q.trimRetained(ctx, zsetKey, keepLast)
}

// trimRetained keeps only the most recent keepLast entries, per spec.md
// §3's "retained briefly after completion (last 100 completed, 500 failed)".
func (q *Queue) trimRetained(ctx context.Context, zsetKey string, keepLast int64) {
	count, err := q.rdb.ZCard(ctx, zsetKey).Result()
	if err != nil || count <= keepLast {
		return
	}
	stale, err := q.rdb.ZRange(ctx, zsetKey, 0, count-keepLast-1).Result()
	if err != nil || len(stale) == 0 {
		return
	}
	pipe := q.rdb.TxPipeline()
	for _, jobID := range stale {
		pipe.Del(ctx, resultKeyPrefix+jobID, jobKeyPrefix+jobID)
	}
	pipe.ZRemRangeByRank(ctx, zsetKey, 0, count-keepLast-1)
	pipe.Exec(ctx)
}

// Clean reaps retained job/result keys older than the given duration.
// Invoked periodically by the worker's cron schedule.
func (q *Queue) Clean(ctx context.Context, olderThan time.Duration) {
	cutoff := float64(time.Now().Add(-olderThan).UnixNano())
	for _, zsetKey := range []string{completedZSet, failedZSet} {
		stale, err := q.rdb.ZRangeByScore(ctx, zsetKey, &redis.ZRangeBy{Min: "0", Max: fmt.Sprintf("%f", cutoff)}).Result()
		if err != nil || len(stale) == 0 {
			continue
		}
		pipe := q.rdb.TxPipeline()
		for _, jobID := range stale {
			pipe.Del(ctx, resultKeyPrefix+jobID, jobKeyPrefix+jobID)
		}
		pipe.ZRemRangeByScore(ctx, zsetKey, "0", fmt.Sprintf("%f", cutoff))
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Log.WithError(err).Warn("jobqueue: clean failed")
		}
	}
}

// Stats reports one kind's queue depth (Waiting) and the retained-result
// counts (Completed, Failed), which are shared across all kinds.
type Stats struct {
	Waiting   int64
	Completed int64
	Failed    int64
}

func (q *Queue) Stats(ctx context.Context, kind Kind) (Stats, error) {
	var waiting int64
	for _, p := range []Priority{PriorityHigh, PriorityNormal, PriorityLow} {
		n, err := q.rdb.LLen(ctx, queueKey(kind, p)).Result()
		if err != nil {
			return Stats{}, err
		}
		waiting += n
	}
	completed, err := q.rdb.ZCard(ctx, completedZSet).Result()
	if err != nil {
		return Stats{}, err
	}
	failed, err := q.rdb.ZCard(ctx, failedZSet).Result()
	if err != nil {
		return Stats{}, err
	}
	return Stats{Waiting: waiting, Completed: completed, Failed: failed}, nil
}

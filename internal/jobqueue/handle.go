package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrJobTimedOut is returned by Await when the job's hard timeout elapses
// before a result is published.
var ErrJobTimedOut = errors.New("jobqueue: job timed out")

// JobHandle is the opaque handle a caller holds to resolve with the
// completed result or the terminal error, per spec.md §3/§4.B.
type JobHandle struct {
	rdb     *redis.Client
	jobID   string
	timeout time.Duration
}

func (h *JobHandle) JobID() string { return h.jobID }

// Await blocks on the job's Pub/Sub completion channel rather than polling.
// A result may already be present (the job finished between Enqueue and
// the subscribe call), so the result key is checked both before and after
// subscribing.
func (h *JobHandle) Await(ctx context.Context) (Result, error) {
	if res, ok, err := h.tryRead(ctx); err != nil {
		return Result{}, err
	} else if ok {
		return res, nil
	}

	sub := h.rdb.Subscribe(ctx, notifyChannel(h.jobID))
	defer sub.Close()

	// Re-check after subscribing to close the race between the first read
	// and the subscription taking effect.
	if res, ok, err := h.tryRead(ctx); err != nil {
		return Result{}, err
	} else if ok {
		return res, nil
	}

	deadline := h.timeout
	if deadline <= 0 {
		deadline = 90 * time.Second
	}

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	ch := sub.Channel()
	select {
	case <-ch:
		res, ok, err := h.tryRead(ctx)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, errors.New("jobqueue: notified but result missing")
		}
		return res, nil
	case <-timer.C:
		return Result{}, ErrJobTimedOut
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (h *JobHandle) tryRead(ctx context.Context) (Result, bool, error) {
	raw, err := h.rdb.Get(ctx, resultKeyPrefix+h.jobID).Bytes()
	if err == redis.Nil {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, false, err
	}
	if res.Err != "" {
		return res, true, errors.New(res.Err)
	}
	return res, true, nil
}

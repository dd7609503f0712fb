// Package tracker provides asynchronous execution of pipeline runs with
// polling. Submit hands out a trace ID immediately and enqueues the run for a
// bounded worker pool; Poll reports the job's current state. Job records are
// kept until the process exits, so a completed run can be polled any number
// of times.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/prism/core"
	"github.com/hupe1980/prism/logging"
)

// Runner executes one pipeline run under a caller-supplied trace ID.
// *pipeline.Pipeline satisfies it.
type Runner interface {
	RunTraced(ctx context.Context, traceID string, req core.Request) (core.Result, error)
}

// Options configures a Tracker.
type Options struct {
	// Workers is the number of concurrent pipeline runs.
	Workers int

	// QueueSize bounds the number of submitted-but-unstarted runs. A
	// submission hitting a full queue fails immediately instead of blocking.
	QueueSize int

	Logger logging.Logger
}

type submission struct {
	traceID string
	req     core.Request
}

// Tracker runs submitted requests on a worker pool and records their
// lifecycle in an in-memory job table.
//
// Concurrency: the job table is guarded by RWMutex; workers are the only
// writers after submission.
type Tracker struct {
	runner Runner
	logger logging.Logger

	mu   sync.RWMutex
	jobs map[string]core.Job

	queue   chan submission
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
}

// New creates a Tracker and starts its workers.
func New(runner Runner, optFns ...func(o *Options)) *Tracker {
	opts := Options{
		Workers:   4,
		QueueSize: 64,
	}

	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Tracker{
		runner: runner,
		logger: logging.OrNoOp(opts.Logger),
		jobs:   make(map[string]core.Job),
		queue:  make(chan submission, opts.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < opts.Workers; i++ {
		t.wg.Add(1)
		go t.worker()
	}
	return t
}

// Submit enqueues a request and returns its trace ID immediately. The job
// starts in processing state; when the queue is full or the tracker has been
// shut down the job is recorded as failed right away, so the returned ID is
// always pollable.
func (t *Tracker) Submit(req core.Request) string {
	traceID := uuid.NewString()
	now := time.Now().UTC()

	// The stopped check, the enqueue and Shutdown's close of the queue all
	// run under t.mu, so a send can never race the close. The select has a
	// default case and cannot block while holding the lock.
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		t.jobs[traceID] = core.Job{
			TraceID:   traceID,
			Status:    core.JobError,
			Error:     "tracker stopped",
			Submitted: now,
			Finished:  now,
		}
		return traceID
	}

	select {
	case t.queue <- submission{traceID: traceID, req: req}:
		t.jobs[traceID] = core.Job{
			TraceID:   traceID,
			Status:    core.JobProcessing,
			Submitted: now,
		}
		t.logger.Debug("tracker.submitted", "trace_id", traceID, "user_id", req.UserID)
	default:
		t.jobs[traceID] = core.Job{
			TraceID:   traceID,
			Status:    core.JobError,
			Error:     "queue full",
			Submitted: now,
			Finished:  time.Now().UTC(),
		}
		t.logger.Warn("tracker.queue_full", "trace_id", traceID)
	}
	return traceID
}

// Poll returns the job for the trace ID and whether it exists. The returned
// job is a snapshot; polling a processing job again later may observe a
// terminal state.
func (t *Tracker) Poll(traceID string) (core.Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[traceID]
	return job, ok
}

// Shutdown stops accepting submissions, waits for queued and running jobs to
// finish, then cancels the worker context.
func (t *Tracker) Shutdown() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	// Closed under the same mutex Submit enqueues under, so no submission
	// can send on the closed channel.
	close(t.queue)
	t.mu.Unlock()

	t.wg.Wait()
	t.cancel()
}

func (t *Tracker) worker() {
	defer t.wg.Done()

	for sub := range t.queue {
		result, err := t.runner.RunTraced(t.ctx, sub.traceID, sub.req)
		if err != nil {
			t.fail(sub.traceID, err.Error())
			t.logger.Warn("tracker.run_failed", "trace_id", sub.traceID, "error", err.Error())
			continue
		}
		t.complete(sub.traceID, result)
		t.logger.Debug("tracker.run_completed", "trace_id", sub.traceID)
	}
}

func (t *Tracker) complete(traceID string, result core.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job := t.jobs[traceID]
	job.Status = core.JobCompleted
	job.Result = &result
	job.Finished = time.Now().UTC()
	t.jobs[traceID] = job
}

func (t *Tracker) fail(traceID, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job := t.jobs[traceID]
	job.Status = core.JobError
	job.Error = reason
	job.Finished = time.Now().UTC()
	t.jobs[traceID] = job
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	srvErrors "github.com/godispatch/core/pkg/errors"
	"github.com/godispatch/core/pkg/work"
)

type queue[T any] []T

func (wq *queue[T]) Len() int { return len(*wq) }

func (wq *queue[T]) Pop() T {
	old := *wq
	x := old[0]
	var zero T
	old[0] = zero
	*wq = old[1:]
	return x
}

func (wq *queue[T]) Push(t T) {
	*wq = append(*wq, t)
}

// Tracker is incremented when an invocation starts and decremented when it returns.
type Tracker interface {
	Increment()
	Decrement()
}

type request struct {
	inv  work.Invoker
	done func()
}

type outcome struct {
	value any
	err   error
}

type worker struct {
	done chan struct{}
	wg   *sync.WaitGroup
}

func (w worker) Work(q *QueueWorker, r request) {
	defer func() {
		w.done <- struct{}{}
		w.wg.Done()
	}()
	q.execute(r)
}

func newWorker(done chan struct{}, wg *sync.WaitGroup) worker {
	return worker{done: done, wg: wg}
}

// QueueWorker runs posted items in FIFO order with at most limit of them
// executing concurrently.
type QueueWorker struct {
	limit   int
	timeout time.Duration
	handler work.ErrorHandler
	process Tracker
	metrics *Metrics

	mainCtx context.Context

	// owned by run()
	workers   *queue[worker]
	workQueue *queue[request]
	completed bool
	waiters   []chan struct{}

	work     chan request
	slotDone chan struct{}
	complete chan struct{}
	wait     chan chan struct{}
	close    chan struct{}
	done     chan struct{}

	queued    atomic.Int64
	running   atomic.Int64
	submitted atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	cancelled atomic.Int64

	wg   sync.WaitGroup
	once sync.Once
}

type Option func(*QueueWorker)

// WithTimeout sets the per-item deadline. A non-positive value disables it.
func WithTimeout(d time.Duration) Option {
	return func(q *QueueWorker) {
		q.timeout = d
	}
}

func WithErrorHandler(h work.ErrorHandler) Option {
	return func(q *QueueWorker) {
		q.handler = h
	}
}

func WithProcessTracker(t Tracker) Option {
	return func(q *QueueWorker) {
		q.process = t
	}
}

// NewQueueWorker starts the dispatch loop. Items observe ctx cancellation
// in addition to their own deadline.
func NewQueueWorker(ctx context.Context, limit int, opts ...Option) *QueueWorker {
	if limit <= 0 {
		limit = 1
	}

	q := &QueueWorker{
		limit:     limit,
		mainCtx:   ctx,
		workers:   &queue[worker]{},
		workQueue: &queue[request]{},
		work:      make(chan request),
		slotDone:  make(chan struct{}, limit),
		complete:  make(chan struct{}),
		wait:      make(chan chan struct{}),
		close:     make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}

	for range limit {
		q.workers.Push(newWorker(q.slotDone, &q.wg))
	}
	go q.run()
	return q
}

func (q *QueueWorker) Limit() int {
	return q.limit
}

// Post enqueues an item. It never waits for a free slot.
func (q *QueueWorker) Post(inv work.Invoker) error {
	return q.PostTracked(inv, nil)
}

// PostTracked enqueues an item and calls done once its invocation has returned,
// or once the item is discarded by Close.
func (q *QueueWorker) PostTracked(inv work.Invoker, done func()) error {
	if inv == nil {
		return srvErrors.NewArgumentRequiredError("invoker")
	}

	q.queued.Add(1)
	select {
	case <-q.done:
		q.queued.Add(-1)
		return srvErrors.ErrQueueClosed
	case q.work <- request{inv: inv, done: done}:
	}

	q.submitted.Add(1)
	if q.metrics != nil {
		q.metrics.submitted.Inc()
		q.metrics.queueDepth.Set(float64(q.queued.Load()))
	}
	return nil
}

// Count returns the number of items queued but not yet started.
func (q *QueueWorker) Count() int {
	return int(q.queued.Load())
}

// Running returns the number of occupied execution slots.
func (q *QueueWorker) Running() int {
	return int(q.running.Load())
}

// Complete marks that no further drain-relevant posts are expected.
func (q *QueueWorker) Complete() {
	select {
	case q.complete <- struct{}{}:
	case <-q.done:
	}
}

// WaitCompleted blocks until the queue is marked complete and every queued and
// running item has finished, or until the timeout elapses.
func (q *QueueWorker) WaitCompleted(timeout time.Duration) bool {
	ch := make(chan struct{})
	select {
	case q.wait <- ch:
	case <-q.done:
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}

// Close discards queued items, waits for running ones and stops the loop.
// Callers cancel the context given to NewQueueWorker first.
func (q *QueueWorker) Close() {
	q.once.Do(func() {
		close(q.close)
		<-q.done
	})
}

func (q *QueueWorker) Stats() Stats {
	return Stats{
		Limit:     q.limit,
		Queued:    q.Count(),
		Running:   q.Running(),
		Submitted: q.submitted.Load(),
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
		Cancelled: q.cancelled.Load(),
	}
}

type Stats struct {
	Limit     int   `json:"limit"`
	Queued    int   `json:"queued"`
	Running   int   `json:"running"`
	Submitted int64 `json:"submitted"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Cancelled int64 `json:"cancelled"`
}

func (q *QueueWorker) run() {
	defer close(q.done)
	for {
		select {
		case r := <-q.work:
			q.workQueue.Push(r)
			q.dispatch()
		case <-q.slotDone:
			q.workers.Push(newWorker(q.slotDone, &q.wg))
			q.running.Add(-1)
			q.dispatch()
		case <-q.complete:
			q.completed = true
		case w := <-q.wait:
			q.waiters = append(q.waiters, w)
		case <-q.close:
			q.discard()
			q.wg.Wait()
			q.release()
			return
		}
		if q.drained() {
			q.release()
		}
	}
}

// dispatch drains the workQueue as much as possible
// based on available workers
func (q *QueueWorker) dispatch() {
	for q.workers.Len() > 0 && q.workQueue.Len() > 0 {
		r := q.workQueue.Pop()
		w := q.workers.Pop()
		q.queued.Add(-1)
		q.running.Add(1)
		q.wg.Add(1)
		go w.Work(q, r)
	}
	if q.metrics != nil {
		q.metrics.queueDepth.Set(float64(q.workQueue.Len()))
		q.metrics.running.Set(float64(q.limit - q.workers.Len()))
	}
}

func (q *QueueWorker) drained() bool {
	return q.completed && q.workQueue.Len() == 0 && q.workers.Len() == q.limit
}

func (q *QueueWorker) release() {
	for _, w := range q.waiters {
		close(w)
	}
	q.waiters = nil
}

func (q *QueueWorker) discard() {
	n := q.workQueue.Len()
	for q.workQueue.Len() > 0 {
		r := q.workQueue.Pop()
		q.queued.Add(-1)
		if r.done != nil {
			r.done()
		}
	}
	if n > 0 {
		zap.S().Named("scheduler").Warnw("discarded queued items on close", "count", n)
	}
}

func (q *QueueWorker) execute(r request) {
	timeout := q.timeout
	if lt, ok := r.inv.(work.Lifetimed); ok && lt.Lifetime() > 0 {
		timeout = lt.Lifetime()
	}

	var (
		ctx      context.Context
		cancel   context.CancelFunc
		deadline <-chan time.Time
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(q.mainCtx, timeout)
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	} else {
		ctx, cancel = context.WithCancel(q.mainCtx)
	}
	defer cancel()

	if q.process != nil {
		q.process.Increment()
	}

	res := make(chan outcome, 1)
	start := time.Now()
	go func() {
		var o outcome
		defer func() {
			if rec := recover(); rec != nil {
				o = outcome{err: fmt.Errorf("worker panicked: %v", rec)}
			}
			if q.process != nil {
				q.process.Decrement()
			}
			if r.done != nil {
				r.done()
			}
			res <- o
		}()
		o.value, o.err = r.inv.Invoke(ctx)
	}()

	select {
	case o := <-res:
		q.report(o.err, time.Since(start))
	case <-deadline:
		select {
		case o := <-res:
			q.report(o.err, time.Since(start))
		default:
			q.report(context.DeadlineExceeded, time.Since(start))
			// the slot stays occupied until the invocation returns; its late result is dropped
			<-res
		}
	}
}

func (q *QueueWorker) report(err error, elapsed time.Duration) {
	status := "success"
	switch {
	case err == nil:
		q.processed.Add(1)
	case work.IsCancellation(err):
		status = "cancelled"
		q.cancelled.Add(1)
		zap.S().Named("scheduler").Debugw("work item cancelled", "elapsed", elapsed)
		q.notify(nil, elapsed, true)
	default:
		status = "error"
		q.failed.Add(1)
		zap.S().Named("scheduler").Debugw("work item failed", "error", err, "elapsed", elapsed)
		q.notify(err, elapsed, false)
	}

	if q.metrics != nil {
		q.metrics.observe(status, elapsed)
	}
}

func (q *QueueWorker) notify(err error, elapsed time.Duration, cancelled bool) {
	if q.handler == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			zap.S().Named("scheduler").Errorw("error handler panicked", "panic", rec)
		}
	}()
	q.handler.HandleError(err, elapsed, cancelled)
}

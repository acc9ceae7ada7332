package dispatcher

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/godispatch/core/pkg/counter"
	srvErrors "github.com/godispatch/core/pkg/errors"
	"github.com/godispatch/core/pkg/scheduler"
	"github.com/godispatch/core/pkg/work"
)

// Poster accepts work items. Token and Chain implement it.
type Poster interface {
	Post(inv work.Invoker) error
}

// Plugin pairs a poster with the error handler of its token so that higher
// layers can post work and report their own failures the same way.
type Plugin struct {
	Poster  Poster
	Handler work.ErrorHandler
}

// Token is the handle returned by Factory.Start.
type Token struct {
	queue    *scheduler.QueueWorker
	process  *counter.Blocking
	chain    *counter.Blocking
	ctx      context.Context
	cancel   context.CancelFunc
	settings Settings
	handler  work.ErrorHandler

	closeOnce sync.Once
}

func (t *Token) Post(inv work.Invoker) error {
	if inv == nil {
		return srvErrors.NewArgumentRequiredError("invoker")
	}
	return t.queue.Post(inv)
}

// PostFunc posts a cancellation-aware function.
func (t *Token) PostFunc(fn func(ctx context.Context) error) error {
	inv, err := work.Func(fn)
	if err != nil {
		return err
	}
	return t.queue.Post(inv)
}

// PostAction posts a zero-argument action.
func (t *Token) PostAction(action func()) error {
	inv, err := work.Action(action)
	if err != nil {
		return err
	}
	return t.queue.Post(inv)
}

// PostValue posts a payload-bound item.
func PostValue[T any](p Poster, action work.ValueAction[T], data T) error {
	item, err := work.NewValue(action, data)
	if err != nil {
		return err
	}
	return p.Post(item)
}

// PostValueLifetime posts a payload-bound item with its own deadline.
func PostValueLifetime[T any](p Poster, action work.ValueAction[T], data T, lifetime time.Duration) error {
	item, err := work.NewValueLifetime(action, data, lifetime)
	if err != nil {
		return err
	}
	return p.Post(item)
}

// Chain returns a poster for items that post follow-up work. Chain items are
// counted separately and WaitCompleted waits for them before sealing the queue.
func (t *Token) Chain() *Chain {
	return &Chain{queue: t.queue, counter: t.chain}
}

// ProcessCount is the number of invocations that have not returned yet.
func (t *Token) ProcessCount() int {
	return t.process.Count()
}

func (t *Token) ProcessLimit() int {
	return t.queue.Limit()
}

// QueueProcessCount is the number of items queued but not started.
func (t *Token) QueueProcessCount() int {
	return t.queue.Count()
}

func (t *Token) Plugin() Plugin {
	return Plugin{Poster: t, Handler: t.handler}
}

// Context is cancelled by WaitCompleted, Stop and Close.
func (t *Token) Context() context.Context {
	return t.ctx
}

func (t *Token) Settings() Settings {
	return t.settings
}

type Stats struct {
	scheduler.Stats
	ProcessCount      int `json:"process_count"`
	ProcessLimit      int `json:"process_limit"`
	QueueProcessCount int `json:"queue_process_count"`
	ChainCount        int `json:"chain_count"`
}

func (t *Token) Stats() Stats {
	return Stats{
		Stats:             t.queue.Stats(),
		ProcessCount:      t.ProcessCount(),
		ProcessLimit:      t.ProcessLimit(),
		QueueProcessCount: t.QueueProcessCount(),
		ChainCount:        t.chain.Count(),
	}
}

// WaitCompleted drains the token within one overall budget:
//
//  1. wait for chain items, bounded by the full budget
//  2. mark the queue complete
//  3. cancel the token
//  4. wait for the queue to drain with what is left (at least one second),
//     then wait for in-flight invocations with what is left after that
//
// It never returns an error; work still running when the budget is exhausted
// has been cancelled and reports itself as it unwinds.
func (t *Token) WaitCompleted(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	log := zap.S().Named("dispatcher")
	deadline := time.Now().Add(timeout)

	if !t.chain.Wait(timeout) {
		log.Warnw("chain work still pending", "count", t.chain.Count())
	}

	t.queue.Complete()
	t.cancel()

	remaining := time.Until(deadline)
	if remaining <= 0 {
		remaining = time.Second
	}
	drainDeadline := time.Now().Add(remaining)

	if !t.queue.WaitCompleted(remaining) {
		log.Warnw("queue not drained", "queued", t.queue.Count(), "running", t.queue.Running())
	}

	if left := time.Until(drainDeadline); left > 0 {
		if !t.process.Wait(left) {
			log.Warnw("invocations still running", "count", t.process.Count())
		}
	}
}

// Stop yields once, then runs WaitCompleted. It returns ctx.Err() if ctx ends
// first; the drain keeps running in the background in that case.
func (t *Token) Stop(ctx context.Context, timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		runtime.Gosched()
		t.WaitCompleted(timeout)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels the token and releases its executor and counters.
// It is terminal; call it after WaitCompleted or Stop has returned.
func (t *Token) Close() error {
	t.closeOnce.Do(func() {
		t.cancel()
		t.queue.Close()
		t.process.Dispose()
		t.chain.Dispose()
		zap.S().Named("dispatcher").Debug("dispatcher token closed")
	})
	return nil
}

// Chain posts follow-up work on the same executor, tracked by the chain counter.
type Chain struct {
	queue   *scheduler.QueueWorker
	counter *counter.Blocking
}

func (c *Chain) Post(inv work.Invoker) error {
	if inv == nil {
		return srvErrors.NewArgumentRequiredError("invoker")
	}
	c.counter.Increment()
	if err := c.queue.PostTracked(inv, c.counter.Decrement); err != nil {
		c.counter.Decrement()
		return err
	}
	return nil
}

func (c *Chain) PostFunc(fn func(ctx context.Context) error) error {
	inv, err := work.Func(fn)
	if err != nil {
		return err
	}
	return c.Post(inv)
}

func (c *Chain) PostAction(action func()) error {
	inv, err := work.Action(action)
	if err != nil {
		return err
	}
	return c.Post(inv)
}

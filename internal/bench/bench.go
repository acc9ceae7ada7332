package bench

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/godispatch/core/pkg/dispatcher"
	srvErrors "github.com/godispatch/core/pkg/errors"
	"github.com/godispatch/core/pkg/work"
)

var ErrSynthetic = errors.New("synthetic failure")

type Options struct {
	Items    int
	FailRate float64
	Delay    time.Duration
	Fanout   int
	// Wait bounds the final WaitCompleted. Zero uses the dispatcher default.
	Wait time.Duration
}

func (o Options) Validate() error {
	if o.Items <= 0 {
		return srvErrors.NewInvalidSettingsError("items", "must be greater than zero")
	}
	if o.FailRate < 0 || o.FailRate > 1 {
		return srvErrors.NewInvalidSettingsError("fail-rate", "must be between 0 and 1")
	}
	if o.Delay < 0 {
		return srvErrors.NewInvalidSettingsError("delay", "must not be negative")
	}
	if o.Fanout < 0 {
		return srvErrors.NewInvalidSettingsError("fanout", "must not be negative")
	}
	return nil
}

type Result struct {
	Posted      int64
	Succeeded   int64
	Failed      int64
	Cancelled   int64
	Slowest     time.Duration
	Elapsed     time.Duration
	ProcessPeak int
}

// Throughput is the number of finished items per second.
func (r Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Succeeded+r.Failed+r.Cancelled) / r.Elapsed.Seconds()
}

type tally struct {
	posted, succeeded, failed, cancelled atomic.Int64

	mu      sync.Mutex
	slowest time.Duration
}

func (t *tally) Report(p work.ProgressData) {
	switch {
	case p.IsCancelled:
		t.cancelled.Add(1)
	case p.IsError:
		t.failed.Add(1)
	default:
		t.succeeded.Add(1)
	}

	t.mu.Lock()
	t.slowest = max(t.slowest, p.Duration)
	t.mu.Unlock()
}

// Run posts opts.Items root items through a chain of token. Each root item
// posts opts.Fanout children before finishing. Every item sleeps about
// opts.Delay and fails with probability opts.FailRate. Run returns once the
// token has been drained with WaitCompleted.
func Run(ctx context.Context, token *dispatcher.Token, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	log := zap.S().Named("bench")
	chain := token.Chain()
	t := &tally{}

	var peak atomic.Int64
	observe := func() {
		n := int64(token.ProcessCount())
		for {
			cur := peak.Load()
			if n <= cur || peak.CompareAndSwap(cur, n) {
				return
			}
		}
	}

	var post func(index int, delay time.Duration, children int) error
	post = func(index int, delay time.Duration, children int) error {
		inv, err := work.Func(func(ctx context.Context) error {
			observe()
			for i := range children {
				if err := post(index*(opts.Fanout+1)+i+1, delay/2, 0); err != nil {
					return err
				}
			}
			if err := sleep(ctx, jitter(delay)); err != nil {
				return err
			}
			if rand.Float64() < opts.FailRate {
				return ErrSynthetic
			}
			return nil
		})
		if err != nil {
			return err
		}
		if err := chain.Post(work.WithProgress(inv, t, index)); err != nil {
			return err
		}
		t.posted.Add(1)
		return nil
	}

	start := time.Now()
	for i := range opts.Items {
		if err := ctx.Err(); err != nil {
			log.Warnw("bench interrupted", "posted", t.posted.Load())
			break
		}
		if err := post(i*(opts.Fanout+1), opts.Delay, opts.Fanout); err != nil {
			return nil, err
		}
	}
	token.WaitCompleted(opts.Wait)

	t.mu.Lock()
	defer t.mu.Unlock()
	return &Result{
		Posted:      t.posted.Load(),
		Succeeded:   t.succeeded.Load(),
		Failed:      t.failed.Load(),
		Cancelled:   t.cancelled.Load(),
		Slowest:     t.slowest,
		Elapsed:     time.Since(start),
		ProcessPeak: int(peak.Load()),
	}, nil
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d/2 + rand.N(d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

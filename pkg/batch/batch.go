package batch

import (
	"context"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/godispatch/core/pkg/dispatcher"
	srvErrors "github.com/godispatch/core/pkg/errors"
)

// Token collects payloads per type and hands them to the dispatcher in batches.
type Token struct {
	plugin   dispatcher.Plugin
	defaults options

	mu      sync.RWMutex
	routes  map[reflect.Type]*route
	stopped bool

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New starts the consumer loop. Batches are posted through plugin.Poster.
func New(plugin dispatcher.Plugin, opts ...Option) *Token {
	defaults := defaultOptions()
	for _, opt := range opts {
		opt(&defaults)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Token{
		plugin:   plugin,
		defaults: defaults,
		routes:   make(map[reflect.Type]*route),
		wake:     make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go t.consume()

	return t
}

// Context is cancelled once the token is stopped.
func (t *Token) Context() context.Context {
	return t.ctx
}

// Send queues data under its dynamic type.
func (t *Token) Send(data any) error {
	if data == nil {
		return srvErrors.NewArgumentRequiredError("data")
	}
	typ := reflect.TypeOf(data)

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.stopped {
		return srvErrors.ErrBatchStopped
	}
	r, ok := t.routes[typ]
	if !ok {
		return srvErrors.NewResourceNotFoundError("batch handler", typ.String())
	}
	if r.queue.push(data) >= r.opts.maxItems {
		t.signal(r)
	}
	return nil
}

// Flush raises a pending event for T if anything of that type is queued.
func Flush[T any](t *Token) bool {
	return t.FlushType(reflect.TypeFor[T]())
}

func (t *Token) FlushType(typ reflect.Type) bool {
	t.mu.RLock()
	r, ok := t.routes[typ]
	t.mu.RUnlock()
	if !ok || r.queue.len() == 0 {
		return false
	}
	t.signal(r)
	return true
}

// Pending returns the number of queued payloads of the given type.
func (t *Token) Pending(typ reflect.Type) int {
	t.mu.RLock()
	r, ok := t.routes[typ]
	t.mu.RUnlock()
	if !ok {
		return 0
	}
	return r.queue.len()
}

// Stop cancels the consumer and blocks until it has drained every queue.
func (t *Token) Stop() {
	t.cancel()
	<-t.done
}

// StopWithin is Stop bounded by d. It reports whether the consumer exited.
func (t *Token) StopWithin(d time.Duration) bool {
	t.cancel()
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-t.done:
		return true
	case <-timer.C:
		zap.S().Named("batch").Warnw("batch consumer did not stop in time", "await", d)
		return false
	}
}

// Close cancels the consumer and releases the flush timers without waiting.
func (t *Token) Close() error {
	t.once.Do(func() {
		t.cancel()
		t.mu.Lock()
		defer t.mu.Unlock()
		for _, r := range t.routes {
			if r.ticker != nil {
				r.ticker.Stop()
			}
		}
	})
	return nil
}

func (t *Token) register(typ reflect.Type, r *route) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return srvErrors.ErrBatchStopped
	}
	if _, ok := t.routes[typ]; ok {
		return srvErrors.NewInvalidSettingsError("handler", "already registered for "+typ.String())
	}
	t.routes[typ] = r

	if r.opts.interval > 0 {
		r.ticker = time.NewTicker(r.opts.interval)
		go t.tick(r)
	}
	return nil
}

// signal marks r pending. Events for a route already pending are coalesced.
func (t *Token) signal(r *route) {
	if !r.pending.CompareAndSwap(false, true) {
		return
	}
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *Token) tick(r *route) {
	for {
		select {
		case <-t.ctx.Done():
			return
		case <-r.ticker.C:
			if r.queue.len() > 0 {
				t.signal(r)
			}
		}
	}
}

func (t *Token) consume() {
	defer close(t.done)
	log := zap.S().Named("batch")

	for {
		select {
		case <-t.wake:
			t.mu.RLock()
			routes := make([]*route, 0, len(t.routes))
			for _, r := range t.routes {
				routes = append(routes, r)
			}
			t.mu.RUnlock()

			for _, r := range routes {
				if r.pending.Swap(false) {
					if n := r.drain(); n > 0 {
						log.Debugw("flushed batch queue", "type", r.name, "items", n)
					}
				}
			}
		case <-t.ctx.Done():
			t.mu.Lock()
			t.stopped = true
			routes := make([]*route, 0, len(t.routes))
			for _, r := range t.routes {
				routes = append(routes, r)
			}
			t.mu.Unlock()

			for _, r := range routes {
				r.pending.Store(false)
				if n := r.drain(); n > 0 {
					log.Debugw("drained batch queue on stop", "type", r.name, "items", n)
				}
			}
			log.Debug("batch consumer stopped")
			return
		}
	}
}

package batch

import (
	"sync"
	"sync/atomic"
	"time"
)

// localQueue holds the payloads of one type until they are taken as a batch.
type localQueue struct {
	mu    sync.Mutex
	items []any
}

func (q *localQueue) push(v any) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, v)
	return len(q.items)
}

// take removes up to max items from the head of the queue.
func (q *localQueue) take(max int) []any {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := min(max, len(q.items))
	if n == 0 {
		return nil
	}
	out := make([]any, n)
	copy(out, q.items[:n])
	clear(q.items[:n])
	q.items = q.items[n:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return out
}

func (q *localQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// route binds a local queue to the function delivering its batches.
type route struct {
	name    string
	queue   localQueue
	opts    options
	pending atomic.Bool
	deliver func(items []any)
	ticker  *time.Ticker
}

// drain delivers everything queued, one batch of at most maxItems at a time.
func (r *route) drain() int {
	total := 0
	for {
		items := r.queue.take(r.opts.maxItems)
		if len(items) == 0 {
			return total
		}
		total += len(items)
		r.deliver(items)
	}
}

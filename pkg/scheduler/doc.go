// Package scheduler implements the bounded executor that runs posted work items.
//
// The QueueWorker accepts work.Invoker items into a FIFO queue and runs at most
// N of them concurrently (N = the prefetch limit). Posting never blocks on the
// concurrency cap; only starting an item does.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────────┐
//	│                          QueueWorker                                │
//	│                                                                     │
//	│  ┌──────────────┐      ┌──────────────┐      ┌──────────────┐       │
//	│  │   Slot 1     │      │   Slot 2     │      │   Slot N     │       │
//	│  └──────────────┘      └──────────────┘      └──────────────┘       │
//	│         ▲                     ▲                     ▲               │
//	│         └─────────────────────┼─────────────────────┘               │
//	│                        ┌──────┴──────┐                              │
//	│                        │  dispatch() │                              │
//	│                        └──────┬──────┘                              │
//	│  ┌────────────────────────────┴────────────────────────────┐        │
//	│  │                      Work Queue                         │        │
//	│  │  [item1] [item2] [item3] ...                            │        │
//	│  └─────────────────────────────────────────────────────────┘        │
//	│                               ▲                                     │
//	│                          Post(item)                                 │
//	└─────────────────────────────────────────────────────────────────────┘
//
// # Event Loop
//
// A single goroutine owns the queue, the free slots and the drain waiters:
//
//	for {
//	    select {
//	    case r := <-q.work:       // item posted
//	    case <-q.slotDone:        // slot released
//	    case <-q.complete:        // Complete() called
//	    case w := <-q.wait:       // WaitCompleted() registered a waiter
//	    case <-q.close:           // Close(): discard queue, wait slots, exit
//	    }
//	    if drained { release waiters }
//	}
//
// The queue is drained when it has been marked complete, nothing is queued and
// every slot is free. Waiters are released by closing their channel, so
// WaitCompleted never polls.
//
// # Per-Item Deadline
//
// Each item runs with a context derived from the context given to
// NewQueueWorker (the token-level cancellation) and bounded by the per-item
// timeout; whichever fires first wins. Time-limited items (work.Lifetimed) use
// their own lifetime instead of the configured timeout.
//
// When the deadline fires before the item returns, the item is reported as
// cancelled right away. Its slot stays occupied until the invocation actually
// returns, so an item ignoring its context never lets the queue exceed its
// limit. The late result is dropped without a second report.
//
// # Failure Reporting
//
//	┌──────────────────────────┬───────────────────────────────────────┐
//	│ Outcome                  │ ErrorHandler call                     │
//	├──────────────────────────┼───────────────────────────────────────┤
//	│ nil error                │ none                                  │
//	│ context.Canceled         │ HandleError(nil, elapsed, true)       │
//	│ context.DeadlineExceeded │ HandleError(nil, elapsed, true)       │
//	│ deadline fired           │ HandleError(nil, elapsed, true)       │
//	│ any other error / panic  │ HandleError(err, elapsed, false)      │
//	└──────────────────────────┴───────────────────────────────────────┘
//
// Exactly one call is made per failed item. Failures never affect siblings.
//
// # Usage Example
//
//	ctx, cancel := context.WithCancel(context.Background())
//	q := scheduler.NewQueueWorker(ctx, 4,
//	    scheduler.WithTimeout(10*time.Second),
//	    scheduler.WithErrorHandler(handler),
//	)
//
//	inv, _ := work.Func(func(ctx context.Context) error { return nil })
//	_ = q.Post(inv)
//
//	q.Complete()
//	q.WaitCompleted(5 * time.Second)
//	cancel()
//	q.Close()
package scheduler

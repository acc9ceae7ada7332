// Package dispatcher provides the token used to post work onto a bounded
// executor and to shut it down within a single time budget.
//
// # Overview
//
// A Factory validates Settings and starts a Token. The token owns a
// cancellation context, the executor, and two blocking counters:
//
//	              Post / PostFunc / PostAction / PostValue
//	  caller ─────────────────────────────────────────────┐
//	                                                      ▼
//	  Chain().Post ──► chain counter ++ ──────────► QueueWorker ──► ErrorHandler
//	                        ▲                         │    │
//	                        └──── -- on completion ───┘    └─► process counter
//
// The process counter tracks every invocation that has not returned. The chain
// counter tracks items posted through a Chain, which are items that may post
// more work themselves.
//
// # Shutdown
//
// WaitCompleted computes one deadline and spends it in order:
//
//	chain.Wait(budget) ─► queue.Complete() ─► cancel() ─► queue.WaitCompleted(rest) ─► process.Wait(rest)
//
// The drain phase gets at least one second even when the budget is spent.
// WaitCompleted does not fail; anything still running has been cancelled and
// reports itself to the error handler as it unwinds. Stop runs the same
// protocol after yielding once and can be abandoned through its context.
//
// Close is terminal. Call it after WaitCompleted or Stop has returned.
//
// # Plugin
//
// Plugin pairs the token with its error handler so that the batch layer can
// post batches and report its own failures through the same handler.
package dispatcher

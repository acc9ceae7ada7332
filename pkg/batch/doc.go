// Package batch groups payloads by type and posts them to a dispatcher token
// as batches.
//
// # Overview
//
//	Send(v) ──► local queue[typeof v] ──┐
//	                                    │ Flush / tick / max items
//	                                    ▼
//	                        pending flag (coalesced) ──► wake
//	                                                      │
//	                                             consumer goroutine
//	                                                      │ take(maxItems)
//	                                                      ▼
//	                                    Plugin.Poster.Post(Value[[]T])
//	                                                      │
//	                                    Handler[T] with backoff retries
//
// Each payload type has one queue and one handler, registered with Handle.
// A trigger only sets the pending flag of its queue; the consumer clears the
// flag and takes items under the queue lock, so a payload is delivered once
// no matter how many triggers race for it. Ordering across types is not
// preserved.
//
// # Retries
//
// A failing batch is retried with exponential backoff. A handler returning
// backoff.Permanent stops retrying at once. The last error is returned from
// the work item and therefore reaches the dispatcher's error handler.
//
// # Stopping
//
// Stop and StopWithin cancel the token context. The consumer then refuses new
// payloads, drains every queue once and signals completion. Close releases the
// flush timers without waiting.
package batch

// Package services implements the business logic layer of the dispatcher service.
//
// # Service Dependency Graph
//
//	Handlers (HTTP endpoints)       cmd/dispatcher bench
//	    │                                  │
//	    ▼                                  ▼
//	Dispatcher ──► dispatcher.Token ──► scheduler.QueueWorker
//	    │               │ error handler
//	    │               ▼
//	    │            Journal ──Send──► batch.Token ──Post──► dispatcher.Token
//	    │                                                         │
//	    └──────────────► Store ◄──────── Journal.Persist ◄────────┘
//
// # Dispatcher
//
// Dispatcher owns the token, the batch token and the journal. It exposes
// statistics, the failure journal, probes and the shutdown sequence:
//
//  1. Stop the token within the shutdown budget. Failures reported while
//     draining are queued in the batch token.
//  2. Stop the batch token. Its final drain posts the last journal batches.
//  3. Wait on the token again so that those batches are written.
//  4. Close both tokens.
//
// Usage:
//
//	svc, err := services.NewDispatcher(cfg, st, prometheus.DefaultRegisterer)
//	err = svc.Probe(models.Probe{Delay: time.Second, Fail: true})
//	page, err := svc.Failures(ctx, services.FailureListParams{Limit: 20})
//	err = svc.Shutdown(ctx)
//
// # Journal
//
// Journal implements work.ErrorHandler. Each report is logged and turned into
// a models.Failure with a random UUID. Failures are sent to the batch token and
// written with one INSERT per batch. Errors from those writes are only logged
// so that a broken database does not feed the journal with its own failures.
package services

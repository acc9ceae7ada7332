// Package store implements the failure journal on top of DuckDB.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                         Store (facade)                          │
//	├─────────────────────────────────────────────────────────────────┤
//	│                        FailureStore                             │
//	│                             ▼                                   │
//	│                    QueryInterceptor (debug log)                 │
//	│                             ▼                                   │
//	│                   failures, schema_migrations                   │
//	└─────────────────────────────────────────────────────────────────┘
//
// Tables are created by the embedded migrations in migrations/sql:
//
//	┌────────────────────┬─────────────────────────────────────────────┐
//	│  Table             │  Purpose                                    │
//	├────────────────────┼─────────────────────────────────────────────┤
//	│  failures          │  One row per error handler report           │
//	│  schema_migrations │  Migration version tracking                 │
//	└────────────────────┴─────────────────────────────────────────────┘
//
// Schema:
//
//	failures (
//	    id VARCHAR PRIMARY KEY,
//	    error VARCHAR NOT NULL DEFAULT '',
//	    cancelled BOOLEAN NOT NULL DEFAULT false,
//	    elapsed_ns BIGINT NOT NULL DEFAULT 0,
//	    created_at TIMESTAMP NOT NULL DEFAULT now()
//	)
//
// # FailureStore
//
// InsertBatch writes a whole batch with one multi-row INSERT built with
// squirrel, so a batch is stored entirely or not at all. List and Count take
// ListOption functions that modify the squirrel.SelectBuilder:
//
//	failures, err := s.Failures().List(ctx,
//	    store.ByCancelled(true),
//	    store.WithDefaultSort(),
//	    store.WithLimit(50),
//	    store.WithOffset(0),
//	)
//
// Filtering options:
//
//   - ByCancelled(bool): WHERE cancelled = ?
//   - ByCreatedAfter(t): WHERE created_at >= ?
//
// Pagination and sorting:
//
//   - WithLimit(n), WithOffset(n)
//   - WithDefaultSort(): ORDER BY created_at DESC, id
//
// Sort options must not be passed to Count.
//
// # QueryInterceptor
//
// Every statement issued by the sub-stores goes through QueryInterceptor,
// which logs the query, argument count, duration and error at debug level
// under the "store" logger.
package store

package store

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// QueryInterceptor wraps a database handle and logs every statement at debug level.
type QueryInterceptor struct {
	db *sql.DB
}

func NewQueryInterceptor(db *sql.DB) QueryInterceptor {
	return QueryInterceptor{db: db}
}

func (q QueryInterceptor) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := q.db.QueryRowContext(ctx, query, args...)
	q.log("query_row", query, args, start, row.Err())
	return row
}

func (q QueryInterceptor) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := q.db.QueryContext(ctx, query, args...)
	q.log("query", query, args, start, err)
	return rows, err
}

func (q QueryInterceptor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := q.db.ExecContext(ctx, query, args...)
	q.log("exec", query, args, start, err)
	return res, err
}

func (q QueryInterceptor) log(op, query string, args []any, start time.Time, err error) {
	log := zap.S().Named("store")
	if err != nil {
		log.Debugw(op, "query", query, "args", len(args), "duration", time.Since(start), "error", err)
		return
	}
	log.Debugw(op, "query", query, "args", len(args), "duration", time.Since(start))
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/godispatch/core/internal/models"
	srvErrors "github.com/godispatch/core/pkg/errors"
)

type FailureStore struct {
	db QueryInterceptor
}

func NewFailureStore(db QueryInterceptor) *FailureStore {
	return &FailureStore{db: db}
}

// InsertBatch writes all failures with a single statement.
func (s *FailureStore) InsertBatch(ctx context.Context, failures []models.Failure) error {
	if len(failures) == 0 {
		return nil
	}

	builder := sq.Insert(failuresTable).Columns(failureColumns...)
	for _, f := range failures {
		builder = builder.Values(f.ID, f.Error, f.Cancelled, f.Elapsed.Nanoseconds(), f.CreatedAt.UTC())
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *FailureStore) Get(ctx context.Context, id string) (*models.Failure, error) {
	row := s.db.QueryRowContext(ctx, queryGetFailure, id)

	f, err := scanFailure(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, srvErrors.NewFailureNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FailureStore) List(ctx context.Context, opts ...ListOption) ([]models.Failure, error) {
	builder := sq.Select(failureColumns...).From(failuresTable)

	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []models.Failure
	for rows.Next() {
		f, err := scanFailure(rows)
		if err != nil {
			return nil, err
		}
		failures = append(failures, *f)
	}

	return failures, rows.Err()
}

func (s *FailureStore) Count(ctx context.Context, opts ...ListOption) (int, error) {
	builder := sq.Select("COUNT(*)").From(failuresTable)

	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// DeleteBefore removes failures created before t and returns how many were removed.
func (s *FailureStore) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, queryDeleteFailuresBefore, t.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFailure(row scanner) (*models.Failure, error) {
	var (
		f       models.Failure
		elapsed int64
	)
	if err := row.Scan(&f.ID, &f.Error, &f.Cancelled, &elapsed, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.Elapsed = time.Duration(elapsed)
	return &f, nil
}

type ListOption func(sq.SelectBuilder) sq.SelectBuilder

func ByCancelled(cancelled bool) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(sq.Eq{"cancelled": cancelled})
	}
}

func ByCreatedAfter(t time.Time) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(sq.GtOrEq{"created_at": t.UTC()})
	}
}

func WithLimit(limit uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Limit(limit)
	}
}

func WithOffset(offset uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Offset(offset)
	}
}

// WithDefaultSort orders newest first, with the id as tie-breaker.
func WithDefaultSort() ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.OrderBy("created_at DESC", "id")
	}
}

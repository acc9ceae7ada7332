package services

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/godispatch/core/internal/models"
	"github.com/godispatch/core/internal/store"
	"github.com/godispatch/core/pkg/batch"
)

// Journal is the error handler of the dispatcher. It logs every report and
// queues it as a failure row; the batch layer persists the rows in bulk.
type Journal struct {
	batch atomic.Pointer[batch.Token]
	now   func() time.Time
}

func NewJournal() *Journal {
	return &Journal{now: time.Now}
}

// Attach routes failures to tok. Reports received before Attach are only logged.
func (j *Journal) Attach(tok *batch.Token) {
	j.batch.Store(tok)
}

func (j *Journal) HandleError(err error, elapsed time.Duration, cancelled bool) {
	log := zap.S().Named("journal")

	var perr *persistError
	if errors.As(err, &perr) {
		log.Errorw("failed to persist failures", "error", perr.err, "count", perr.count)
		return
	}

	f := models.Failure{
		ID:        uuid.NewString(),
		Cancelled: cancelled,
		Elapsed:   elapsed,
		CreatedAt: j.now(),
	}
	if cancelled {
		log.Warnw("work item cancelled", "id", f.ID, "elapsed", elapsed)
	} else {
		if err != nil {
			f.Error = err.Error()
		}
		log.Errorw("work item failed", "id", f.ID, "error", err, "elapsed", elapsed)
	}

	tok := j.batch.Load()
	if tok == nil {
		return
	}
	if err := tok.Send(f); err != nil {
		log.Debugw("failure not journaled", "id", f.ID, "error", err)
	}
}

// Pending returns the number of failures waiting to be written.
func (j *Journal) Pending() int {
	tok := j.batch.Load()
	if tok == nil {
		return 0
	}
	return tok.Pending(reflect.TypeFor[models.Failure]())
}

// Persist returns the batch handler writing failures to st.
// Writes are detached from the dispatcher context so that failures reported
// during shutdown are still stored. A positive retention deletes rows older
// than now-retention after each write.
func (j *Journal) Persist(st *store.FailureStore, retention time.Duration) batch.Handler[models.Failure] {
	return func(ctx context.Context, failures []models.Failure) error {
		ctx = context.WithoutCancel(ctx)
		log := zap.S().Named("journal")

		if err := st.InsertBatch(ctx, failures); err != nil {
			return &persistError{err: err, count: len(failures)}
		}
		log.Debugw("failures persisted", "count", len(failures))

		if retention <= 0 {
			return nil
		}
		// rows are already written; a failed sweep is retried with the next batch
		deleted, err := st.DeleteBefore(ctx, j.now().Add(-retention))
		if err != nil {
			log.Warnw("failed to prune failures", "error", err)
			return nil
		}
		if deleted > 0 {
			log.Debugw("failures pruned", "count", deleted, "retention", retention)
		}
		return nil
	}
}

// persistError marks journal write failures so that they are not journaled again.
type persistError struct {
	err   error
	count int
}

func (e *persistError) Error() string {
	return "persist failures: " + e.err.Error()
}

func (e *persistError) Unwrap() error {
	return e.err
}

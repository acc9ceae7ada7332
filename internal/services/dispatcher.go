package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/godispatch/core/internal/config"
	"github.com/godispatch/core/internal/models"
	"github.com/godispatch/core/internal/store"
	"github.com/godispatch/core/pkg/batch"
	"github.com/godispatch/core/pkg/dispatcher"
	"github.com/godispatch/core/pkg/work"
)

const metricsPrefix = "dispatcher"

// ErrProbeFailed is returned by probes asked to fail.
var ErrProbeFailed = errors.New("probe failed on request")

type Dispatcher struct {
	cfg       *config.Configuration
	store     *store.Store
	journal   *Journal
	token     *dispatcher.Token
	batch     *batch.Token
	startedAt time.Time
}

// NewDispatcher starts a token whose failures are journaled into st.
// reg may be nil to disable metrics.
func NewDispatcher(cfg *config.Configuration, st *store.Store, reg prometheus.Registerer) (*Dispatcher, error) {
	journal := NewJournal()

	var opts []dispatcher.FactoryOption
	if reg != nil {
		opts = append(opts, dispatcher.WithMetrics(reg, metricsPrefix))
	}

	token, err := dispatcher.NewFactory(journal, opts...).Start(cfg.Settings())
	if err != nil {
		return nil, err
	}

	tok := batch.New(token.Plugin(),
		batch.WithInterval(cfg.Batch.FlushInterval),
		batch.WithMaxItems(cfg.Batch.MaxItems),
		batch.WithRetries(cfg.Batch.MaxRetries),
	)
	if err := batch.Handle[models.Failure](tok, journal.Persist(st.Failures(), cfg.Journal.Retention)); err != nil {
		_ = tok.Close()
		_ = token.Close()
		return nil, err
	}
	journal.Attach(tok)

	zap.S().Named("dispatcher_service").Infow("dispatcher started",
		"prefetch_count", cfg.Dispatcher.PrefetchCount, "timeout", cfg.Dispatcher.Timeout)

	return &Dispatcher{
		cfg:       cfg,
		store:     st,
		journal:   journal,
		token:     token,
		batch:     tok,
		startedAt: time.Now(),
	}, nil
}

// Token exposes the underlying token for posting work directly.
func (d *Dispatcher) Token() *dispatcher.Token {
	return d.token
}

func (d *Dispatcher) Stats() models.DispatcherStats {
	return models.DispatcherStats{
		Stats:          d.token.Stats(),
		JournalPending: d.journal.Pending(),
		StartedAt:      d.startedAt,
	}
}

type FailureListParams struct {
	Cancelled *bool
	Since     *time.Time
	Limit     uint64
	Offset    uint64
}

type FailureListResult struct {
	Failures []models.Failure
	Total    int
}

func (d *Dispatcher) Failures(ctx context.Context, params FailureListParams) (*FailureListResult, error) {
	var filters []store.ListOption
	if params.Cancelled != nil {
		filters = append(filters, store.ByCancelled(*params.Cancelled))
	}
	if params.Since != nil {
		filters = append(filters, store.ByCreatedAfter(*params.Since))
	}

	opts := append([]store.ListOption{}, filters...)
	opts = append(opts, store.WithDefaultSort())
	if params.Limit > 0 {
		opts = append(opts, store.WithLimit(params.Limit))
	}
	if params.Offset > 0 {
		opts = append(opts, store.WithOffset(params.Offset))
	}

	failures, err := d.store.Failures().List(ctx, opts...)
	if err != nil {
		return nil, err
	}

	total, err := d.store.Failures().Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	return &FailureListResult{Failures: failures, Total: total}, nil
}

func (d *Dispatcher) Failure(ctx context.Context, id string) (*models.Failure, error) {
	return d.store.Failures().Get(ctx, id)
}

// Probe posts a synthetic item that waits for p.Delay and then succeeds or fails.
func (d *Dispatcher) Probe(p models.Probe) error {
	return dispatcher.PostValue[models.Probe](d.token, work.ValueActionFunc[models.Probe](runProbe), p)
}

func runProbe(ctx context.Context, p models.Probe) (any, error) {
	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if p.Fail {
		return nil, ErrProbeFailed
	}
	return p.Delay, nil
}

// Shutdown drains the token, flushes the journal and releases everything.
// The drain is bounded by the configured shutdown timeout and by ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	log := zap.S().Named("dispatcher_service")
	budget := d.cfg.Dispatcher.ShutdownTimeout

	if err := d.token.Stop(ctx, budget); err != nil {
		log.Warnw("dispatcher drain abandoned", "error", err)
	}

	if !d.batch.StopWithin(budget) {
		log.Warn("journal consumer did not stop in time")
	}

	// journal batches posted by the final drain run on the already completed token
	d.token.WaitCompleted(budget)

	var errs []error
	if err := d.batch.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close batch token: %w", err))
	}
	if err := d.token.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close dispatcher token: %w", err))
	}

	log.Infow("dispatcher stopped", "stats", d.token.Stats())
	return errors.Join(errs...)
}

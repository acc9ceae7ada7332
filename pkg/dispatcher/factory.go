package dispatcher

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/godispatch/core/pkg/counter"
	"github.com/godispatch/core/pkg/scheduler"
	"github.com/godispatch/core/pkg/work"
)

// Factory starts dispatcher tokens sharing one error handler.
type Factory struct {
	handler    work.ErrorHandler
	registerer prometheus.Registerer
	prefix     string
}

type FactoryOption func(*Factory)

// WithMetrics registers executor metrics of every started token.
func WithMetrics(reg prometheus.Registerer, prefix string) FactoryOption {
	return func(f *Factory) {
		f.registerer = reg
		f.prefix = prefix
	}
}

// NewFactory falls back to LogHandler when handler is nil.
func NewFactory(handler work.ErrorHandler, opts ...FactoryOption) *Factory {
	if handler == nil {
		handler = LogHandler{}
	}
	f := &Factory{handler: handler}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) Start(settings Settings) (*Token, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	process := counter.NewBlocking()

	queue := scheduler.NewQueueWorker(ctx, settings.PrefetchCount,
		scheduler.WithTimeout(settings.Timeout),
		scheduler.WithErrorHandler(f.handler),
		scheduler.WithProcessTracker(process),
		scheduler.WithMetrics(f.registerer, f.prefix),
	)

	zap.S().Named("dispatcher").Debugw("dispatcher token started",
		"prefetch_count", settings.PrefetchCount, "timeout", settings.Timeout)

	return &Token{
		queue:    queue,
		process:  process,
		chain:    counter.NewBlocking(),
		ctx:      ctx,
		cancel:   cancel,
		settings: settings,
		handler:  f.handler,
	}, nil
}

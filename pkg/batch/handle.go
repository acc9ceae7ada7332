package batch

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/godispatch/core/pkg/dispatcher"
	srvErrors "github.com/godispatch/core/pkg/errors"
	"github.com/godispatch/core/pkg/work"
)

// Handler processes one batch. Returning backoff.Permanent(err) stops retries.
type Handler[T any] func(ctx context.Context, items []T) error

// Handle registers the consumer for payloads of type T. Options override the
// token defaults for this type only.
func Handle[T any](t *Token, handler Handler[T], opts ...Option) error {
	if handler == nil {
		return srvErrors.NewArgumentRequiredError("handler")
	}
	typ := reflect.TypeFor[T]()
	if typ.Kind() == reflect.Interface {
		// Send routes by dynamic type, which is never an interface
		return srvErrors.NewInvalidSettingsError("handler", fmt.Sprintf("%s is an interface type", typ))
	}

	o := t.defaults
	for _, opt := range opts {
		opt(&o)
	}

	action := work.ValueActionFunc[[]T](func(ctx context.Context, items []T) (any, error) {
		return nil, retry(ctx, o, func() error { return handler(ctx, items) })
	})

	r := &route{name: typ.String(), opts: o}
	r.deliver = func(items []any) {
		batch := make([]T, 0, len(items))
		for _, item := range items {
			batch = append(batch, item.(T))
		}
		if err := dispatcher.PostValue[[]T](t.plugin.Poster, action, batch); err != nil {
			zap.S().Named("batch").Errorw("failed to post batch", "type", r.name, "items", len(batch), "error", err)
			if t.plugin.Handler != nil {
				t.plugin.Handler.HandleError(err, 0, false)
			}
		}
	}

	return t.register(typ, r)
}

func retry(ctx context.Context, o options, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.retryInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, op()
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(o.retries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			zap.S().Named("batch").Debugw("retrying batch", "error", err, "next", next)
		}),
	)
	return err
}

package batch

import "time"

const (
	DefaultMaxItems      = 100
	DefaultRetries       = 3
	DefaultRetryInterval = 100 * time.Millisecond
)

type options struct {
	interval      time.Duration
	maxItems      int
	retries       int
	retryInterval time.Duration
}

func defaultOptions() options {
	return options{
		maxItems:      DefaultMaxItems,
		retries:       DefaultRetries,
		retryInterval: DefaultRetryInterval,
	}
}

// Option configures the token defaults when given to New and a single
// payload type when given to Handle.
type Option func(*options)

// WithInterval flushes the type on every tick. Zero leaves flushing to
// Flush, the item limit and Stop.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.interval = d
		}
	}
}

// WithMaxItems bounds the batch size. A queue reaching the bound is flushed.
func WithMaxItems(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxItems = n
		}
	}
}

// WithRetries sets how many times a failed batch is retried.
func WithRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.retries = n
		}
	}
}

func WithRetryInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.retryInterval = d
		}
	}
}

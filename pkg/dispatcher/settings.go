package dispatcher

import (
	"time"

	srvErrors "github.com/godispatch/core/pkg/errors"
)

// DefaultWaitTimeout bounds WaitCompleted and Stop when no timeout is given.
const DefaultWaitTimeout = 60 * time.Second

// Settings is fixed when a token is started.
type Settings struct {
	// Timeout is the per-item execution deadline. Zero disables it.
	Timeout time.Duration
	// PrefetchCount is the maximum number of concurrent executions.
	PrefetchCount int
}

func (s Settings) Validate() error {
	if s.PrefetchCount <= 0 {
		return srvErrors.NewInvalidSettingsError("PrefetchCount", "must be greater than zero")
	}
	if s.Timeout < 0 {
		return srvErrors.NewInvalidSettingsError("Timeout", "must not be negative")
	}
	return nil
}

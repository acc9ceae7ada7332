package work

import "time"

// ErrorHandler is notified exactly once per failed or timed-out item.
// err is nil when cancelled is true.
type ErrorHandler interface {
	HandleError(err error, elapsed time.Duration, cancelled bool)
}

type ErrorHandlerFunc func(err error, elapsed time.Duration, cancelled bool)

func (f ErrorHandlerFunc) HandleError(err error, elapsed time.Duration, cancelled bool) {
	f(err, elapsed, cancelled)
}

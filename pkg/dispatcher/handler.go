package dispatcher

import (
	"time"

	"go.uber.org/zap"
)

// LogHandler reports failed and cancelled items to the global logger.
type LogHandler struct{}

func (LogHandler) HandleError(err error, elapsed time.Duration, cancelled bool) {
	if cancelled {
		zap.S().Named("dispatcher").Warnw("work item cancelled", "elapsed", elapsed)
		return
	}
	zap.S().Named("dispatcher").Errorw("work item failed", "error", err, "elapsed", elapsed)
}

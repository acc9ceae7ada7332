package models

import (
	"time"

	"github.com/godispatch/core/pkg/dispatcher"
)

type DispatcherStats struct {
	dispatcher.Stats
	JournalPending int       `json:"journal_pending"`
	StartedAt      time.Time `json:"started_at"`
}

// Probe describes a synthetic work item posted through the admin API.
type Probe struct {
	Delay time.Duration
	Fail  bool
}

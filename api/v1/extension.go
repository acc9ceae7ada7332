package v1

import (
	"errors"
	"time"

	"github.com/godispatch/core/internal/models"
)

const MaxProbeDelay = 10 * time.Minute

// NewStatsFromModel converts dispatcher statistics to the API shape.
func NewStatsFromModel(m models.DispatcherStats) Stats {
	return Stats{
		Limit:             m.Limit,
		Queued:            m.Queued,
		Running:           m.Running,
		Submitted:         m.Submitted,
		Processed:         m.Processed,
		Failed:            m.Failed,
		Cancelled:         m.Cancelled,
		ProcessCount:      m.ProcessCount,
		ProcessLimit:      m.ProcessLimit,
		QueueProcessCount: m.QueueProcessCount,
		ChainCount:        m.ChainCount,
		JournalPending:    m.JournalPending,
		StartedAt:         m.StartedAt,
	}
}

// NewFailureFromModel converts a models.Failure to an API Failure.
func NewFailureFromModel(f models.Failure) Failure {
	apiFailure := Failure{
		Id:        f.ID,
		Kind:      FailureKind(f.Kind()),
		ElapsedMs: f.Elapsed.Milliseconds(),
		CreatedAt: f.CreatedAt,
	}

	if f.Error != "" {
		apiFailure.Error = &f.Error
	}

	return apiFailure
}

// ToModel validates the request and converts it to a probe.
func (p ProbeRequest) ToModel() (models.Probe, error) {
	var probe models.Probe
	if p.Fail != nil {
		probe.Fail = *p.Fail
	}
	if p.Delay != nil && *p.Delay != "" {
		d, err := time.ParseDuration(*p.Delay)
		if err != nil {
			return probe, err
		}
		if d < 0 || d > MaxProbeDelay {
			return probe, errors.New("delay out of range")
		}
		probe.Delay = d
	}
	return probe, nil
}

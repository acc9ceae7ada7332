package scheduler

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for queue worker monitoring
type Metrics struct {
	queueDepth     prometheus.Gauge
	running        prometheus.Gauge
	submitted      prometheus.Counter
	processingTime *prometheus.HistogramVec
	completed      *prometheus.CounterVec
}

// WithMetrics registers the queue worker metrics under the given prefix.
// Collectors already registered under the same names are reused.
func WithMetrics(reg prometheus.Registerer, prefix string) Option {
	return func(q *QueueWorker) {
		if reg == nil || prefix == "" {
			return
		}
		q.metrics = newMetrics(reg, prefix)
	}
}

func newMetrics(reg prometheus.Registerer, prefix string) *Metrics {
	return &Metrics{
		queueDepth: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_queue_depth",
			Help: "Work items queued but not yet started",
		})),
		running: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_running",
			Help: "Occupied execution slots",
		})),
		submitted: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_submitted_total",
			Help: "Total work items posted",
		})),
		completed: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_completed_total",
			Help: "Total work items finished, by status",
		}, []string{"status"})),
		processingTime: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_processing_duration_seconds",
			Help:    "Time spent executing work items",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60},
		}, []string{"status"})),
	}
}

func (m *Metrics) observe(status string, elapsed time.Duration) {
	m.completed.WithLabelValues(status).Inc()
	m.processingTime.WithLabelValues(status).Observe(elapsed.Seconds())
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

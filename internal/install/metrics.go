package install

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "content_mover"

	resultCommitted = "committed"
	resultAborted   = "aborted"
)

// Metrics are the install counters. A nil *Metrics records nothing.
type Metrics struct {
	installs *prometheus.CounterVec
	files    *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the install metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		installs: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "installs_total",
				Help:      "Total number of object installs by result",
			},
			[]string{"result"},
		),
		files: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "install_files_total",
				Help:      "Total number of files touched by installs by action",
			},
			[]string{"action"},
		),
		duration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "install_duration_seconds",
				Help:      "Duration of object installs in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

func (m *Metrics) observe(result string, entries []LogEntry, d time.Duration) {
	if m == nil {
		return
	}

	m.installs.WithLabelValues(result).Inc()
	m.duration.Observe(d.Seconds())

	for _, e := range entries {
		m.files.WithLabelValues(string(e.Action)).Inc()
	}
}

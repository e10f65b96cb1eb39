package subscribers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job events recorded by Metrics.
const (
	jobEnqueued  = "enqueued"
	jobRequeued  = "requeued"
	jobCompleted = "completed"
	jobOrphaned  = "orphaned"
	jobAbandoned = "abandoned"
)

// Metrics holds the dispatch counters. A nil *Metrics records nothing.
type Metrics struct {
	deliveries    *prometheus.CounterVec
	recipients    prometheus.Counter
	jobs          *prometheus.CounterVec
	sliceDuration prometheus.Histogram
}

// NewMetrics registers the dispatch metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subscribe",
			Subsystem: "dispatch",
			Name:      "deliveries_total",
			Help:      "Channel sends by channel and outcome",
		}, []string{"channel", "status"}),
		recipients: f.NewCounter(prometheus.CounterOpts{
			Namespace: "subscribe",
			Subsystem: "dispatch",
			Name:      "recipients_total",
			Help:      "Recipients fully attempted",
		}),
		jobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subscribe",
			Subsystem: "queue",
			Name:      "jobs_total",
			Help:      "Delivery job events",
		}, []string{"event"}),
		sliceDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "subscribe",
			Subsystem: "queue",
			Name:      "slice_duration_seconds",
			Help:      "Wall clock time of one worker slice",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 15, 30, 60},
		}),
	}
}

func (m *Metrics) delivery(channel string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.deliveries.WithLabelValues(channel, status).Inc()
}

func (m *Metrics) recipient() {
	if m == nil {
		return
	}
	m.recipients.Inc()
}

func (m *Metrics) job(event string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(event).Inc()
}

func (m *Metrics) slice(d time.Duration) {
	if m == nil {
		return
	}
	m.sliceDuration.Observe(d.Seconds())
}

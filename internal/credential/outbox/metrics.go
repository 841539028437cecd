package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the relay's backlog and delivery.
type Metrics struct {
	PendingDepth    prometheus.Gauge
	PublishedTotal  prometheus.Counter
	PublishFailures prometheus.Counter
	PublishDuration prometheus.Histogram
	BatchSize       prometheus.Histogram
	Purged          prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PendingDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "idverse_outbox_pending_total",
			Help: "Current number of lifecycle events awaiting delivery",
		}),
		PublishedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "idverse_outbox_published_total",
			Help: "Total number of outbox entries delivered to Kafka",
		}),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "idverse_outbox_publish_failures_total",
			Help: "Total number of outbox fetch or delivery failures",
		}),
		PublishDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "idverse_outbox_publish_duration_seconds",
			Help:    "Time taken to deliver one outbox entry",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		BatchSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "idverse_outbox_batch_size",
			Help:    "Number of entries fetched per poll",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		Purged: f.NewCounter(prometheus.CounterOpts{
			Name: "idverse_outbox_purged_total",
			Help: "Total number of delivered entries removed by retention",
		}),
	}
}

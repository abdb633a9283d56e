package notify

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exports delivery counters and latency in Prometheus format.
type Metrics struct {
	registry *prometheus.Registry

	deliveries      *prometheus.CounterVec
	deliveryLatency prometheus.Histogram
	claimLosses     prometheus.Counter
	dueBacklog      prometheus.Gauge
}

// NewMetrics creates delivery metrics on a fresh registry when none is
// given.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_deliveries_total",
			Help: "Notification delivery outcomes by terminal status.",
		}, []string{"status"}),
		deliveryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notify_delivery_duration_seconds",
			Help:    "Wall time of a single delivery attempt.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		claimLosses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notify_claim_losses_total",
			Help: "Due notifications another worker claimed first.",
		}),
		dueBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notify_due_backlog",
			Help: "Due notifications observed at the start of a tick.",
		}),
	}

	registry.MustRegister(m.deliveries, m.deliveryLatency, m.claimLosses, m.dueBacklog)
	return m
}

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) recordDelivery(status string, seconds float64) {
	m.deliveries.WithLabelValues(status).Inc()
	m.deliveryLatency.Observe(seconds)
}

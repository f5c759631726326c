package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ocean_hazards"

// Metrics holds the Prometheus collectors for the hazard service.
type Metrics struct {
	ReportsSubmitted prometheus.Counter
	ReportsProcessed *prometheus.CounterVec // labels: outcome={stored,duplicate,invalid,error}

	FeedTicks       prometheus.Counter
	FeedSubscribers prometheus.Gauge

	HotspotsActive   prometheus.Gauge
	SyntheticPosts   prometheus.Counter
	Notifications    *prometheus.CounterVec // labels: level
	WebsocketClients prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsSubmitted,
		m.ReportsProcessed,
		m.FeedTicks,
		m.FeedSubscribers,
		m.HotspotsActive,
		m.SyntheticPosts,
		m.Notifications,
		m.WebsocketClients,
		m.GeocodeRequests,
		m.GeocodeCache,
	)
	return m
}

// NewMetricsForTesting creates unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_submitted_total",
			Help:      "Hazard reports accepted through the API.",
		}),
		ReportsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_processed_total",
			Help:      "Reports handled by the ingestion workers, by outcome.",
		}, []string{"outcome"}),
		FeedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_ticks_total",
			Help:      "Live feed simulation ticks.",
		}),
		FeedSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_subscribers",
			Help:      "Listeners currently attached to the live feed.",
		}),
		HotspotsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hotspots_active",
			Help:      "Hotspots found by the last scan.",
		}),
		SyntheticPosts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthetic_posts_total",
			Help:      "Synthetic social-media posts generated.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications raised, by level.",
		}, []string{"level"}),
		WebsocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket feed clients.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Reverse geocoding cache lookups by result.",
		}, []string{"result"}),
	}
}

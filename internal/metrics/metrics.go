package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Favorites groups the counters recorded by favorite toggles and list views.
// A nil *Favorites is valid and records nothing.
type Favorites struct {
	toggles        *prometheus.CounterVec
	listRequests   *prometheus.CounterVec
	requestCount   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

func NewFavorites(reg prometheus.Registerer) *Favorites {
	m := &Favorites{
		toggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_favorite_toggles_total",
				Help: "Favorite patch calls issued by toggles, by action and result",
			},
			[]string{"action", "result"},
		),
		listRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_favorite_list_requests_total",
				Help: "Favorite list queries, by kind and result",
			},
			[]string{"kind", "result"},
		),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.toggles, m.listRequests, m.requestCount, m.requestLatency)
	}
	return m
}

func (m *Favorites) Toggle(action string, err error) {
	if m == nil {
		return
	}
	m.toggles.WithLabelValues(action, result(err)).Inc()
}

func (m *Favorites) List(kind string, err error) {
	if m == nil {
		return
	}
	m.listRequests.WithLabelValues(kind, result(err)).Inc()
}

func (m *Favorites) Request(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
	m.requestCount.WithLabelValues(method, route, status).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

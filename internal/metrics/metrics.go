package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sniperdash",
			Name:      "api_requests_total",
			Help:      "Backend API requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	apiFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sniperdash",
			Name:      "api_request_failures_total",
			Help:      "Backend API request failures by endpoint.",
		},
		[]string{"endpoint"},
	)

	pollTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sniperdash",
			Name:      "poll_ticks_total",
			Help:      "Background poll cycles executed.",
		},
	)

	searches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sniperdash",
			Name:      "venue_searches_total",
			Help:      "Autocomplete venue searches issued.",
		},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sniperdash",
			Name:      "notifications_total",
			Help:      "User-facing notifications by kind.",
		},
		[]string{"kind"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(apiRequests, apiFailures, pollTicks, searches, notifications)
	})
}

// IncAPIRequest increments the request counter for an endpoint label.
func IncAPIRequest(endpoint string) {
	apiRequests.WithLabelValues(endpoint).Inc()
}

// IncAPIFailure increments the failure counter for an endpoint label.
func IncAPIFailure(endpoint string) {
	apiFailures.WithLabelValues(endpoint).Inc()
}

// IncPollTick counts one background poll cycle.
func IncPollTick() {
	pollTicks.Inc()
}

// IncSearch counts one autocomplete search request.
func IncSearch() {
	searches.Inc()
}

// IncNotification counts a notification by kind ("success"/"error").
func IncNotification(kind string) {
	notifications.WithLabelValues(kind).Inc()
}

// Package metrics exposes prometheus collectors for inbound requests, outbound Spotify calls and token exchanges.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discover_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discover_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	// RemoteCallsTotal counts Spotify Web API calls by endpoint and outcome.
	RemoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discover_spotify_calls_total",
			Help: "Total number of Spotify Web API calls",
		},
		[]string{"endpoint", "status"},
	)
	// TokenOperationsTotal counts authorization code exchanges and refreshes.
	TokenOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discover_token_operations_total",
			Help: "Total number of OAuth token operations",
		},
		[]string{"operation", "status"},
	)
)

// ObserveRemoteCall records the outcome of a Spotify call. status is an HTTP status or "error".
func ObserveRemoteCall(endpoint, status string) {
	RemoteCallsTotal.WithLabelValues(endpoint, status).Inc()
}

// ObserveTokenOperation records an exchange or refresh outcome.
func ObserveTokenOperation(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	TokenOperationsTotal.WithLabelValues(operation, status).Inc()
}

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracker_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracker_operation_duration_seconds",
			Help:    "Duration of storage, cache and probe operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "outcome"},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_websocket_clients",
			Help: "Currently connected realtime clients",
		},
	)

	LocationsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_locations_saved_total",
			Help: "Location fixes persisted",
		},
	)

	TileProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_tile_probes_total",
			Help: "Tile provider probes by source and result",
		},
		[]string{"source", "result"},
	)

	// 0 = closed, 1 = half-open, 2 = open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tracker_circuit_breaker_state",
			Help: "Tile provider circuit breaker state",
		},
		[]string{"name"},
	)
)

func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func RecordOperation(op string, failed bool, d time.Duration) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	OperationDuration.WithLabelValues(op, outcome).Observe(d.Seconds())
}

func RecordTileProbe(source string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	TileProbes.WithLabelValues(source, result).Inc()
}

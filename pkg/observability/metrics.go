// Package observability provides Prometheus metrics, HTTP middleware and
// error reporting for the zotgate adapter.
package observability

import "github.com/prometheus/client_golang/prometheus"

// TranslationBuckets defines histogram buckets suited for translation
// requests, which range from a cached lookup to a slow upstream site.
var TranslationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

// RouteOther labels requests whose path is not a registered route, which
// keeps label cardinality bounded.
const RouteOther = "other"

var (
	// RequestsTotal counts all HTTP requests by method, route, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zotgate_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zotgate_request_duration_seconds",
			Help:    "Request duration",
			Buckets: TranslationBuckets,
		},
		[]string{"route"},
	)

	// InFlightRequests tracks requests currently being served.
	InFlightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zotgate_requests_in_flight",
			Help: "Requests in flight",
		},
	)

	// HandlerErrorsTotal counts handler failures by route and kind
	// (tagged, untagged, panic, body).
	HandlerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zotgate_handler_errors_total",
			Help: "Handler failures",
		},
		[]string{"route", "kind"},
	)

	// EngineInitTotal counts engine initialization attempts by result.
	EngineInitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zotgate_engine_init_total",
			Help: "Engine initialization attempts",
		},
		[]string{"result"},
	)

	// AuthRejectedTotal counts requests rejected by the auth gate.
	AuthRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zotgate_auth_rejected_total",
			Help: "Authentication rejections",
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		InFlightRequests,
		HandlerErrorsTotal,
		EngineInitTotal,
		AuthRejectedTotal,
	)
}

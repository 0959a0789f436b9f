// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the wicket gateway.
package observability

import "github.com/prometheus/client_golang/prometheus"

// AuthBuckets defines histogram buckets suited for authentication
// latencies, which are dominated by adaptive password hashing and one
// store round trip (1ms to 2.5s).
var AuthBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wicket_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wicket_request_duration_seconds",
			Help:    "Request duration",
			Buckets: AuthBuckets,
		},
		[]string{"method"},
	)

	// InflightRequests tracks the number of requests currently being handled.
	InflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wicket_inflight_requests",
			Help: "Requests in flight",
		},
	)

	// AuthAttemptsTotal counts authentication attempts by principal kind
	// and outcome (success, invalid_credentials, missing_credentials,
	// transport_failure, error).
	AuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wicket_auth_attempts_total",
			Help: "Authentication attempts",
		},
		[]string{"kind", "outcome"},
	)

	// AuthDuration records the duration of authentication chain runs in
	// seconds by principal kind.
	AuthDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wicket_auth_duration_seconds",
			Help:    "Authentication duration",
			Buckets: AuthBuckets,
		},
		[]string{"kind"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wicket_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		InflightRequests,
		AuthAttemptsTotal,
		AuthDuration,
		RateLimitRejectedTotal,
	)
}

// Package metrics registers the Prometheus metrics used by the bridge server.
// Import this package (via blank import) from the server entry point to
// register all metrics before the /metrics handler is mounted.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Forwarder-level counters and histograms.
var (
	// ProxyRequests counts forwarded requests labelled by provider and the
	// upstream HTTP status class ("2xx", "4xx", "5xx", "error").
	ProxyRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_proxy_requests_total",
			Help: "Total number of requests forwarded through the bridge.",
		},
		[]string{"provider", "status"},
	)

	// ProxyDuration observes end-to-end forwarding latency in seconds.
	ProxyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_proxy_request_duration_seconds",
			Help:    "End-to-end proxied request duration in seconds.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	// TokensInput counts prompt tokens metered from vendor responses.
	TokensInput = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_tokens_input_total",
			Help: "Total prompt tokens sent to providers.",
		},
		[]string{"provider", "model"},
	)

	// TokensOutput counts completion tokens metered from vendor responses.
	TokensOutput = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_tokens_output_total",
			Help: "Total completion tokens received from providers.",
		},
		[]string{"provider", "model"},
	)

	// ProviderErrors counts errors broken down by provider and error type
	// ("upstream_error", "circuit_open", "bad_gateway").
	ProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_provider_errors_total",
			Help: "Total provider errors by type.",
		},
		[]string{"provider", "error_type"},
	)

	// CircuitState tracks the per-provider circuit breaker state as a gauge:
	// 0 = closed, 1 = open, 2 = half_open.
	CircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bridge_circuit_state",
			Help: "Circuit breaker state per provider (0=closed 1=open 2=half_open).",
		},
		[]string{"provider"},
	)

	// RateLimitRejections counts requests rejected by the per-project
	// token-bucket limiter.
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_rate_limit_rejections_total",
			Help: "Total requests rejected by rate limiting.",
		},
		[]string{"project"},
	)

	// TokenValidations counts request-token checks by outcome
	// ("valid", "invalid", "expired", "scope_mismatch").
	TokenValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_token_validations_total",
			Help: "Total request token validations by outcome.",
		},
		[]string{"outcome"},
	)
)

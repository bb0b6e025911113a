package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	JournalEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_journal_events_total",
			Help: "Total number of journal events seen by the dispatcher (count)",
		},
		[]string{"event", "status"},
	)

	MappedPayloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_mapped_payloads_total",
			Help: "Total number of canonical payloads produced by the mapper (count)",
		},
		[]string{"event_type"},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deliveries_total",
			Help: "Total number of delivery attempts by outcome (count)",
		},
		[]string{"status"},
	)

	DeliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_delivery_duration_ms",
			Help:    "Duration of delivery HTTP requests in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"status"},
	)

	DeliveriesInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_deliveries_in_flight",
			Help: "Number of delivery requests currently in flight (count)",
		},
	)

	FilterEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_filter_evaluations_total",
			Help: "Total number of filter rule evaluations (count)",
		},
		[]string{"rule", "result"},
	)

	LookupRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_lookup_requests_total",
			Help: "Total number of system discovery lookups by source and outcome (count)",
		},
		[]string{"source", "status"},
	)

	LookupCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_lookup_cache_total",
			Help: "Discovery cache lookups by result (count)",
		},
		[]string{"result"},
	)

	LookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_lookup_duration_ms",
			Help:    "Duration of discovery lookups in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"source"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)
)

func ObserveDeliveryDuration(d time.Duration, status string) {
	DeliveryDuration.WithLabelValues(status).Observe(float64(d.Milliseconds()))
}

func ObserveLookupDuration(d time.Duration, source string) {
	LookupDuration.WithLabelValues(source).Observe(float64(d.Milliseconds()))
}

func RegisterRelayMetrics() {
	prometheus.MustRegister(JournalEventsTotal)
	prometheus.MustRegister(MappedPayloadsTotal)
	prometheus.MustRegister(DeliveriesTotal)
	prometheus.MustRegister(DeliveryDuration)
	prometheus.MustRegister(DeliveriesInFlight)
	prometheus.MustRegister(FilterEvaluationsTotal)
}

func RegisterLookupMetrics() {
	prometheus.MustRegister(LookupRequestsTotal)
	prometheus.MustRegister(LookupCacheTotal)
	prometheus.MustRegister(LookupDuration)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func RegisterRateLimitMetrics() {
	prometheus.MustRegister(RateLimitRequestsTotal)
}

//go:build !nometrics

package obs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

var (
	setupOnce sync.Once
	shutdown  = func(context.Context) error { return nil }
)

var (
	suggestRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "suggestions_requests_total",
		Help: "Suggestion requests by outcome (ok, empty, short, error).",
	}, []string{"outcome"})
	suggestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "suggestions_request_duration_ms",
		Help:    "Histogram of suggestion request latency in ms.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "suggestions_cache_lookups_total",
		Help: "Cache lookups by TTL class and result (hit, miss, error, bypass).",
	}, []string{"class", "result"})
	storeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "suggestions_store_duration_ms",
		Help:    "Histogram of item store call latency in ms.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"op"})
	storeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "suggestions_store_errors_total",
		Help: "Item store errors grouped by operation and reason.",
	}, []string{"op", "reason"})
	budgetHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "suggestions_budget_hit_total",
		Help: "Requests that exhausted the HTTP request budget.",
	})
	circuitStates = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "suggestions_circuit_state",
		Help: "Circuit breaker state per store operation (0=closed,1=half-open,2=open).",
	}, []string{"op"})
)

// ObserveSuggest records one suggestion request.
func ObserveSuggest(outcome string, duration time.Duration, traceID string) {
	suggestRequests.WithLabelValues(outcome).Inc()
	ms := float64(duration.Microseconds()) / 1000
	if eo, ok := suggestDuration.(prometheus.ExemplarObserver); ok && traceID != "" {
		eo.ObserveWithExemplar(ms, prometheus.Labels{"trace_id": traceID})
		return
	}
	suggestDuration.Observe(ms)
}

// ObserveCacheLookup counts a cache lookup for a TTL class.
func ObserveCacheLookup(class, result string) {
	cacheLookups.WithLabelValues(class, result).Inc()
}

// RecordStoreCall observes latency and, on failure, the error reason of an
// item store operation.
func RecordStoreCall(op string, duration time.Duration, err error) {
	storeDuration.WithLabelValues(op).Observe(float64(duration.Microseconds()) / 1000)
	if err != nil {
		storeErrors.WithLabelValues(op, reason(err)).Inc()
	}
}

// IncBudgetHit records a request that ran out of budget.
func IncBudgetHit() {
	budgetHits.Inc()
}

// SetCircuitState updates the breaker gauge for op.
func SetCircuitState(op, state string) {
	var value float64
	switch state {
	case "open":
		value = 2
	case "half-open":
		value = 1
	}
	circuitStates.WithLabelValues(op).Set(value)
}

func reason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// InitTracer installs a sampling tracer provider once per process.
func InitTracer(serviceName string, sampleRatio float64) (func(context.Context) error, error) {
	var initErr error
	setupOnce.Do(func() {
		res, err := resource.New(context.Background(),
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
			),
		)
		if err != nil {
			initErr = err
			return
		}

		provider := sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(provider)
		shutdown = provider.Shutdown
	})
	return shutdown, initErr
}

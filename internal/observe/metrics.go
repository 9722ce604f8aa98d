// Package observe provides application-wide observability primitives for
// WordBridge: OpenTelemetry metrics and structured logging setup.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all WordBridge metrics.
const meterName = "github.com/coseeing/wordbridge"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// CorrectionDuration tracks end-to-end text correction latency.
	CorrectionDuration metric.Float64Histogram

	// ProviderRequestDuration tracks single LLM completion call latency.
	ProviderRequestDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   Attr("provider", ...), Attr("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   Attr("provider", ...), Attr("kind", ...)
	ProviderErrors metric.Int64Counter

	// CorrectionRounds counts self-correction loop iterations.
	CorrectionRounds metric.Int64Counter

	// SegmentsCorrected counts segments sent for correction.
	SegmentsCorrected metric.Int64Counter

	// TokensUsed counts vendor-reported tokens. Use with attributes:
	//   Attr("provider", ...), Attr("field", ...)
	TokensUsed metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// LLM round trips.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.CorrectionDuration, err = m.Float64Histogram("wordbridge.correction.duration",
		metric.WithDescription("End-to-end latency of one text correction."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequestDuration, err = m.Float64Histogram("wordbridge.provider.request.duration",
		metric.WithDescription("Latency of one LLM completion call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("wordbridge.provider.requests",
		metric.WithDescription("Total provider API requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("wordbridge.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.CorrectionRounds, err = m.Int64Counter("wordbridge.correction.rounds",
		metric.WithDescription("Total self-correction loop iterations."),
	); err != nil {
		return nil, err
	}
	if met.SegmentsCorrected, err = m.Int64Counter("wordbridge.segments.corrected",
		metric.WithDescription("Total segments sent for correction."),
	); err != nil {
		return nil, err
	}
	if met.TokensUsed, err = m.Int64Counter("wordbridge.tokens.used",
		metric.WithDescription("Total vendor-reported tokens by provider and usage field."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest records one provider call with its latency in
// seconds and outcome status.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, status string, seconds float64) {
	attrs := metric.WithAttributes(
		Attr("provider", provider),
		Attr("status", status),
	)
	m.ProviderRequests.Add(ctx, 1, attrs)
	m.ProviderRequestDuration.Record(ctx, seconds, attrs)
}

// RecordProviderError records a provider error counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			Attr("provider", provider),
			Attr("kind", kind),
		),
	)
}

// RecordTokens records vendor-reported token usage field by field.
func (m *Metrics) RecordTokens(ctx context.Context, provider string, usage map[string]int64) {
	for field, count := range usage {
		m.TokensUsed.Add(ctx, count,
			metric.WithAttributes(
				Attr("provider", provider),
				Attr("field", field),
			),
		)
	}
}

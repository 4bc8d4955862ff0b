// Package metrics holds the OpenTelemetry instruments recorded by the service
// and the provider that exports them to Prometheus.
package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MeterName is the instrumentation scope of every instrument in this package.
const MeterName = "cookiestatus"

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// NewMeterProvider returns a meter provider whose readings are collected by
// reg, so they show up on the promhttp endpoint next to the Go runtime metrics.
func NewMeterProvider(reg prometheus.Registerer) (*sdkmetric.MeterProvider, error) {
	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)), nil
}

// CheckRecorder records the outcome and latency of cookie checks.
type CheckRecorder struct {
	checks   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewCheckRecorder creates the check instruments on meter. A nil meter records
// nothing.
func NewCheckRecorder(meter metric.Meter) (*CheckRecorder, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	checks, err := meter.Int64Counter("cookie_checks",
		metric.WithDescription("Number of cookie status checks by reason."))
	if err != nil {
		return nil, fmt.Errorf("could not create checks counter: %w", err)
	}

	duration, err := meter.Float64Histogram("cookie_check_duration",
		metric.WithDescription("Time spent inspecting cookie files."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create check duration histogram: %w", err)
	}

	return &CheckRecorder{checks: checks, duration: duration}, nil
}

// Record counts one check with the given reason and validity.
func (r *CheckRecorder) Record(ctx context.Context, reason string, valid bool, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("reason", reason),
		attribute.String("valid", strconv.FormatBool(valid)),
	)
	r.checks.Add(ctx, 1, attrs)
	r.duration.Record(ctx, d.Seconds(), attrs)
}

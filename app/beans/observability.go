package beans

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/WillSuttie/MvcBean/app/beans"

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// storeMetrics holds the store's metric instruments.
type storeMetrics struct {
	operations metric.Int64Counter
	imageBytes metric.Int64Histogram
}

func newStoreMetrics(mp metric.MeterProvider) *storeMetrics {
	meter := mp.Meter(instrumentationName)
	m := &storeMetrics{}

	var err error
	m.operations, err = meter.Int64Counter(
		"beans.store.operations",
		metric.WithDescription("Number of mutating store operations by outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		m.operations, _ = meter.Int64Counter("beans.store.operations")
	}

	m.imageBytes, err = meter.Int64Histogram(
		"beans.store.image.size",
		metric.WithDescription("Size of uploaded bean images"),
		metric.WithUnit("By"),
	)
	if err != nil {
		m.imageBytes, _ = meter.Int64Histogram("beans.store.image.size")
	}

	return m
}

func (s *Store) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "beans."+name, trace.WithAttributes(attrs...))
}

// endOperation closes the span of a mutating operation and counts it.
func (s *Store) endOperation(ctx context.Context, span trace.Span, op string, err error) {
	endSpan(span, err)
	s.metrics.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome(err)),
	))
}

func (s *Store) recordImageSize(ctx context.Context, size int) {
	s.metrics.imageBytes.Record(ctx, int64(size))
}

func outcome(err error) string {
	var validationErr *ValidationError
	switch {
	case err == nil:
		return outcomeOK
	case errors.As(err, &validationErr):
		return outcomeRejected
	default:
		return outcomeError
	}
}

// endSpan marks storage failures as span errors. Validation rejections are
// recorded as events only.
func endSpan(span trace.Span, err error) {
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			span.AddEvent("validation failed", trace.WithAttributes(
				attribute.String("validation.kind", validationErr.Kind.String()),
				attribute.String("validation.field", validationErr.Field),
			))
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}

package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/tkubota31/express-messagely"

// Metrics holds the counters recorded by the message service
type Metrics struct {
	created otelmetric.Int64Counter
	read    otelmetric.Int64Counter
	errors  otelmetric.Int64Counter
}

// NewMetrics registers the message counters on the global meter provider
func NewMetrics() (*Metrics, error) {
	return NewMetricsWithMeter(otel.Meter(meterName))
}

// NewMetricsWithMeter registers the message counters on meter
func NewMetricsWithMeter(meter otelmetric.Meter) (*Metrics, error) {
	created, err := meter.Int64Counter("messages_created_total",
		otelmetric.WithDescription("Messages successfully created"))
	if err != nil {
		return nil, err
	}

	read, err := meter.Int64Counter("messages_read_total",
		otelmetric.WithDescription("Messages transitioned to read"))
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter("message_operation_errors_total",
		otelmetric.WithDescription("Message operations that returned an error"))
	if err != nil {
		return nil, err
	}

	return &Metrics{created: created, read: read, errors: errs}, nil
}

// MessageCreated counts one new message
func (m *Metrics) MessageCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.created.Add(ctx, 1)
}

// MessageRead counts one unread-to-read transition
func (m *Metrics) MessageRead(ctx context.Context) {
	if m == nil {
		return
	}
	m.read.Add(ctx, 1)
}

// OperationFailed counts a failed operation, labelled by operation and error kind
func (m *Metrics) OperationFailed(ctx context.Context, operation, kind string) {
	if m == nil {
		return
	}
	m.errors.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("kind", kind),
	))
}

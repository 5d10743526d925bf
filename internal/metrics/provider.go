package metrics

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrz1836/pocket/internal/provider"
)

const tracerName = "github.com/mrz1836/pocket/internal/metrics"

// Instrumented wraps a provider, timing and tracing every request.
type Instrumented struct {
	inner   provider.Provider
	metrics *Metrics
	tracer  trace.Tracer
}

// Instrument wraps p so its requests are recorded in m.
func Instrument(p provider.Provider, m *Metrics) *Instrumented {
	return &Instrumented{inner: p, metrics: m, tracer: otel.Tracer(tracerName)}
}

// Request implements provider.Provider.
func (i *Instrumented) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	ctx, span := i.tracer.Start(ctx, method, trace.WithAttributes(
		attribute.String("rpc.method", method),
		attribute.Int("rpc.params", len(params)),
	))
	defer span.End()

	start := time.Now()
	raw, err := i.inner.Request(ctx, method, params...)
	i.metrics.RecordProviderRequest(method, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if code := provider.CodeOf(err); code != 0 {
			span.SetAttributes(attribute.Int("rpc.error_code", code))
		}
	}
	return raw, err
}

// Subscribe implements provider.Provider.
func (i *Instrumented) Subscribe(event string, handler provider.Handler) func() {
	return i.inner.Subscribe(event, func(payload json.RawMessage) {
		i.metrics.RecordEvent(event)
		handler(payload)
	})
}

// Flags forwards the wrapped provider's identity flags.
func (i *Instrumented) Flags() provider.Capabilities {
	if f, ok := i.inner.(provider.Flagger); ok {
		return f.Flags()
	}
	return provider.Capabilities{}
}

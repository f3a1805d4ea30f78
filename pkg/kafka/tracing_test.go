package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"opacbookings/pkg/tracing"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestPublishSpanCopiesHeaders(t *testing.T) {
	withRecorder(t)

	original := Message{Key: "7", Headers: map[string]string{HeaderEventType: EventBookingCreated}}
	ctx, span, traced := startPublishSpan(context.Background(), "opac.bookings", original)
	endSpan(span, nil)

	assert.NotContains(t, original.Headers, "traceparent")
	assert.Contains(t, traced.Headers, "traceparent")
	assert.Equal(t, EventBookingCreated, traced.Headers[HeaderEventType])
	assert.NotEmpty(t, tracing.TraceID(ctx))
}

func TestConsumeSpanContinuesTrace(t *testing.T) {
	recorder := withRecorder(t)

	pubCtx, pubSpan, msg := startPublishSpan(context.Background(), "opac.bookings", Message{Key: "7"})
	endSpan(pubSpan, nil)
	msg.Topic = "opac.bookings"

	consCtx, consSpan := startConsumeSpan(context.Background(), msg)
	endSpan(consSpan, errors.New("boom"))

	assert.Equal(t, tracing.TraceID(pubCtx), tracing.TraceID(consCtx))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "publish opac.bookings", spans[0].Name())
	assert.Equal(t, "consume opac.bookings", spans[1].Name())
	assert.Equal(t, "boom", spans[1].Status().Description)
}

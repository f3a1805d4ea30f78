package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	p, err := Setup(context.Background(), Config{ServiceName: "test"})
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestTraceIDWithoutSpan(t *testing.T) {
	assert.Equal(t, "", TraceID(context.Background()))
}

func TestInjectExtractRoundTrip(t *testing.T) {
	_, err := Setup(context.Background(), Config{})
	require.NoError(t, err)

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	headers := map[string]string{"event-type": "booking.created"}
	Inject(ctx, headers)
	require.Contains(t, headers, "traceparent")

	remote := Extract(context.Background(), headers)
	assert.Equal(t, TraceID(ctx), TraceID(remote))
	assert.NotEmpty(t, TraceID(remote))
}

func TestExtractEmptyHeadersKeepsContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, Extract(ctx, nil))
}

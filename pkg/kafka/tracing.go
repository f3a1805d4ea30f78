package kafka

import (
	"context"
	"maps"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"opacbookings/pkg/tracing"
)

const tracerName = "opacbookings/pkg/kafka"

// startPublishSpan returns msg with its own copy of the headers carrying the
// new producer span's context.
func startPublishSpan(ctx context.Context, topic string, msg Message) (context.Context, trace.Span, Message) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "publish "+topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", topic),
			attribute.String("messaging.kafka.message.key", msg.Key),
		),
	)

	headers := make(map[string]string, len(msg.Headers)+2)
	maps.Copy(headers, msg.Headers)
	tracing.Inject(ctx, headers)
	msg.Headers = headers
	return ctx, span, msg
}

// startConsumeSpan continues the trace the producer put in the headers.
func startConsumeSpan(ctx context.Context, msg Message) (context.Context, trace.Span) {
	ctx = tracing.Extract(ctx, msg.Headers)
	return otel.Tracer(tracerName).Start(ctx, "consume "+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.Int("messaging.kafka.destination.partition", msg.Partition),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

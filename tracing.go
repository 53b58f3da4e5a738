package dispatch

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name for call spans.
const tracerName = "github.com/goliatone/go-dispatch"

// defaultTracer resolves through the global provider, which is a no-op until
// the host installs one.
func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

func (f *Function) startSpan(ctx context.Context, tr Trace) (context.Context, trace.Span) {
	tracer := f.tracer
	if tracer == nil {
		tracer = defaultTracer()
	}
	return tracer.Start(ctx, "dispatch.call",
		trace.WithAttributes(
			attribute.String("dispatch.call_id", tr.CallID),
			attribute.String("dispatch.function", tr.Function),
			attribute.String("dispatch.domain", tr.Domain),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func recordAttemptEvent(ctx context.Context, attempt Attempt) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent("dispatch.backend.attempt", trace.WithAttributes(
		attribute.String("dispatch.backend", attempt.Backend),
		attribute.Bool("dispatch.coerce", attempt.Coerce),
		attribute.String("dispatch.outcome", string(attempt.Outcome)),
		attribute.String("dispatch.stage", string(attempt.Stage)),
	))
}

func (f *Function) endSpan(span trace.Span, tr Trace, err error) {
	defer span.End()
	span.SetAttributes(
		attribute.String("dispatch.outcome", string(tr.Outcome)),
		attribute.Int("dispatch.attempts", len(tr.Attempts)),
	)
	if tr.Backend != "" {
		span.SetAttributes(attribute.String("dispatch.backend", tr.Backend))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// Package tracing lets callers observe statement processing by embedding a
// Tracer in the context passed to the database.
package tracing

import "context"

type contextKey string

const (
	traceContextKey contextKey = "trace"
)

// WithTracer returns a context with the tracer embedded in the context
// under the context key.
func WithTracer(ctx context.Context, tracer Tracer) context.Context {
	return context.WithValue(ctx, traceContextKey, tracer)
}

// Start returns a new context with the given trace.
// A valid span is always returned, even if the context does not contain a
// tracer. In that case, the span is a noop span.
func Start(ctx context.Context, name, statement string) (context.Context, Span) {
	tracer, ok := ctx.Value(traceContextKey).(Tracer)
	if !ok {
		return ctx, noopSpan{}
	}
	return tracer.Start(ctx, name, statement)
}

// Tracer is the interface that all tracers must implement.
type Tracer interface {
	// Start creates a span for the given schema statement, and a
	// context.Context containing the newly-created span.
	//
	// Any Span that is created MUST also be ended.
	Start(ctx context.Context, name, statement string) (context.Context, Span)
}

// Span represents a single named and timed operation.
type Span interface {
	// RecordError marks the operation as failed.
	RecordError(err error)

	// End completes the Span. Updates to the Span are not allowed after
	// this method has been called.
	End()
}

// noopSpan is a span that does nothing.
type noopSpan struct{}

func (noopSpan) RecordError(error) {}

func (noopSpan) End() {}

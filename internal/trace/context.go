package trace

import "context"

type tracerKey struct{}

// FromContext returns the tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches t to ctx. A nil t attaches Nop.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// SpanContext is the position of a piece of work in the trace tree.
type SpanContext struct {
	SpanID uint64
	// Module is the base name of the module being processed. It is empty
	// while libraries load and around the whole run.
	Module string
}

type spanKey struct{}

// CurrentSpan returns the span context stored in ctx, or the zero value.
func CurrentSpan(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	sc, _ := ctx.Value(spanKey{}).(SpanContext)
	return sc
}

// WithSpanContext stores sc in ctx.
func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, spanKey{}, sc)
}

// Start begins a span under the span current in ctx, using the tracer of
// ctx, and returns a context in which the new span is current. The module
// is inherited from ctx unless module is set.
func Start(ctx context.Context, scope Scope, name, module string) (*Span, context.Context) {
	parent := CurrentSpan(ctx)
	if module == "" {
		module = parent.Module
	}
	span := begin(FromContext(ctx), scope, name, parent.SpanID, module)
	id := span.ID()
	if id == 0 {
		// a filtered span keeps its children under the nearest retained one
		id = parent.SpanID
	}
	return span, WithSpanContext(ctx, SpanContext{SpanID: id, Module: module})
}

// Mark emits an instant event under the span current in ctx, tagged with
// its module.
func Mark(ctx context.Context, scope Scope, name, detail string) {
	sc := CurrentSpan(ctx)
	point(FromContext(ctx), scope, name, detail, sc.SpanID, sc.Module)
}

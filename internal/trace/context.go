package trace

import "context"

type ctxKey struct{}

// FromContext returns the tracer in ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches a Tracer to context.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// SpanContext is the span a step runs under and the pipeline stage
// (load, optimize, diff, classify) that span belongs to.
type SpanContext struct {
	SpanID uint64
	Stage  string
}

type spanCtxKey struct{}

// CurrentSpan returns the zero SpanContext when none is attached.
func CurrentSpan(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	if sc, ok := ctx.Value(spanCtxKey{}).(SpanContext); ok {
		return sc
	}
	return SpanContext{}
}

// WithSpanContext attaches span context.
func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	if ctx == nil {
		return nil
	}
	return context.WithValue(ctx, spanCtxKey{}, sc)
}

// StartSpan begins a span under the one in ctx and returns a context that
// carries it. A stage span names the stage for everything started below it;
// function spans (one per diffed function) record that stage as an extra.
// A filtered span leaves the parent in place, so nesting skips levels
// instead of breaking.
func StartSpan(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	parent := CurrentSpan(ctx)
	span := Begin(FromContext(ctx), scope, name, parent.SpanID)

	sc := parent
	if id := span.ID(); id != 0 {
		sc.SpanID = id
	}
	switch scope {
	case ScopeStage:
		sc.Stage = name
	case ScopeFunction:
		if sc.Stage != "" {
			span.WithExtra("stage", sc.Stage)
		}
	}
	return WithSpanContext(ctx, sc), span
}

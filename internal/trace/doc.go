// Package trace is the tracing layer of optdbg. It records stage and
// per-function spans so slow opt runs and large diffs can be diagnosed.
//
// Enable it from the command line:
//
//	optdbg analyze --trace=- --trace-level=phase input.ll
//
// Tracers:
//
//   - Nop: used when tracing is off
//   - StreamTracer: writes each event as it happens (text or NDJSON)
//   - RingTracer: keeps the last N events and dumps them on failure
//   - MultiTracer: fans out to several tracers
//
// Levels select scopes: phase shows driver and stage spans, detail adds
// per-function spans, debug adds everything else.
//
// Tracers travel through the pipeline in the context:
//
//	ctx = trace.WithTracer(ctx, tr)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeStage, "diff", 0)
//	defer span.End("")
package trace

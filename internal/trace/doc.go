// Package trace is the kiln compiler's structured event log.
//
// The compiler does not use a logging library; every phase records spans and
// points through a Tracer instead. Spans nest via parent ids and carry string
// key/value extras on their end event.
//
// # Usage
//
//	kiln build --trace=- --trace-level=debug main.kn
//
// # Implementations
//
//   - Nop: zero-overhead tracer used when tracing is off
//   - StreamTracer: writes each event immediately (text or NDJSON)
//   - RingTracer: keeps the last N events for post-mortem dumps
//   - MultiTracer: fans out to several tracers
//
// # Scopes and levels
//
// ScopeDriver and ScopePass are emitted at LevelPhase, ScopeModule at
// LevelDetail and ScopeNode (individual functions, resolutions,
// instantiations) only at LevelDebug.
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "compile", 0)
//	defer span.End("")
package trace

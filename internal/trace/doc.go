// Package trace records what a relink run is doing.
//
// A run opens spans for the driver, every pass and every module; at the
// highest level individual reference resolutions are traced too. Events go
// to a stream (stderr or a file), to an in-memory ring kept for dumps, or to
// both.
//
// # Usage
//
//	relink patch --trace=- --trace-level=detail Game.exe
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: nothing is streamed; the ring is dumped on failure
//   - LevelPhase: driver and pass boundaries
//   - LevelDetail: module boundaries
//   - LevelDebug: everything, including single references
//
// # Context propagation
//
// The context carries the tracer, the current span and the module being
// processed. Start nests a span under the current one; Mark adds a point
// tagged with the module, so a failure dump can be limited to it.
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span, ctx := trace.Start(ctx, trace.ScopeModule, "module:Game.exe", "Game.exe")
//	defer span.End("")
//	trace.Mark(ctx, trace.ScopeReference, "RES5002 Foo::Legacy()", "no match")
package trace

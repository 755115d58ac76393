// Package trace records the phases of an extraction run as spans so slow or
// stuck headers can be found.
//
// Tracing is enabled from the command line:
//
//	cschema extract --trace=- --trace-level=detail include/gfx.h
//
// Four tracers exist: a no-op tracer used when tracing is off, a stream
// tracer writing events as they happen, a ring tracer keeping the last
// events in memory for dumping after a failure, and a multi tracer fanning
// out to several of them.
//
// Levels select scopes: phase shows the driver and its passes (parse,
// harvest, emit, write), detail adds one span per header, debug adds
// per-declaration events.
//
// Tracers travel in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "emit", 0)
//	defer span.End("")
package trace

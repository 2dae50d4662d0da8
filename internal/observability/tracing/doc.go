// Package tracing exposes the application's OpenTelemetry tracer.
//
// GetTracer returns the tracer obtained from the global otel provider. The
// package configures no exporter or provider of its own, so spans go
// wherever the process-wide otel provider sends them.
//
// Example usage:
//
//	import "neutralnews/internal/observability/tracing"
//
//	func runJob(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "ingest.run")
//	    defer span.End()
//	    // ... run the job ...
//	}
package tracing

// Package otel provides OpenTelemetry instrumentation for the ledger:
// metric instruments for the audit and retention pipelines plus HTTP
// span middleware. Trace export is a stub until an OTLP collector is
// part of the deployment.
package otel

import (
	"context"
	"log/slog"
)

// ShutdownFunc flushes and shuts down a telemetry provider.
type ShutdownFunc func(ctx context.Context) error

// InitTracer registers the service for tracing. Until an OTLP endpoint
// is configured it only logs; the returned shutdown is a no-op so main
// can treat tracing uniformly either way.
func InitTracer(serviceName string) ShutdownFunc {
	slog.Debug("tracing not exported, no collector configured", "service", serviceName)
	return func(context.Context) error { return nil }
}

// Package telemetry provides OpenTelemetry instrumentation for answerd.
//
// It manages the tracer and meter providers, OTLP export over HTTP or gRPC,
// and graceful shutdown. When telemetry is disabled the package hands out
// no-op tracers and meters so instrumented code needs no conditionals.
package telemetry

// Package telemetry provides structured logging, distributed tracing, and
// metrics for pave. Logging is built on zerolog, tracing on OpenTelemetry,
// and metrics on Prometheus. All three are optional: the zero-value
// configuration yields working no-op instances so library callers never pay
// for observability they did not ask for.
package telemetry

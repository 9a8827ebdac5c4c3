// Package telemetry wires OpenTelemetry metrics into the Prometheus
// registry served on /metrics.
//
// Instrument packages record through the global otel.Meter; this package
// installs the MeterProvider that makes those recordings visible. Without
// it the global meter is a no-op, which is the intended behavior when
// telemetry is disabled.
package telemetry

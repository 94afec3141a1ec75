// Package otel publishes HRive engine counters as OpenTelemetry observable
// instruments. One callback reads the engine snapshot per collection; the
// caller owns the MeterProvider.
package otel

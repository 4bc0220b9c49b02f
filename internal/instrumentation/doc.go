// Package instrumentation provides OpenTelemetry metrics with a Prometheus
// exporter.
//
// The provider owns the meter provider lifecycle; the Metrics recorder is
// handed to the bot layer and is safe to use as a no-op when metrics are
// disabled.
package instrumentation

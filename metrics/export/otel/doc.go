// Package otel publishes goGuard engine counters through an OpenTelemetry
// Meter.
//
// [NewOTelExporter] registers one Int64ObservableCounter per goguard_* family,
// observed once per series with the family's label keys as attributes. The
// authorized verify latency is split into a _bucket gauge keyed by le plus
// _sum and _count counters, matching the Prometheus rendering. Audit drops
// are observed per event kind. One callback reads
// [goGuard.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel

// Package prometheus renders goGuard engine metrics in the Prometheus text
// exposition format.
//
// [NewPrometheusExporter] wraps an engine and exposes an [http.Handler] for a
// /metrics route. Counters are grouped into labelled families such as
// goguard_verify_total{stage,outcome}; the single histogram is
// goguard_authorized_verify_latency_seconds with a real _sum in seconds.
// Dropped audit events are reported per event kind.
//
// # What this package must NOT do
//
//   - Register anything in a global Prometheus registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus

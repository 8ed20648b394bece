package internaldefs

import (
	goGuard "github.com/MrEthical07/goGuard"
)

// Family groups engine counters that differ only by label values, so a
// dashboard can sum a whole protocol stage or split it by outcome.
type Family struct {
	Name   string
	Help   string
	Labels []string
	Series []Series
}

// Series binds one engine counter to its label values, in Family.Labels
// order.
type Series struct {
	ID     goGuard.MetricID
	Values []string
}

// Histogram maps the engine latency histogram to its exported name.
type Histogram struct {
	ID   goGuard.MetricID
	Name string
	Help string
}

// AuditDropped is labelled by event name at render time; the set of names
// comes from the engine.
const (
	AuditDroppedName  = "goguard_audit_dropped_total"
	AuditDroppedHelp  = "Audit events dropped before reaching the sink."
	AuditDroppedLabel = "event"
)

func series(id goGuard.MetricID, values ...string) Series {
	return Series{ID: id, Values: values}
}

// Families covers every engine counter exactly once.
var Families = []Family{
	{
		Name:   "goguard_csrf_issue_total",
		Help:   "Anonymous CSRF issuance attempts.",
		Labels: []string{"outcome"},
		Series: []Series{
			series(goGuard.MetricCSRFIssued, "success"),
			series(goGuard.MetricCSRFIssueFailure, "failure"),
		},
	},
	{
		Name:   "goguard_verify_total",
		Help:   "Credential checks by lifecycle stage and outcome.",
		Labels: []string{"stage", "outcome"},
		Series: []Series{
			series(goGuard.MetricAnonymousVerifySuccess, "anonymous", "success"),
			series(goGuard.MetricAnonymousVerifyFailure, "anonymous", "failure"),
			series(goGuard.MetricAuthorizedVerifySuccess, "authorized", "success"),
			series(goGuard.MetricAuthorizedVerifyFailure, "authorized", "failure"),
			series(goGuard.MetricAccessVerifySuccess, "access", "success"),
			series(goGuard.MetricAccessExpired, "access", "expired"),
			series(goGuard.MetricAccessInvalid, "access", "invalid"),
		},
	},
	{
		Name:   "goguard_session_events_total",
		Help:   "Session lifecycle transitions.",
		Labels: []string{"event"},
		Series: []Series{
			series(goGuard.MetricSessionEstablished, "established"),
			series(goGuard.MetricSessionEstablishFailure, "establish_failed"),
			series(goGuard.MetricRefreshSuccess, "refreshed"),
			series(goGuard.MetricRefreshFailure, "refresh_failed"),
			series(goGuard.MetricRefreshRateLimited, "refresh_rate_limited"),
			series(goGuard.MetricSessionRevoked, "revoked"),
		},
	},
	{
		Name:   "goguard_login_total",
		Help:   "Password logins by outcome.",
		Labels: []string{"outcome"},
		Series: []Series{
			series(goGuard.MetricLoginSuccess, "success"),
			series(goGuard.MetricLoginFailure, "failure"),
			series(goGuard.MetricLoginRateLimited, "rate_limited"),
		},
	},
	{
		Name:   "goguard_account_total",
		Help:   "Registrations by outcome.",
		Labels: []string{"outcome"},
		Series: []Series{
			series(goGuard.MetricAccountCreated, "created"),
			series(goGuard.MetricAccountDuplicate, "duplicate"),
		},
	},
	{
		Name:   "goguard_binding_store_errors_total",
		Help:   "Binding store failures. touch failures are best effort and never fail a request.",
		Labels: []string{"kind"},
		Series: []Series{
			series(goGuard.MetricBindingTouchFailure, "touch"),
			series(goGuard.MetricStoreError, "unavailable"),
		},
	},
}

// Latency is the authorized-check histogram.
var Latency = Histogram{
	ID:   goGuard.MetricAuthorizedVerifyLatency,
	Name: "goguard_authorized_verify_latency_seconds",
	Help: "Authorized CSRF check latency.",
}

// HistogramBounds are the le labels, in bucket order. They match the engine's
// millisecond buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// CumulativeBuckets pads or truncates raw per-bucket counts to
// len(HistogramBounds) and returns running totals.
func CumulativeBuckets(raw []uint64) []uint64 {
	out := make([]uint64, len(HistogramBounds))
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}

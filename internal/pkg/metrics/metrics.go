// Package metrics defines and registers all custom Prometheus metrics for the
// HeartSpace web gateway. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// initialisation through promauto; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "heartspace_gateway"

// ── Backend metrics ───────────────────────────────────────────────────────────

// BackendRequestDuration measures outbound calls to the HeartSpace API.
// Labels:
//   - method: HTTP method
//   - status: response status code, or "error" on transport failure
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of outbound requests to the HeartSpace backend.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "status"},
)

// QueryCacheTotal counts query cache lookups.
// Label:
//   - result: "hit", "miss", "shared" (coalesced with an in-flight request)
var QueryCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_cache_total",
		Help:      "Total number of query cache lookups, labelled by result.",
	},
	[]string{"result"},
)

// ── Fetch strategy metrics ────────────────────────────────────────────────────

// FallbackAttemptsTotal counts fallback chain attempts.
// Labels:
//   - chain: the resource being fetched (e.g. "my_appointments")
//   - step: the attempt name (e.g. "dedicated", "client_id")
//   - outcome: "accepted", "rejected" (call succeeded, result not accepted), "failed"
var FallbackAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fallback_attempts_total",
		Help:      "Total number of fallback chain attempts, by chain, step and outcome.",
	},
	[]string{"chain", "step", "outcome"},
)

// FallbackExhaustedTotal counts chains where no attempt was accepted.
var FallbackExhaustedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fallback_exhausted_total",
		Help:      "Total number of fallback chains that resolved to the safe empty envelope.",
	},
	[]string{"chain"},
)

// FetchTimeoutsTotal counts single-resource lookups that hit their deadline.
var FetchTimeoutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_timeouts_total",
		Help:      "Total number of resource lookups resolved by timeout.",
	},
	[]string{"resource"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "rejected" (isSuccess=false), "error" (transport), "invalid"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ContinuationsTotal counts pending-auth continuations.
// Labels:
//   - action: registered continuation name ("" when the dialog had none)
//   - result: "resumed", "failed", "cancelled", "replaced"
var ContinuationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "continuations_total",
		Help:      "Total number of pending-auth continuations, by action and result.",
	},
	[]string{"action", "result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the number of session events waiting in each worker channel.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of session events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditEventsTotal counts session events persisted to or rejected by the audit trail.
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of session events processed by the audit trail.",
	},
	[]string{"type", "result"},
)

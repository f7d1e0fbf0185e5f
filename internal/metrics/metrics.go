// Package metrics defines and registers all custom Prometheus metrics for the
// bank teller. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "teller"

// Outcome label values shared by the audit and operation metrics.
const (
	OutcomeSuccess      = "success"
	OutcomeFailure      = "failure"
	OutcomeUnauthorized = "unauthorized"
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditRecordsTotal counts audit records written.
// Labels:
//   - type: the operation type (e.g. "WITHDRAW")
//   - outcome: "success", "failure" or "unauthorized"
var AuditRecordsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_records_total",
		Help:      "Total number of audit records written, by operation type and outcome.",
	},
	[]string{"type", "outcome"},
)

// AuditErrorsTotal counts audit writes rejected by the store.
var AuditErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_errors_total",
		Help:      "Total number of audit records the store failed to persist.",
	},
	[]string{"type"},
)

// ── Operation metrics ─────────────────────────────────────────────────────────

// OperationDuration measures money operations from lock to audit.
// Label:
//   - type: "PAYMENT_IN", "WITHDRAW" or "TRANSFER"
var OperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration of money operations including locking and persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"type"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Interest metrics ──────────────────────────────────────────────────────────

// InterestAppliedTotal counts interest runs per account.
// Label:
//   - result: "success", "failure" or "error"
var InterestAppliedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "interest_applied_total",
		Help:      "Total number of interest accruals attempted, by result.",
	},
	[]string{"result"},
)

// InterestQueueDepth tracks the accounts waiting in each interest worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var InterestQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "interest_queue_depth",
		Help:      "Current number of accounts pending in each interest worker channel.",
	},
	[]string{"worker_id"},
)

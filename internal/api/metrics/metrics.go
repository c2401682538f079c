// Package metrics defines and registers all custom Prometheus metrics for the
// CRM API. It is the single source of truth for metric names, labels, and
// help strings. Metrics register with the default registry at import time via
// promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crm"

// ── Authorization metrics ─────────────────────────────────────────────────────

// SecurityViolationsTotal counts RBAC filter denials on restricted prefixes.
// Label:
//   - route_class: "financial" or "admin"
var SecurityViolationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "security_violations_total",
		Help:      "Total number of denied requests to restricted route prefixes.",
	},
	[]string{"route_class"},
)

// GuardDenialsTotal counts resource-guard denials surfaced by handlers.
// Labels:
//   - resource: "client", "deal", "pipeline", "proposal", "recurring_invoice", "csv_import"
//   - action: "view", "create", "edit", "delete", or a workflow action
var GuardDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_denials_total",
		Help:      "Total number of resource guard denials, by resource and action.",
	},
	[]string{"resource", "action"},
)

// ── Portal metrics ────────────────────────────────────────────────────────────

// PortalAuthTotal counts portal authentication attempts.
// Labels:
//   - method: "token", "magic_link", "session"
//   - result: "success" or "failure"
var PortalAuthTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "portal_auth_total",
		Help:      "Total number of portal authentication attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// PortalSessionsCreatedTotal counts issued portal sessions.
var PortalSessionsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "portal_sessions_created_total",
		Help:      "Total number of portal sessions issued.",
	},
)

// ── Import metrics ────────────────────────────────────────────────────────────

// CsvValidationFailuresTotal counts rejected CSV uploads. The counter moves
// once per rejected upload, not per accumulated violation.
var CsvValidationFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "csv_validation_failures_total",
		Help:      "Total number of CSV uploads rejected by file validation.",
	},
)

// ── Billing metrics ───────────────────────────────────────────────────────────

// RecurringInvoicesGeneratedTotal counts invoices produced by the scheduler.
var RecurringInvoicesGeneratedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recurring_invoices_generated_total",
		Help:      "Total number of invoices generated from recurring schedules.",
	},
)

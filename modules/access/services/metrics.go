package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "access",
		Name:      "decisions_total",
		Help:      "Access evaluations broken down by resource type, action and decision.",
	}, []string{"resource", "action", "decision"})

	evaluateLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "access",
		Name:      "evaluate_latency_seconds",
		Help:      "Latency of access evaluations including the audit write.",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	}, []string{"resource"})

	auditFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "access",
		Name:      "audit_write_failures_total",
		Help:      "Audit appends that failed and aborted the guarded operation.",
	}, []string{"resource"})
)

func recordDecision(resource ResourceType, action Action, decision Decision, elapsed time.Duration) {
	decisionsTotal.WithLabelValues(string(resource), string(action), string(decision)).Inc()
	evaluateLatency.WithLabelValues(string(resource)).Observe(elapsed.Seconds())
}

func recordAuditFailure(resource ResourceType) {
	auditFailures.WithLabelValues(string(resource)).Inc()
}

package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authz",
		Subsystem: "capability",
		Name:      "requests_total",
		Help:      "Total number of capability authorizations broken down by mode and result.",
	}, []string{"mode", "result"})

	checkLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "authz",
		Subsystem: "capability",
		Name:      "check_latency_seconds",
		Help:      "Latency distribution for casbin enforcement.",
		Buckets: []float64{
			0.0001, 0.0005, 0.001, 0.002,
			0.005, 0.01, 0.02, 0.05,
		},
	}, []string{"mode", "result"})
)

func recordAuthorization(mode Mode, allowed bool) {
	checkRequests.With(prometheus.Labels{
		"mode":   string(mode),
		"result": resultLabel(allowed),
	}).Inc()
}

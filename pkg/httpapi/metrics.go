package httpapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of API requests broken down by module, endpoint and result.",
	}, []string{"module", "endpoint", "result"})

	apiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "crm",
		Subsystem: "api",
		Name:      "latency_seconds",
		Help:      "Latency distribution for API requests.",
		Buckets: []float64{
			0.001, 0.002, 0.005,
			0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5, 10,
		},
	}, []string{"module", "endpoint", "result"})
)

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Instrument counts and times next under module/endpoint.
func Instrument(module, endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		result := "2xx"
		switch {
		case rec.status >= 500:
			result = "5xx"
		case rec.status >= 400:
			result = "4xx"
		}
		apiRequests.WithLabelValues(module, endpoint, result).Inc()
		apiLatency.WithLabelValues(module, endpoint, result).Observe(time.Since(start).Seconds())
	}
}

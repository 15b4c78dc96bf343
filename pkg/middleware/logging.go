package middleware

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/constants"
	"github.com/jacksonlee411/branch-crm/pkg/httpapi"
)

const defaultRequestIDHeader = "X-Request-Id"

type LoggerOptions struct {
	RequestIDHeader string
	Repanic         bool
}

func DefaultLoggerOptions() LoggerOptions {
	return LoggerOptions{RequestIDHeader: defaultRequestIDHeader}
}

type statusWriter struct {
	http.ResponseWriter
	statusCode    int
	statusWritten bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.statusWritten {
		w.statusCode = code
		w.statusWritten = true
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.statusWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Status() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}

func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}

var tracer = otel.Tracer("branch-crm/middleware")

func TracedMiddleware(name string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "middleware."+name,
				trace.WithAttributes(attribute.String("middleware.name", name)),
			)
			defer span.End()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithLogger logs request start and completion, opens the request span and
// binds the request id and a request-scoped logger to the context. Bodies
// are never logged since they can carry customer account data.
func WithLogger(logger *logrus.Logger, opts LoggerOptions) mux.MiddlewareFunc {
	header := opts.RequestIDHeader
	if header == "" {
		header = defaultRequestIDHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get(header)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			fieldsLogger := logger.WithFields(logrus.Fields{
				"request-id": requestID,
				"path":       r.URL.Path,
				"method":     r.Method,
			})

			propagator := propagation.TraceContext{}
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, "http.request", trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", r.URL.Path),
				attribute.String("http.request_id", requestID),
			))
			defer span.End()

			if sc := span.SpanContext(); sc.HasTraceID() {
				w.Header().Set("X-Trace-Id", sc.TraceID().String())
				fieldsLogger = fieldsLogger.WithField("trace-id", sc.TraceID().String())
			}
			w.Header().Set(header, requestID)

			ctx = composables.WithLogger(ctx, fieldsLogger)
			ctx = composables.WithRequestID(ctx, requestID)
			ctx = context.WithValue(ctx, constants.RequestStart, start)

			fieldsLogger.WithFields(logrus.Fields{
				"ip":         r.RemoteAddr,
				"user-agent": r.UserAgent(),
			}).Info("request started")

			sw := &statusWriter{ResponseWriter: w}
			defer func() {
				if recovered := recover(); recovered != nil {
					fieldsLogger.WithFields(logrus.Fields{
						"panic":    recovered,
						"stack":    string(debug.Stack()),
						"duration": time.Since(start),
					}).Error("panic recovered in request handler")
					if !sw.statusWritten {
						_ = httpapi.WriteError(sw, http.StatusInternalServerError, "INTERNAL", "internal server error",
							map[string]string{"request_id": requestID})
					}
					if opts.Repanic {
						panic(recovered)
					}
				}
			}()

			next.ServeHTTP(sw, r.WithContext(ctx))

			status := sw.Status()
			duration := time.Since(start)
			fieldsLogger.WithFields(logrus.Fields{
				"duration":     duration,
				"status-code":  status,
				"status-class": status / 100,
			}).Info("request completed")
			span.SetAttributes(
				attribute.Int64("http.request_duration_ms", duration.Milliseconds()),
				attribute.Int("http.status_code", status),
			)
		})
	}
}

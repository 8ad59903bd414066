package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/CoderVinit/doctor-backend/internal/infrastructure/observability"
)

const (
	traceIDHeader  = "X-Trace-Id"
	unmatchedRoute = "unmatched"
)

type routeKey struct{}

// routeLabel is filled in by RecordRoute once the mux has matched a pattern.
// Inner middleware copy the request, so the outer layer cannot read
// r.Pattern itself.
type routeLabel struct {
	pattern string
}

// RecordRoute wraps a handler registered on the mux and reports the matched
// pattern to ObservabilityMiddleware.
func RecordRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if label, ok := r.Context().Value(routeKey{}).(*routeLabel); ok {
			label.pattern = r.Pattern
		}
		next.ServeHTTP(w, r)
	})
}

// ObservabilityMiddleware wraps each request in a span and records request
// metrics labelled by route pattern, never the raw path. 5xx responses mark
// the span as failed.
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			label := &routeLabel{}
			ctx := context.WithValue(r.Context(), routeKey{}, label)
			ctx, span := observability.StartSpan(ctx, "HTTP "+r.Method)
			defer span.End()

			if sc := span.SpanContext(); sc.IsValid() {
				w.Header().Set(traceIDHeader, sc.TraceID().String())
			}

			rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rw, r.WithContext(ctx))

			route := label.pattern
			if route == "" {
				route = unmatchedRoute
			}
			span.SetName(route)
			observability.SetSpanAttributes(span,
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.Int("http.status_code", rw.statusCode),
			)
			if rw.statusCode >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, strconv.Itoa(rw.statusCode))
			}

			observability.RecordRequestMetric(ctx, metrics, r.Method, route, rw.statusCode, time.Since(start))
		})
	}
}

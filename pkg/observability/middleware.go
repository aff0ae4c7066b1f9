package observability

import (
	"net/http"
	"strconv"
	"time"
)

// MetricsMiddleware returns HTTP middleware that records request metrics.
// Requests to one of routes are labelled with their path, everything else
// with RouteOther.
//
// It captures:
//   - zotgate_requests_total (counter): method, route and status class labels
//   - zotgate_request_duration_seconds (histogram): route label
//   - zotgate_requests_in_flight (gauge)
func MetricsMiddleware(routes []string) func(http.Handler) http.Handler {
	known := make(map[string]bool, len(routes))
	for _, r := range routes {
		known[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			InFlightRequests.Inc()
			defer InFlightRequests.Dec()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			route := RouteOther
			if known[r.URL.Path] {
				route = r.URL.Path
			}

			RequestsTotal.WithLabelValues(r.Method, route, StatusClass(sw.status)).Inc()
			RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}

// StatusClass returns a label like "2xx" for a status code.
func StatusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

// WriteHeader captures the status code and delegates to the underlying writer.
func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

// Write delegates to the underlying writer and marks the status as written.
func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter, enabling
// http.ResponseController and similar utilities to access the original writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mtlprog/teamtask/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Instrument records request metrics and logs each completed request.
// Requests are labelled by the matched mux pattern to keep cardinality low.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		latency := time.Since(start)
		metrics.ObserveRequest(r.Method, route, strconv.Itoa(rec.status), latency)

		slog.Debug("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"latency", latency,
		)
	})
}

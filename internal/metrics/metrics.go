// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mtlprog/teamtask/internal/domain"
)

var (
	operationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamtask_operations_total",
			Help: "Total number of task engine operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "teamtask_operation_duration_seconds",
			Help:    "Duration of task engine operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	notificationsStaged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "teamtask_notifications_staged_total",
			Help: "Total number of notifications written by task operations",
		},
	)

	historyEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamtask_history_events_total",
			Help: "Total number of task history events written by action",
		},
		[]string{"action"},
	)

	unreadCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamtask_unread_cache_lookups_total",
			Help: "Unread notification count cache lookups by result",
		},
		[]string{"result"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	requestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)

// Outcome classifies an operation error into a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrStorage):
		return "storage"
	default:
		return "error"
	}
}

// ObserveOperation records the outcome and duration of one engine operation.
func ObserveOperation(operation string, start time.Time, err error) {
	operationTotal.WithLabelValues(operation, Outcome(err)).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveWrites records the history events and notifications one operation committed.
func ObserveWrites(events []*domain.HistoryEvent, notifications int) {
	for _, e := range events {
		historyEvents.WithLabelValues(string(e.Action)).Inc()
	}
	notificationsStaged.Add(float64(notifications))
}

// ObserveUnreadCache records a cache hit, miss or error.
func ObserveUnreadCache(result string) {
	unreadCache.WithLabelValues(result).Inc()
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(method, route, status string, duration time.Duration) {
	requestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, route, status).Inc()
}

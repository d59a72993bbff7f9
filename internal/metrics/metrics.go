package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// EquipmentByStatus is the number of equipment items in each status, refreshed by the scheduler.
	EquipmentByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gearbox_equipment",
			Help: "Number of equipment items by status",
		},
		[]string{"status"},
	)

	// IssuesReported counts maintenance issues reported.
	IssuesReported = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gearbox_issues_reported_total",
			Help: "Total number of maintenance issues reported",
		},
	)

	// IssuesResolved counts maintenance resolutions.
	IssuesResolved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gearbox_issues_resolved_total",
			Help: "Total number of maintenance resolutions",
		},
	)

	// NotificationsCreated counts notifications by type (alert, success, info).
	NotificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gearbox_notifications_created_total",
			Help: "Total number of notifications created by type",
		},
		[]string{"type"},
	)
)

var (
	// Equipment ids are free-form strings, so every segment after /equipment/ is collapsed.
	equipmentPathSegment = regexp.MustCompile(`^(/equipment)/[^/]+`)
	notificationSegment  = regexp.MustCompile(`^(/notifications)/[^/]+/read$`)
	initOnce             sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, EquipmentByStatus,
			IssuesReported, IssuesResolved, NotificationsCreated)
	})
}

// NormalizePath reduces cardinality by replacing id path segments with {id}.
// E.g. /equipment/abc/issues -> /equipment/{id}/issues, /notifications/n1/read -> /notifications/{id}/read.
// /equipment/export.xlsx is kept as is.
func NormalizePath(path string) string {
	if path == "/equipment/export.xlsx" {
		return path
	}
	if notificationSegment.MatchString(path) {
		return "/notifications/{id}/read"
	}
	return equipmentPathSegment.ReplaceAllString(path, "$1/{id}")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// SetEquipmentCounts replaces the per-status gauge values. Statuses missing from counts are set to zero.
func SetEquipmentCounts(counts map[string]int, statuses []string) {
	for _, s := range statuses {
		EquipmentByStatus.WithLabelValues(s).Set(float64(counts[s]))
	}
}

func IncIssuesReported() {
	IssuesReported.Inc()
}

func IncIssuesResolved() {
	IssuesResolved.Inc()
}

func IncNotificationsCreated(notificationType string) {
	NotificationsCreated.WithLabelValues(notificationType).Inc()
}

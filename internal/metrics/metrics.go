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

	InspectionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspections_created_total",
			Help: "Inspections created (including duplicates) by property type",
		},
		[]string{"property_type"},
	)

	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspection_status_transitions_total",
			Help: "Applied inspection status transitions",
		},
		[]string{"from", "to"},
	)

	TransitionConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inspection_transition_conflicts_total",
			Help: "Status transitions rejected because the inspection changed concurrently",
		},
	)

	// Notifications counts notification attempts by channel and result (ok, error).
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notification delivery attempts",
		},
		[]string{"channel", "result"},
	)

	PhotosUploaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "photos_uploaded_total",
			Help: "Photos stored",
		},
	)

	PhotoOrphansSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_orphans_swept_total",
			Help: "Photo blobs removed because no photo row referenced them",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestDuration, RequestTotal,
			InspectionsCreated, StatusTransitions, TransitionConflicts,
			Notifications, PhotosUploaded, PhotoOrphansSwept,
		)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /inspections/123/status -> /inspections/{id}/status.
func NormalizePath(path string) string {
	// two passes: adjacent numeric segments share the separating slash
	path = numericPathSegment.ReplaceAllString(path, "/{id}$1")
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

func IncInspectionsCreated(propertyType string) {
	InspectionsCreated.WithLabelValues(propertyType).Inc()
}

func RecordTransition(from, to string) {
	StatusTransitions.WithLabelValues(from, to).Inc()
}

func IncTransitionConflicts() {
	TransitionConflicts.Inc()
}

// RecordNotification counts one delivery attempt; err == nil counts as "ok".
func RecordNotification(channel string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	Notifications.WithLabelValues(channel, result).Inc()
}

func IncPhotosUploaded() {
	PhotosUploaded.Inc()
}

func AddPhotoOrphansSwept(n int) {
	PhotoOrphansSwept.Add(float64(n))
}

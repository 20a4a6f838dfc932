// Package metrics holds the prometheus collectors shared by the HTTP layer,
// the lock manager, workspaces and the merge path.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "codeshelf"

// Lock acquisition results.
const (
	LockAcquired = "acquired"
	LockTimeout  = "timeout"
	LockError    = "error"
)

// Merge results.
const (
	MergeMerged   = "merged"
	MergeConflict = "conflict"
	MergeError    = "error"
)

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	lockAcquisitions *prometheus.CounterVec
	lockWait         *prometheus.HistogramVec

	workspacesOpened prometheus.Counter
	workspacesActive prometheus.Gauge

	merges *prometheus.CounterVec
}

// New creates the collectors and registers them on reg when reg is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status_class"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "route", "status_class"}),
		lockAcquisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lock",
			Name:      "acquisitions_total",
			Help:      "Lock acquisition attempts by key namespace and result.",
		}, []string{"scope", "result"}),
		lockWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lock",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for a repository lock.",
			Buckets:   []float64{.001, .01, .05, .1, .5, 1, 5, 10, 30},
		}, []string{"scope"}),
		workspacesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workspace",
			Name:      "opened_total",
			Help:      "Ephemeral workspaces created.",
		}),
		workspacesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "workspace",
			Name:      "active",
			Help:      "Workspaces currently on disk.",
		}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pullrequest",
			Name:      "merges_total",
			Help:      "Pull request merge attempts by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.requestTotal, m.requestDuration,
			m.lockAcquisitions, m.lockWait,
			m.workspacesOpened, m.workspacesActive,
			m.merges,
		)
	}
	return m
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	class := StatusClass(status)
	m.requestTotal.WithLabelValues(method, route, class).Inc()
	m.requestDuration.WithLabelValues(method, route, class).Observe(elapsed.Seconds())
}

// ObserveLock records one acquisition attempt for a key scope ("repo", "files").
func (m *Metrics) ObserveLock(scope, result string, waited time.Duration) {
	if m == nil {
		return
	}
	m.lockAcquisitions.WithLabelValues(scope, result).Inc()
	m.lockWait.WithLabelValues(scope).Observe(waited.Seconds())
}

// WorkspaceOpened marks a workspace as created.
func (m *Metrics) WorkspaceOpened() {
	if m == nil {
		return
	}
	m.workspacesOpened.Inc()
	m.workspacesActive.Inc()
}

// WorkspaceClosed marks a workspace as removed.
func (m *Metrics) WorkspaceClosed() {
	if m == nil {
		return
	}
	m.workspacesActive.Dec()
}

// ObserveMerge records the outcome of a merge attempt.
func (m *Metrics) ObserveMerge(result string) {
	if m == nil {
		return
	}
	m.merges.WithLabelValues(result).Inc()
}

// Handler exposes gatherer in the prometheus text and OpenMetrics formats.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StatusClass buckets an HTTP status code as 2xx, 4xx and so on.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}

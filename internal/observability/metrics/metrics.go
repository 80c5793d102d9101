package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtrack_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jobtrack_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtrack_logins_total",
		Help: "Count of login attempts by result",
	}, []string{"result"})

	registrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtrack_registrations_total",
		Help: "Count of registration attempts by result",
	}, []string{"result"})

	applicationMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtrack_application_mutations_total",
		Help: "Count of application mutations by operation",
	}, []string{"operation"})

	applicationsByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "jobtrack_applications",
		Help: "Number of stored applications by status (refreshed periodically)",
	}, []string{"status"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveLogin records a login attempt with a result label ("ok" or "failed")
func ObserveLogin(result string) {
	loginsTotal.WithLabelValues(result).Inc()
}

// ObserveRegistration records a registration attempt with a result label
func ObserveRegistration(result string) {
	registrationsTotal.WithLabelValues(result).Inc()
}

// ObserveApplicationMutation counts add/edit/delete/update_status operations
func ObserveApplicationMutation(operation string) {
	applicationMutations.WithLabelValues(operation).Inc()
}

// SetApplications sets the stored-application gauge for one status
func SetApplications(status string, count int) {
	if count < 0 {
		count = 0
	}
	applicationsByStatus.WithLabelValues(status).Set(float64(count))
}

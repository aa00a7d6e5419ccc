package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AccountsRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "accounts_registered_total",
			Help: "Total number of accounts registered",
		},
	)

	MessagesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_created_total",
			Help: "Total number of messages created",
		},
	)

	EventsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_processed_total",
			Help: "Total number of audit events processed by workers",
		},
		[]string{"type"},
	)

	WorkerActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_worker_active_goroutines",
			Help: "Number of active audit worker goroutines",
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_queue_depth",
			Help: "Current depth of the audit event queue",
		},
	)
)

// Init registers metrics with Prometheus
func Init() {
	prometheus.MustRegister(AccountsRegistered)
	prometheus.MustRegister(MessagesCreated)
	prometheus.MustRegister(EventsProcessed)
	prometheus.MustRegister(WorkerActive)
	prometheus.MustRegister(QueueDepth)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

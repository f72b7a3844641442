package metricsvc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/schedule"
)

const namespace = "ekklesia"

// Metrics holds the application collectors on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	generated     *prometheus.CounterVec
	shortfall     *prometheus.CounterVec
	replicated    *prometheus.CounterVec
	published     *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

var _ schedule.Observer = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latencies by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedules",
			Name:      "generated_total",
			Help:      "Schedules generated from a random draw of the roster.",
		}, []string{"department"}),
		shortfall: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedules",
			Name:      "generated_shortfall_total",
			Help:      "Requested members that could not be drawn because the active roster was too small.",
		}, []string{"department"}),
		replicated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedules",
			Name:      "replicated_total",
			Help:      "Schedules copied to a new date.",
		}, []string{"department"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedules",
			Name:      "published_total",
			Help:      "Schedules published.",
		}, []string{"department"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedules",
			Name:      "notifications_total",
			Help:      "Emails queued to members of published schedules.",
		}, []string{"department"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.generated,
		m.shortfall,
		m.replicated,
		m.published,
		m.notifications,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ScheduleGenerated(dept core.Department, requested, selected int) {
	m.generated.WithLabelValues(string(dept)).Inc()
	if requested > selected {
		m.shortfall.WithLabelValues(string(dept)).Add(float64(requested - selected))
	}
}

func (m *Metrics) ScheduleReplicated(dept core.Department) {
	m.replicated.WithLabelValues(string(dept)).Inc()
}

func (m *Metrics) SchedulePublished(dept core.Department, notified int) {
	m.published.WithLabelValues(string(dept)).Inc()
	m.notifications.WithLabelValues(string(dept)).Add(float64(notified))
}

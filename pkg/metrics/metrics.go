package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the service's Prometheus instruments
type Collector struct {
	gatherer prometheus.Gatherer

	schedulesGenerated *prometheus.CounterVec
	scheduleDays       prometheus.Counter
	generationErrors   *prometheus.CounterVec
	generationDuration prometheus.Histogram
	persistFailures    prometheus.Counter
	remindersSent      prometheus.Counter
	eventsPublished    *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if namespace == "" {
		namespace = "roomduty"
	}

	c := &Collector{
		gatherer: reg,
		schedulesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "generated_total",
			Help:      "Schedules generated, by scope (month or year).",
		}, []string{"scope"}),
		scheduleDays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "days_total",
			Help:      "Calendar days covered by generated schedules.",
		}),
		generationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "errors_total",
			Help:      "Rejected generation requests, by reason.",
		}, []string{"reason"}),
		generationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "generation_seconds",
			Help:      "Time spent building a schedule.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "persist_failures_total",
			Help:      "Generated schedules that could not be saved.",
		}),
		remindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminder",
			Name:      "sent_total",
			Help:      "Reminder messages delivered.",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calendar",
			Name:      "events_total",
			Help:      "Calendar events written, by action (inserted or updated).",
		}, []string{"action"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.schedulesGenerated,
		c.scheduleDays,
		c.generationErrors,
		c.generationDuration,
		c.persistFailures,
		c.remindersSent,
		c.eventsPublished,
		c.httpRequests,
		c.httpDuration,
	)
	return c
}

// ScheduleGenerated records a successful generation
func (c *Collector) ScheduleGenerated(month, days int, took time.Duration) {
	if c == nil {
		return
	}
	scope := "month"
	if month == 0 {
		scope = "year"
	}
	c.schedulesGenerated.WithLabelValues(scope).Inc()
	c.scheduleDays.Add(float64(days))
	c.generationDuration.Observe(took.Seconds())
}

// GenerationFailed records a rejected generation
func (c *Collector) GenerationFailed(reason string) {
	if c == nil {
		return
	}
	c.generationErrors.WithLabelValues(reason).Inc()
}

// PersistFailed records a schedule that could not be saved
func (c *Collector) PersistFailed() {
	if c == nil {
		return
	}
	c.persistFailures.Inc()
}

// RemindersSent adds delivered reminder messages
func (c *Collector) RemindersSent(n int) {
	if c == nil {
		return
	}
	c.remindersSent.Add(float64(n))
}

// EventsPublished records calendar writes
func (c *Collector) EventsPublished(inserted, updated int) {
	if c == nil {
		return
	}
	c.eventsPublished.WithLabelValues("inserted").Add(float64(inserted))
	c.eventsPublished.WithLabelValues("updated").Add(float64(updated))
}

// Middleware records request counts and latency per matched route
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.httpRequests.WithLabelValues(route, ctx.Request.Method, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

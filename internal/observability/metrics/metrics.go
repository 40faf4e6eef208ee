// Package metrics exposes prometheus instrumentation for the HTTP surface and
// the activation sweep.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics() *HTTPMetrics {
	return NewHTTPMetricsWith(prometheus.DefaultRegisterer)
}

// NewHTTPMetricsWith registers against the given registerer; tests pass a
// fresh registry to avoid duplicate registration across cases.
func NewHTTPMetricsWith(registerer prometheus.Registerer) *HTTPMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)
	return &HTTPMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "billing_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// GinMiddleware records request counts and latency per route template.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

type SchedulerMetrics struct {
	jobRuns   *prometheus.CounterVec
	jobErrors *prometheus.CounterVec
	activated prometheus.Counter
}

func NewSchedulerMetrics() *SchedulerMetrics {
	return NewSchedulerMetricsWith(prometheus.DefaultRegisterer)
}

func NewSchedulerMetricsWith(registerer prometheus.Registerer) *SchedulerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)
	return &SchedulerMetrics{
		jobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_scheduler_job_runs_total",
			Help: "Scheduler job executions by job name.",
		}, []string{"job"}),
		jobErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_scheduler_job_errors_total",
			Help: "Scheduler job failures by job name.",
		}, []string{"job"}),
		activated: factory.NewCounter(prometheus.CounterOpts{
			Name: "billing_subscriptions_activated_total",
			Help: "Subscriptions promoted SCHEDULED to ACTIVE by the sweep.",
		}),
	}
}

func (m *SchedulerMetrics) IncJobRun(job string)   { m.jobRuns.WithLabelValues(job).Inc() }
func (m *SchedulerMetrics) IncJobError(job string) { m.jobErrors.WithLabelValues(job).Inc() }
func (m *SchedulerMetrics) AddActivated(n int)     { m.activated.Add(float64(n)) }

var Module = fx.Module("observability.metrics",
	fx.Provide(NewHTTPMetrics),
	fx.Provide(NewSchedulerMetrics),
)

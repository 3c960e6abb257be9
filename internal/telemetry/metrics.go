package telemetry

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trackhub",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "trackhub",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	contentEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trackhub",
		Subsystem: "content",
		Name:      "events_total",
		Help:      "Publish, subscribe and share actions on exercises, workouts and plans.",
	}, []string{"kind", "action"})

	jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trackhub",
		Subsystem: "jobs",
		Name:      "runs_total",
		Help:      "Background job runs by outcome.",
	}, []string{"job", "outcome"})

	jobLastSuccess = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "trackhub",
		Subsystem: "jobs",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful run of a job.",
	}, []string{"job"})
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, contentEvents, jobRuns, jobLastSuccess)
}

// RecordContentEvent counts an action on a kind of content
func RecordContentEvent(kind, action string) {
	contentEvents.WithLabelValues(kind, action).Inc()
}

// RecordJobRun counts a job run and tracks its last success
func RecordJobRun(job string, err error) {
	if err != nil {
		jobRuns.WithLabelValues(job, "error").Inc()
		return
	}
	jobRuns.WithLabelValues(job, "ok").Inc()
	jobLastSuccess.WithLabelValues(job).Set(float64(time.Now().Unix()))
}

// MetricsMiddleware records request counts and latency per route
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		route := c.Route().Path
		httpRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

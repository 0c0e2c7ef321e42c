package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the portal's Prometheus metrics. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	bookingsTotal       *prometheus.CounterVec
	scheduleReleases    prometheus.Counter
	otpIssuedTotal      *prometheus.CounterVec
	otpVerifications    *prometheus.CounterVec
	otpPurgedTotal      prometheus.Counter
	mailFailuresTotal   prometheus.Counter
}

// NewCollector creates the metrics and registers them on a fresh registry
// together with the Go and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		bookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appointment_bookings_total",
				Help: "Appointment booking attempts by outcome",
			},
			[]string{"outcome"},
		),
		scheduleReleases: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schedule_releases_total",
			Help: "Schedules made available again by cancellation or deletion",
		}),
		otpIssuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otp_issued_total",
				Help: "One-time codes issued by type",
			},
			[]string{"type"},
		),
		otpVerifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otp_verifications_total",
				Help: "One-time code verifications by type and result",
			},
			[]string{"type", "result"},
		),
		otpPurgedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otp_purged_total",
			Help: "One-time codes permanently removed by the purge job",
		}),
		mailFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mail_delivery_failures_total",
			Help: "Emails that could not be delivered",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequestsTotal,
		c.httpRequestDuration,
		c.bookingsTotal,
		c.scheduleReleases,
		c.otpIssuedTotal,
		c.otpVerifications,
		c.otpPurgedTotal,
		c.mailFailuresTotal,
	)
	return c
}

// RecordHTTPRequest records HTTP request metrics
func (c *Collector) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	c.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordBooking records the outcome of an appointment booking attempt.
func (c *Collector) RecordBooking(outcome string) {
	if c == nil {
		return
	}
	c.bookingsTotal.WithLabelValues(outcome).Inc()
}

// RecordScheduleRelease counts a schedule made available again.
func (c *Collector) RecordScheduleRelease() {
	if c == nil {
		return
	}
	c.scheduleReleases.Inc()
}

// RecordOtpIssued counts an issued code.
func (c *Collector) RecordOtpIssued(otpType string) {
	if c == nil {
		return
	}
	c.otpIssuedTotal.WithLabelValues(otpType).Inc()
}

// RecordOtpVerification counts a verification attempt.
func (c *Collector) RecordOtpVerification(otpType string, verified bool) {
	if c == nil {
		return
	}
	result := "failed"
	if verified {
		result = "verified"
	}
	c.otpVerifications.WithLabelValues(otpType, result).Inc()
}

// RecordOtpPurged counts rows removed by the purge job.
func (c *Collector) RecordOtpPurged(n int64) {
	if c == nil || n <= 0 {
		return
	}
	c.otpPurgedTotal.Add(float64(n))
}

// RecordMailFailure counts an undeliverable email.
func (c *Collector) RecordMailFailure() {
	if c == nil {
		return
	}
	c.mailFailuresTotal.Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the Prometheus scrape handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request count and latency per route template.
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		endpoint := ctx.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		c.RecordHTTPRequest(ctx.Request.Method, endpoint, ctx.Writer.Status(), time.Since(start))
	}
}

package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics captures per-request Prometheus metrics and serves the scrape
// endpoint. Each service gets its own registry labelled with its name.
type Metrics struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

// NewMetrics registers the core collectors.
func NewMetrics(service string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	constLabels := prometheus.Labels{"service": service}

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "http_request_duration_seconds",
		Help:        "Duration of HTTP requests in seconds",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: constLabels,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests",
		ConstLabels: constLabels,
	}, []string{"method", "path", "status"})

	registry.MustRegister(requestDuration, requestTotal)

	return &Metrics{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}
}

// Middleware observes every request passing through the router.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := strconv.Itoa(c.Writer.Status())
		elapsed := time.Since(start).Seconds()

		m.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(elapsed)
		m.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// Handler serves the Prometheus scrape endpoint.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

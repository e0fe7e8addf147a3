package metrics

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"test-orchestrator/internal/shared/logger"
)

// Metrics holds all Prometheus metrics.
// Each instance owns its registry so engines built side by side do not collide.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Orchestration metrics
	testsTotal           *prometheus.CounterVec
	testDuration         *prometheus.HistogramVec
	componentHealthTotal *prometheus.CounterVec
	suiteRunsTotal       *prometheus.CounterVec

	// System metrics
	uptime prometheus.Gauge

	logger *logger.Logger
}

// New creates a new metrics instance. namespace prefixes every metric name.
func New(namespace string, logger *logger.Logger) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		logger:   logger.Named("metrics"),
	}

	factory := promauto.With(reg)
	m.initHTTPMetrics(factory)
	m.initOrchestrationMetrics(factory, namespace)
	m.initSystemMetrics(factory)

	m.logger.Info("Metrics initialized")

	return m
}

// initHTTPMetrics initializes HTTP-related metrics
func (m *Metrics) initHTTPMetrics(factory promauto.Factory) {
	m.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	m.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	m.httpRequestsInFlight = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
		[]string{"method", "endpoint"},
	)
}

// initOrchestrationMetrics initializes test execution and health probe metrics
func (m *Metrics) initOrchestrationMetrics(factory promauto.Factory, namespace string) {
	m.testsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tests_total",
			Help:      "Total number of tests executed",
		},
		[]string{"test_type", "component", "status"},
	)

	m.testDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "test_duration_seconds",
			Help:      "Test execution duration",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"test_type", "component"},
	)

	m.componentHealthTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "component_health_checks_total",
			Help:      "Component health check results",
		},
		[]string{"component", "status"},
	)

	m.suiteRunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suite_runs_total",
			Help:      "Total number of suite invocations",
		},
		[]string{"suite"},
	)
}

// initSystemMetrics initializes system metrics
func (m *Metrics) initSystemMetrics(factory promauto.Factory) {
	m.uptime = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordTest counts one test outcome
func (m *Metrics) RecordTest(testType, component, status string) {
	m.testsTotal.WithLabelValues(testType, component, status).Inc()
}

// ObserveTestDuration records how long an executed test took
func (m *Metrics) ObserveTestDuration(testType, component string, duration time.Duration) {
	m.testDuration.WithLabelValues(testType, component).Observe(duration.Seconds())
}

// RecordHealthCheck counts one component probe tagged with its resulting state
func (m *Metrics) RecordHealthCheck(component, state string) {
	m.componentHealthTotal.WithLabelValues(component, state).Inc()
}

// RecordSuiteRun counts one suite invocation
func (m *Metrics) RecordSuiteRun(suite string) {
	m.suiteRunsTotal.WithLabelValues(suite).Inc()
}

// RecordUptime records the application uptime
func (m *Metrics) RecordUptime(uptime time.Duration) {
	m.uptime.Set(uptime.Seconds())
}

// TrackUptime refreshes the uptime gauge every interval until ctx is done
func (m *Metrics) TrackUptime(ctx context.Context, interval time.Duration) {
	started := time.Now()
	m.RecordUptime(0)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.RecordUptime(time.Since(started))
		}
	}
}

// TestsCounter exposes the test outcome counter, mainly for assertions
func (m *Metrics) TestsCounter() *prometheus.CounterVec {
	return m.testsTotal
}

// HealthChecksCounter exposes the health check counter, mainly for assertions
func (m *Metrics) HealthChecksCounter() *prometheus.CounterVec {
	return m.componentHealthTotal
}

// SuiteRunsCounter exposes the suite invocation counter
func (m *Metrics) SuiteRunsCounter() *prometheus.CounterVec {
	return m.suiteRunsTotal
}

// Registry returns the registry all instruments are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Export renders a snapshot of every metric family in the text exposition format
func (m *Metrics) Export() ([]byte, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Handler returns an http.Handler serving this instance's registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware returns a Gin middleware for collecting HTTP metrics
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		// Route template keeps label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.httpRequestsInFlight.WithLabelValues(method, path).Inc()
		defer m.httpRequestsInFlight.WithLabelValues(method, path).Dec()

		c.Next()

		m.RecordHTTPRequest(method, path, c.Writer.Status(), time.Since(start))
	}
}

// GinMetricsHandler returns a Gin handler for the /metrics endpoint
func (m *Metrics) GinMetricsHandler() gin.HandlerFunc {
	return gin.WrapH(m.Handler())
}

package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics captures low-cardinality HTTP server metrics. Endpoints are
// route templates, never raw paths.
type HTTPMetrics struct {
	requestDuration *prometheus.HistogramVec
	inFlight        *prometheus.GaugeVec
}

func NewHTTPMetrics(registerer prometheus.Registerer, cfg Config) *HTTPMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := prometheus.Labels(cfg.constLabels())

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "interio_http_request_duration_seconds",
			Help:        "HTTP request latency by route and status.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "status_code"},
	)

	inFlight := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "interio_http_requests_in_flight",
			Help:        "HTTP requests currently being served.",
			ConstLabels: constLabels,
		},
		[]string{"endpoint"},
	)

	registerer.MustRegister(requestDuration, inFlight)

	return &HTTPMetrics{
		requestDuration: requestDuration,
		inFlight:        inFlight,
	}
}

// GinMiddleware records request duration and in-flight metrics.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		endpoint := normalizeEndpoint(c.FullPath())
		gauge := m.inFlight.WithLabelValues(endpoint)
		gauge.Inc()
		start := time.Now()
		c.Next()
		gauge.Dec()

		m.RecordRequest(endpoint, c.Writer.Status(), time.Since(start))
	}
}

// RecordRequest allows manual recording of HTTP metrics.
func (m *HTTPMetrics) RecordRequest(endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.
		WithLabelValues(normalizeEndpoint(endpoint), strconv.Itoa(status)).
		Observe(duration.Seconds())
}

func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "unknown"
	}
	return endpoint
}

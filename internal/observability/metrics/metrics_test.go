package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetricsRecordRouteTemplates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg, Config{ServiceName: "interio", Environment: "test"})

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/jobs/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	for _, path := range []string{"/jobs/1", "/jobs/2", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.CollectAndCount(m.requestDuration); got != 2 {
		t.Fatalf("expected 2 series (route and unknown), got %d", got)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var jobRequests uint64
	for _, family := range families {
		if family.GetName() != "interio_http_request_duration_seconds" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["endpoint"] == "/jobs/:id" && labels["status_code"] == "200" {
				jobRequests = metric.GetHistogram().GetSampleCount()
			}
		}
	}
	if jobRequests != 2 {
		t.Fatalf("expected 2 requests on /jobs/:id, got %d", jobRequests)
	}
	if got := testutil.ToFloat64(m.inFlight.WithLabelValues("/jobs/:id")); got != 0 {
		t.Fatalf("expected nothing in flight, got %v", got)
	}
}

func TestJobMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg, Config{ServiceName: "interio", Environment: "test"})

	m.JobStarted()
	m.ObserveJob("hd", "succeeded", 12*time.Second)
	m.IncStageFailure("upscale")
	m.JobFinished()

	if got := testutil.ToFloat64(m.processed.WithLabelValues("hd", "succeeded")); got != 1 {
		t.Fatalf("expected 1 processed, got %v", got)
	}
	if got := testutil.ToFloat64(m.stageFailures.WithLabelValues("upscale")); got != 1 {
		t.Fatalf("expected 1 stage failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.inFlight); got != 0 {
		t.Fatalf("expected no jobs in flight, got %v", got)
	}
}

func TestNilMetricsAreNoop(t *testing.T) {
	var jobs *JobMetrics
	jobs.ObserveJob("std", "failed", time.Second)
	jobs.IncSoftLimit()

	var billing *BillingMetrics
	billing.IncConsume("std", "ok")
	billing.IncReconcile("paid")

	var web *HTTPMetrics
	web.RecordRequest("/healthz", 200, time.Millisecond)
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics tracks the generation worker.
type JobMetrics struct {
	processed     *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	inFlight      prometheus.Gauge
	softLimitHits prometheus.Counter
}

func NewJobMetrics(registerer prometheus.Registerer, cfg Config) *JobMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := prometheus.Labels(cfg.constLabels())

	processed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "interio_jobs_processed_total",
			Help:        "Generation jobs finished by the worker.",
			ConstLabels: constLabels,
		},
		[]string{"quality", "result"}, // succeeded | failed | timeout | skipped
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "interio_job_duration_seconds",
			Help: "Wall time of a generation job from pickup to terminal state.",
			Buckets: []float64{
				5,
				15,
				30,
				60,
				120,
				240, // soft limit
				300, // hard limit
			},
			ConstLabels: constLabels,
		},
		[]string{"quality", "result"},
	)

	stageFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "interio_job_stage_failures_total",
			Help:        "Job failures by pipeline stage.",
			ConstLabels: constLabels,
		},
		[]string{"stage"},
	)

	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "interio_jobs_in_flight",
			Help:        "Jobs currently held by worker goroutines.",
			ConstLabels: constLabels,
		},
	)

	softLimitHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "interio_job_soft_limit_exceeded_total",
			Help:        "Jobs that ran past the soft time limit.",
			ConstLabels: constLabels,
		},
	)

	registerer.MustRegister(processed, duration, stageFailures, inFlight, softLimitHits)

	return &JobMetrics{
		processed:     processed,
		duration:      duration,
		stageFailures: stageFailures,
		inFlight:      inFlight,
		softLimitHits: softLimitHits,
	}
}

func (m *JobMetrics) ObserveJob(quality, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.processed.WithLabelValues(quality, result).Inc()
	m.duration.WithLabelValues(quality, result).Observe(elapsed.Seconds())
}

func (m *JobMetrics) IncStageFailure(stage string) {
	if m == nil {
		return
	}
	m.stageFailures.WithLabelValues(stage).Inc()
}

func (m *JobMetrics) JobStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *JobMetrics) JobFinished() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}

func (m *JobMetrics) IncSoftLimit() {
	if m == nil {
		return
	}
	m.softLimitHits.Inc()
}

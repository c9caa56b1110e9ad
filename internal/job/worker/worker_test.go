package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/interiohub/interio/internal/clock"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
	"github.com/interiohub/interio/internal/job/queue"
	"github.com/interiohub/interio/internal/job/repository"
	"github.com/interiohub/interio/internal/observability/metrics"
	"github.com/interiohub/interio/pkg/db/dbtest"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type runnerFunc func(ctx context.Context, spec jobdomain.Spec) (jobdomain.Result, error)

func (f runnerFunc) Run(ctx context.Context, spec jobdomain.Spec) (jobdomain.Result, error) {
	return f(ctx, spec)
}

type fixture struct {
	worker *Worker
	db     *gorm.DB
	queue  *queue.Memory
	node   *snowflake.Node
	reg    *prometheus.Registry
	calls  *atomic.Int32
}

func newFixture(t *testing.T, cfg Config, run runnerFunc) fixture {
	t.Helper()
	db := dbtest.Open(t, &jobdomain.Job{})
	q := queue.NewMemory(8)
	calls := &atomic.Int32{}
	reg := prometheus.NewRegistry()
	jm := metrics.NewJobMetrics(reg, metrics.Config{})
	w := NewWorker(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.Fixed(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
		Queue: q,
		Runner: runnerFunc(func(ctx context.Context, spec jobdomain.Spec) (jobdomain.Result, error) {
			calls.Add(1)
			return run(ctx, spec)
		}),
		Config:  cfg,
		Metrics: jm,
	})
	return fixture{worker: w, db: db, queue: q, node: dbtest.Node(t), reg: reg, calls: calls}
}

func (f fixture) insert(t *testing.T, state jobdomain.State) *jobdomain.Job {
	t.Helper()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	job := &jobdomain.Job{
		ID:        f.node.Generate(),
		AccountID: "acc-1",
		StyleID:   "loft",
		SourceRef: "uploads/a.jpg",
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.db.Create(job).Error; err != nil {
		t.Fatalf("insert job: %v", err)
	}
	return job
}

func (f fixture) reload(t *testing.T, id snowflake.ID) jobdomain.Job {
	t.Helper()
	var job jobdomain.Job
	if err := f.db.Where("id = ?", id).First(&job).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	return job
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	metric:
		for _, m := range family.GetMetric() {
			for _, pair := range m.GetLabel() {
				if want, ok := labels[pair.GetName()]; ok && want != pair.GetValue() {
					continue metric
				}
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

type recordingDelivery struct {
	id      snowflake.ID
	acked   bool
	requeue bool
}

func (d *recordingDelivery) JobID() snowflake.ID { return d.id }

func (d *recordingDelivery) Ack() error {
	d.acked = true
	return nil
}

func (d *recordingDelivery) Nack(requeue bool) error {
	d.requeue = requeue
	return nil
}

func TestHandleSuccessPersistsResult(t *testing.T) {
	f := newFixture(t, Config{}, func(ctx context.Context, spec jobdomain.Spec) (jobdomain.Result, error) {
		return jobdomain.Result{URL: "https://cdn/x.png", Key: "generated/loft/x.png", StyleID: spec.StyleID}, nil
	})
	job := f.insert(t, jobdomain.StatePending)
	d := &recordingDelivery{id: job.ID}

	f.worker.Handle(d)

	got := f.reload(t, job.ID)
	if got.State != jobdomain.StateSuccess || got.Result.Data().Key != "generated/loft/x.png" {
		t.Fatalf("unexpected job %+v", got)
	}
	if got.Attempts != 1 || got.StartedAt == nil || got.FinishedAt == nil {
		t.Fatalf("expected attempt and timestamps, got %+v", got)
	}
	if !d.acked {
		t.Fatalf("expected ack")
	}
	if v := counterValue(t, f.reg, "interio_jobs_processed_total", map[string]string{"quality": "std", "result": "succeeded"}); v != 1 {
		t.Fatalf("expected processed metric, got %v", v)
	}
}

func TestHandleFailureRecordsError(t *testing.T) {
	f := newFixture(t, Config{}, func(ctx context.Context, spec jobdomain.Spec) (jobdomain.Result, error) {
		return jobdomain.Result{}, &jobdomain.EngineError{Stage: jobdomain.StageGenerate, Err: errors.New("boom")}
	})
	job := f.insert(t, jobdomain.StatePending)

	f.worker.Handle(&recordingDelivery{id: job.ID})

	got := f.reload(t, job.ID)
	if got.State != jobdomain.StateFailure || got.Error != "engine error at generate: boom" {
		t.Fatalf("unexpected job %s %q", got.State, got.Error)
	}
}

func TestHandleHardLimitTimesOut(t *testing.T) {
	f := newFixture(t, Config{HardLimit: 50 * time.Millisecond, SoftLimit: 10 * time.Millisecond},
		func(ctx context.Context, spec jobdomain.Spec) (jobdomain.Result, error) {
			<-ctx.Done()
			return jobdomain.Result{}, ctx.Err()
		})
	job := f.insert(t, jobdomain.StatePending)

	f.worker.Handle(&recordingDelivery{id: job.ID})

	got := f.reload(t, job.ID)
	if got.State != jobdomain.StateFailure || got.Error != jobdomain.ErrJobTimeout.Error() {
		t.Fatalf("expected timeout failure, got %s %q", got.State, got.Error)
	}
	if v := counterValue(t, f.reg, "interio_job_soft_limit_exceeded_total", nil); v != 1 {
		t.Fatalf("expected soft limit metric, got %v", v)
	}
}

func TestHandleSkipsTerminalRedelivery(t *testing.T) {
	f := newFixture(t, Config{}, func(ctx context.Context, spec jobdomain.Spec) (jobdomain.Result, error) {
		return jobdomain.Result{}, nil
	})
	job := f.insert(t, jobdomain.StateSuccess)
	d := &recordingDelivery{id: job.ID}

	f.worker.Handle(d)

	if f.calls.Load() != 0 {
		t.Fatalf("terminal job must not rerun")
	}
	if !d.acked {
		t.Fatalf("expected ack for redelivery")
	}
}

func TestHandleUnknownJobIsAcked(t *testing.T) {
	f := newFixture(t, Config{}, func(ctx context.Context, spec jobdomain.Spec) (jobdomain.Result, error) {
		return jobdomain.Result{}, nil
	})
	d := &recordingDelivery{id: snowflake.ID(99)}

	f.worker.Handle(d)

	if !d.acked || f.calls.Load() != 0 {
		t.Fatalf("expected ack without run")
	}
}

func TestRunForeverDrainsQueue(t *testing.T) {
	f := newFixture(t, Config{Concurrency: 2}, func(ctx context.Context, spec jobdomain.Spec) (jobdomain.Result, error) {
		return jobdomain.Result{Key: "k"}, nil
	})
	jobs := []*jobdomain.Job{f.insert(t, jobdomain.StatePending), f.insert(t, jobdomain.StatePending), f.insert(t, jobdomain.StatePending)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.worker.RunForever(ctx) }()

	for _, job := range jobs {
		if err := f.queue.Publish(ctx, job.ID); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for f.queue.Acked() < len(jobs) {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for jobs, acked=%d", f.queue.Acked())
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run forever: %v", err)
	}

	for _, job := range jobs {
		if got := f.reload(t, job.ID); got.State != jobdomain.StateSuccess {
			t.Fatalf("job %s ended in %s", job.ID, got.State)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{HardLimit: 10 * time.Second, SoftLimit: 20 * time.Second}.withDefaults()
	if cfg.Concurrency != 4 || cfg.SoftLimit != 8*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

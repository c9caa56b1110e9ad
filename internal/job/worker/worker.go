package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/interiohub/interio/internal/clock"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
	"github.com/interiohub/interio/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Runner executes one job pipeline.
type Runner interface {
	Run(ctx context.Context, spec jobdomain.Spec) (jobdomain.Result, error)
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    jobdomain.Repository
	Queue   jobdomain.Queue
	Runner  Runner
	Config  Config              `optional:"true"`
	Metrics *metrics.JobMetrics `optional:"true"`
}

// Worker consumes job ids with a fixed pool of goroutines.
type Worker struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    jobdomain.Repository
	queue   jobdomain.Queue
	runner  Runner
	cfg     Config
	metrics *metrics.JobMetrics
}

func NewWorker(p Params) *Worker {
	return &Worker{
		db:      p.DB,
		log:     p.Log.Named("job.worker"),
		clock:   p.Clock,
		repo:    p.Repo,
		queue:   p.Queue,
		runner:  p.Runner,
		cfg:     p.Config.withDefaults(),
		metrics: p.Metrics,
	}
}

// RunForever consumes until ctx is cancelled and in-flight jobs finish.
func (w *Worker) RunForever(ctx context.Context) error {
	deliveries, err := w.queue.Consume(ctx)
	if err != nil {
		return err
	}
	w.log.Info("job worker started", zap.Int("concurrency", w.cfg.Concurrency))

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range deliveries {
				w.Handle(d)
			}
		}()
	}
	wg.Wait()
	w.log.Info("job worker stopped")
	return nil
}

// Handle processes one delivery. Terminal jobs are acked without rerunning.
func (w *Worker) Handle(d jobdomain.Delivery) {
	ctx := context.Background()
	log := w.log.With(zap.String("job_id", d.JobID().String()))

	job, err := w.repo.FindByID(ctx, w.db, d.JobID())
	if err != nil {
		log.Error("load job failed", zap.Error(err))
		_ = d.Nack(true)
		return
	}
	if job == nil {
		log.Warn("dropping delivery for unknown job")
		_ = d.Ack()
		return
	}
	if job.State.Terminal() {
		log.Info("skipping redelivered terminal job", zap.String("state", string(job.State)))
		_ = d.Ack()
		return
	}

	now := w.clock.Now()
	if _, err := w.repo.Transition(ctx, w.db, job.ID,
		[]jobdomain.State{jobdomain.StatePending, jobdomain.StateRetry},
		jobdomain.StateReceived, map[string]any{"updated_at": now},
	); err != nil {
		log.Error("mark job received failed", zap.Error(err))
		_ = d.Nack(true)
		return
	}
	started, err := w.repo.Transition(ctx, w.db, job.ID,
		[]jobdomain.State{jobdomain.StateReceived, jobdomain.StateStarted},
		jobdomain.StateStarted,
		map[string]any{"started_at": now, "updated_at": now, "attempts": gorm.Expr("attempts + 1")},
	)
	if err != nil {
		log.Error("mark job started failed", zap.Error(err))
		_ = d.Nack(true)
		return
	}
	if !started {
		log.Info("job already claimed", zap.String("state", string(job.State)))
		_ = d.Ack()
		return
	}

	result, runErr := w.run(job.Spec(), log)
	w.finish(job, result, runErr, log)
	_ = d.Ack()
}

func (w *Worker) run(spec jobdomain.Spec, log *zap.Logger) (jobdomain.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.HardLimit)
	defer cancel()

	soft := time.AfterFunc(w.cfg.SoftLimit, func() {
		w.metrics.IncSoftLimit()
		log.Warn("job exceeded soft time limit", zap.Duration("soft_limit", w.cfg.SoftLimit))
	})
	defer soft.Stop()

	w.metrics.JobStarted()
	defer w.metrics.JobFinished()

	start := time.Now()
	result, err := w.runner.Run(ctx, spec)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = jobdomain.ErrJobTimeout
	}

	outcome := jobdomain.StatusSucceeded
	switch {
	case errors.Is(err, jobdomain.ErrJobTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = jobdomain.StatusFailed
	}
	w.metrics.ObserveJob(quality(spec.HD), outcome, time.Since(start))
	return result, err
}

func (w *Worker) finish(job *jobdomain.Job, result jobdomain.Result, runErr error, log *zap.Logger) {
	ctx := context.Background()
	now := w.clock.Now()
	fields := map[string]any{"finished_at": now, "updated_at": now}
	to := jobdomain.StateSuccess
	if runErr != nil {
		to = jobdomain.StateFailure
		fields["error"] = runErr.Error()
	} else {
		fields["result"] = datatypes.NewJSONType(result)
	}

	ok, err := w.repo.Transition(ctx, w.db, job.ID, []jobdomain.State{jobdomain.StateStarted}, to, fields)
	switch {
	case err != nil:
		log.Error("persist job outcome failed", zap.String("state", string(to)), zap.Error(err))
	case !ok:
		log.Warn("job outcome discarded, state changed concurrently", zap.String("state", string(to)))
	case runErr != nil:
		log.Warn("job failed", zap.String("style", job.StyleID), zap.Bool("hd", job.HD), zap.Error(runErr))
	default:
		log.Info("job succeeded", zap.String("style", job.StyleID), zap.String("key", result.Key))
	}
}

func quality(hd bool) string {
	if hd {
		return "hd"
	}
	return "std"
}

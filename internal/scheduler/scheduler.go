package scheduler

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	artifactdomain "github.com/interiohub/interio/internal/artifact/domain"
	"github.com/interiohub/interio/internal/clock"
	"github.com/interiohub/interio/internal/config"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const staleGrace = time.Minute

// Config bounds one sweep.
type Config struct {
	Interval            time.Duration
	StaleAfter          time.Duration
	BatchSize           int
	PurgeExpiredUploads bool
}

// ConfigFrom derives the sweep config. Jobs count as stale one minute past
// the worker hard limit unless scheduler.stale_after says otherwise.
func ConfigFrom(cfg config.Config) Config {
	out := Config{
		Interval:            cfg.Scheduler.Interval,
		StaleAfter:          cfg.Scheduler.StaleAfter,
		BatchSize:           cfg.Scheduler.BatchSize,
		PurgeExpiredUploads: cfg.Scheduler.PurgeExpiredUploads,
	}
	if out.Interval <= 0 {
		out.Interval = time.Minute
	}
	if out.BatchSize <= 0 {
		out.BatchSize = 100
	}
	if out.StaleAfter <= 0 {
		hard := cfg.Worker.HardLimit
		if hard <= 0 {
			hard = 300 * time.Second
		}
		out.StaleAfter = hard + staleGrace
	}
	return out
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  jobdomain.Repository
	Cfg   Config
}

// Scheduler runs periodic maintenance: failing jobs whose worker vanished and
// dropping expired uploads that never received a result.
type Scheduler struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  jobdomain.Repository
	cfg   Config
}

// Result counts what one sweep changed.
type Result struct {
	ReapedJobs    int
	PurgedUploads int64
}

func New(p Params) *Scheduler {
	return &Scheduler{
		db:    p.DB,
		log:   p.Log.Named("scheduler"),
		clock: p.Clock,
		repo:  p.Repo,
		cfg:   p.Cfg,
	}
}

// RunForever sweeps every interval until ctx is cancelled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("maintenance sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	reaped, err := s.ReapStaleJobs(ctx)
	if err != nil {
		return res, err
	}
	res.ReapedJobs = reaped

	if s.cfg.PurgeExpiredUploads {
		purged, err := s.PurgeExpiredUploads(ctx)
		if err != nil {
			return res, err
		}
		res.PurgedUploads = purged
	}
	if res.ReapedJobs > 0 || res.PurgedUploads > 0 {
		s.log.Info("maintenance sweep",
			zap.Int("reaped_jobs", res.ReapedJobs),
			zap.Int64("purged_uploads", res.PurgedUploads),
		)
	}
	return res, nil
}

// ReapStaleJobs fails in-flight jobs that have not moved for StaleAfter. The
// transition is guarded, so a worker that finishes concurrently wins.
func (s *Scheduler) ReapStaleJobs(ctx context.Context) (int, error) {
	now := s.clock.Now()
	inFlight := []jobdomain.State{jobdomain.StateReceived, jobdomain.StateStarted}

	var ids []snowflake.ID
	err := s.db.WithContext(ctx).
		Model(&jobdomain.Job{}).
		Where("state IN ? AND updated_at < ?", inFlight, now.Add(-s.cfg.StaleAfter)).
		Order("updated_at ASC").
		Limit(s.cfg.BatchSize).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, id := range ids {
		ok, err := s.repo.Transition(ctx, s.db, id, inFlight, jobdomain.StateFailure, map[string]any{
			"error":       jobdomain.ErrJobTimeout.Error(),
			"finished_at": now,
		})
		if err != nil {
			return reaped, err
		}
		if ok {
			reaped++
			s.log.Warn("stale job failed", zap.String("job_id", id.String()))
		}
	}
	return reaped, nil
}

// PurgeExpiredUploads deletes unlinked uploads past their retention stamp.
func (s *Scheduler) PurgeExpiredUploads(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	var ids []snowflake.ID
	err := s.db.WithContext(ctx).
		Model(&artifactdomain.Upload{}).
		Where("after_url IS NULL AND expires_at IS NOT NULL AND expires_at < ?", now).
		Order("expires_at ASC").
		Limit(s.cfg.BatchSize).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	res := s.db.WithContext(ctx).
		Where("id IN ? AND after_url IS NULL", ids).
		Delete(&artifactdomain.Upload{})
	return res.RowsAffected, res.Error
}

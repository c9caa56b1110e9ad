package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/interiohub/interio/internal/clock"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      jobdomain.Repository
	Queue     jobdomain.Queue
	Projector *Projector
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      jobdomain.Repository
	queue     jobdomain.Queue
	projector *Projector
}

func NewService(p Params) jobdomain.Service {
	projector := p.Projector
	if projector == nil {
		projector = NewProjector()
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("job.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		queue:     p.Queue,
		projector: projector,
	}
}

// Enqueue persists a PENDING job and publishes its id. A job that cannot be
// published is marked failed so it never dangles.
func (s *Service) Enqueue(ctx context.Context, spec jobdomain.Spec) (snowflake.ID, error) {
	spec.AccountID = strings.TrimSpace(spec.AccountID)
	spec.SourceRef = strings.TrimSpace(spec.SourceRef)
	spec.StyleID = strings.ToLower(strings.TrimSpace(spec.StyleID))
	if spec.AccountID == "" || spec.SourceRef == "" || spec.StyleID == "" {
		return 0, jobdomain.ErrInvalidJob
	}

	now := s.clock.Now()
	job := &jobdomain.Job{
		ID:        s.genID.Generate(),
		AccountID: spec.AccountID,
		StyleID:   spec.StyleID,
		SourceRef: spec.SourceRef,
		UploadID:  spec.UploadID,
		HD:        spec.HD,
		State:     jobdomain.StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, job); err != nil {
		return 0, err
	}

	if err := s.queue.Publish(ctx, job.ID); err != nil {
		failedAt := s.clock.Now()
		if _, markErr := s.repo.Transition(context.Background(), s.db, job.ID,
			[]jobdomain.State{jobdomain.StatePending}, jobdomain.StateFailure,
			map[string]any{"error": "enqueue failed", "finished_at": failedAt, "updated_at": failedAt},
		); markErr != nil {
			s.log.Error("failed to mark unpublished job", zap.String("job_id", job.ID.String()), zap.Error(markErr))
		}
		return 0, fmt.Errorf("publish job: %w", err)
	}

	s.log.Info("job enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("account_id", job.AccountID),
		zap.String("style", job.StyleID),
		zap.Bool("hd", job.HD),
	)
	return job.ID, nil
}

// Status returns the projection of a job owned by accountID. Jobs of other
// accounts are reported as not found.
func (s *Service) Status(ctx context.Context, accountID string, jobID snowflake.ID) (jobdomain.Projection, error) {
	accountID = strings.TrimSpace(accountID)
	if projection, ok := s.projector.cached(accountID, jobID.String()); ok {
		return projection, nil
	}

	job, err := s.repo.FindByID(ctx, s.db, jobID)
	if err != nil {
		return jobdomain.Projection{}, err
	}
	if job == nil || job.AccountID != accountID {
		return jobdomain.Projection{}, jobdomain.ErrJobNotFound
	}
	return s.projector.project(*job), nil
}

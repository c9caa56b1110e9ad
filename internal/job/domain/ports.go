package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	styledomain "github.com/interiohub/interio/internal/style/domain"
	"gorm.io/gorm"
)

// StyleResolver turns a style id into a generation directive.
type StyleResolver interface {
	Resolve(styleID string) (styledomain.Directive, error)
}

// UsageCounter records style usage; failures never fail a job.
type UsageCounter interface {
	Increment(ctx context.Context, styleID string) error
}

// ArtifactLinker writes the result onto an upload owned by the account.
type ArtifactLinker interface {
	LinkResult(ctx context.Context, accountID string, uploadID snowflake.ID, afterURL string, styleID string) error
}

// SourceFetcher loads source image bytes from a URL or storage key.
type SourceFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, string, error)
}

// Delivery is one queued job id handed to a worker.
type Delivery interface {
	JobID() snowflake.ID
	Ack() error
	Nack(requeue bool) error
}

// Queue is the at-least-once task delivery substrate.
type Queue interface {
	Publish(ctx context.Context, jobID snowflake.ID) error
	Consume(ctx context.Context) (<-chan Delivery, error)
	Close() error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, job *Job) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Job, error)
	// Transition moves a job to state only if it is currently in one of from.
	Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, from []State, to State, fields map[string]any) (bool, error)
}

// Service is the job control surface.
type Service interface {
	Enqueue(ctx context.Context, spec Spec) (snowflake.ID, error)
	Status(ctx context.Context, accountID string, jobID snowflake.ID) (Projection, error)
}

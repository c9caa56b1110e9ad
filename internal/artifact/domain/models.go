package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// DefaultRetention is how long uploads are kept before the expiry sweep.
const DefaultRetention = 30 * 24 * time.Hour

// Upload is a before/after image pair owned by one account.
type Upload struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	AccountID string       `gorm:"type:varchar(191);not null;index"`
	BeforeURL string       `gorm:"type:varchar(512);not null;index"`
	AfterURL  *string      `gorm:"type:varchar(512)"`
	Style     *string      `gorm:"type:varchar(64)"`
	CreatedAt time.Time    `gorm:"not null"`
	ExpiresAt *time.Time
}

// TableName sets the database table name.
func (Upload) TableName() string { return "uploads" }

type Service interface {
	Create(ctx context.Context, accountID string, beforeURL string) (*Upload, error)
	Get(ctx context.Context, accountID string, id snowflake.ID) (*Upload, error)
	// FindBySource returns the caller's newest upload whose before-reference
	// is one of refs.
	FindBySource(ctx context.Context, accountID string, refs ...string) (*Upload, error)
	// LinkResult sets the after-reference and style once, scoped to the owner.
	LinkResult(ctx context.Context, accountID string, id snowflake.ID, afterURL string, styleID string) error
}

var (
	ErrArtifactNotFound      = errors.New("artifact_not_found")
	ErrArtifactForbidden     = errors.New("artifact_forbidden")
	ErrArtifactAlreadyLinked = errors.New("artifact_already_linked")
	ErrInvalidBeforeURL      = errors.New("invalid_before_url")
)

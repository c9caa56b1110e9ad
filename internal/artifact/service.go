package artifact

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/interiohub/interio/internal/artifact/domain"
	"github.com/interiohub/interio/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("artifact.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Create(ctx context.Context, accountID string, beforeURL string) (*domain.Upload, error) {
	beforeURL = strings.TrimSpace(beforeURL)
	if beforeURL == "" {
		return nil, domain.ErrInvalidBeforeURL
	}
	now := s.clock.Now()
	expires := now.Add(domain.DefaultRetention)
	upload := &domain.Upload{
		ID:        s.genID.Generate(),
		AccountID: strings.TrimSpace(accountID),
		BeforeURL: beforeURL,
		CreatedAt: now,
		ExpiresAt: &expires,
	}
	if err := s.db.WithContext(ctx).Create(upload).Error; err != nil {
		return nil, err
	}
	return upload, nil
}

func (s *Service) Get(ctx context.Context, accountID string, id snowflake.ID) (*domain.Upload, error) {
	upload, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if upload.AccountID != accountID {
		return nil, domain.ErrArtifactForbidden
	}
	return upload, nil
}

func (s *Service) FindBySource(ctx context.Context, accountID string, refs ...string) (*domain.Upload, error) {
	if len(refs) == 0 {
		return nil, domain.ErrArtifactNotFound
	}
	var upload domain.Upload
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND before_url IN ?", accountID, refs).
		Order("created_at DESC").
		First(&upload).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrArtifactNotFound
	}
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

func (s *Service) LinkResult(ctx context.Context, accountID string, id snowflake.ID, afterURL string, styleID string) error {
	res := s.db.WithContext(ctx).
		Model(&domain.Upload{}).
		Where("id = ? AND account_id = ? AND after_url IS NULL", id, accountID).
		Updates(map[string]any{
			"after_url": afterURL,
			"style":     styleID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	upload, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if upload.AccountID != accountID {
		s.log.Warn("cross-account artifact link rejected",
			zap.String("upload_id", id.String()),
			zap.String("account_id", accountID),
		)
		return domain.ErrArtifactForbidden
	}
	return domain.ErrArtifactAlreadyLinked
}

func (s *Service) load(ctx context.Context, id snowflake.ID) (*domain.Upload, error) {
	var upload domain.Upload
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&upload).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrArtifactNotFound
	}
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

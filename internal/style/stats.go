package style

import (
	"context"
	"errors"

	"github.com/interiohub/interio/internal/style/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatsRepository keeps per-style usage counters.
type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Increment bumps the counter in its own short transaction.
func (r *StatsRepository) Increment(ctx context.Context, styleID string) error {
	id := normalizeID(styleID)
	if id == "" {
		return domain.ErrInvalidStyle
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "style_id"}},
			DoUpdates: clause.Assignments(map[string]any{"count": gorm.Expr("style_stats.count + 1")}),
		}).
		Create(&domain.Stat{StyleID: id, Count: 1}).Error
}

// Count returns zero for styles that were never used.
func (r *StatsRepository) Count(ctx context.Context, styleID string) (int64, error) {
	var stat domain.Stat
	err := r.db.WithContext(ctx).Where("style_id = ?", normalizeID(styleID)).First(&stat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return stat.Count, nil
}

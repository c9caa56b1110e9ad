package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() jobdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, job *jobdomain.Job) error {
	return db.WithContext(ctx).Create(job).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*jobdomain.Job, error) {
	var job jobdomain.Job
	err := db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repo) Transition(
	ctx context.Context,
	db *gorm.DB,
	id snowflake.ID,
	from []jobdomain.State,
	to jobdomain.State,
	fields map[string]any,
) (bool, error) {
	updates := map[string]any{"state": to}
	for k, v := range fields {
		updates[k] = v
	}
	res := db.WithContext(ctx).
		Model(&jobdomain.Job{}).
		Where("id = ? AND state IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

package repository

import (
	"context"
	"storefront/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommitEffectRepository interface {
	// Mark records effect as applied for orderID. It reports false when the
	// effect had already been recorded, in which case it must not be reapplied.
	Mark(ctx context.Context, tx *gorm.DB, orderID, effect string) (bool, error)
	Exists(ctx context.Context, orderID, effect string) (bool, error)
}

type commitEffectRepositoryImpl struct {
	db *gorm.DB
}

func NewCommitEffectRepository(db *gorm.DB) CommitEffectRepository {
	return &commitEffectRepositoryImpl{db: db}
}

func (r *commitEffectRepositoryImpl) Mark(ctx context.Context, tx *gorm.DB, orderID, effect string) (bool, error) {
	result := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.CommitEffect{
			OrderID:   orderID,
			Effect:    effect,
			AppliedAt: time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *commitEffectRepositoryImpl) Exists(ctx context.Context, orderID, effect string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CommitEffect{}).
		Where("order_id = ? AND effect = ?", orderID, effect).
		Count(&count).Error

	return count > 0, err
}

package repository

import (
	"context"
	"storefront/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	Get(ctx context.Context, userID string) (*model.User, error)
	AdjustCoins(ctx context.Context, tx *gorm.DB, userID string, earned, used int64) error
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepoImpl{
		db: db,
	}
}

func (r *userRepoImpl) Upsert(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"name":       user.Name,
			"email":      user.Email,
			"phone":      user.Phone,
			"updated_at": time.Now(),
		}),
	}).Create(user).Error
}

func (r *userRepoImpl) Get(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// AdjustCoins applies balance = max(0, balance + earned - used) in one statement.
func (r *userRepoImpl) AdjustCoins(ctx context.Context, tx *gorm.DB, userID string, earned, used int64) error {
	delta := earned - used
	result := tx.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"coins":          gorm.Expr("CASE WHEN coins + ? < 0 THEN 0 ELSE coins + ? END", delta, delta),
			"lifetime_coins": gorm.Expr("lifetime_coins + ?", earned),
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

package repository

import (
	"context"
	"storefront/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	Lines(ctx context.Context, userID string) ([]model.CartLine, error)
	AddItem(ctx context.Context, userID, productID string, quantity int64) error
	SetQuantity(ctx context.Context, userID, productID string, quantity int64) (bool, error)
	RemoveItem(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, tx *gorm.DB, userID string) error
	Deduct(ctx context.Context, tx *gorm.DB, userID string, items []model.OrderItem) error
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{
		db: db,
	}
}

// Lines returns the cart joined with current product data, oldest item first.
func (r *cartRepoImpl) Lines(ctx context.Context, userID string) ([]model.CartLine, error) {
	var lines []model.CartLine
	err := r.db.WithContext(ctx).
		Table("cart_items").
		Select(`cart_items.product_id AS product_id,
			products.name AS name,
			products.price AS unit_price,
			cart_items.quantity AS quantity,
			products.category AS category,
			products.image_ref AS image_ref`).
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.user_id = ?", userID).
		Order("cart_items.created_at, cart_items.product_id").
		Scan(&lines).Error

	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *cartRepoImpl) AddItem(ctx context.Context, userID, productID string, quantity int64) error {
	item := &model.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + ?", quantity),
			"updated_at": time.Now(),
		}),
	}).Create(item).Error
}

func (r *cartRepoImpl) SetQuantity(ctx context.Context, userID, productID string, quantity int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *cartRepoImpl) RemoveItem(ctx context.Context, userID, productID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.CartItem{}).Error
}

func (r *cartRepoImpl) Clear(ctx context.Context, tx *gorm.DB, userID string) error {
	return tx.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartItem{}).Error
}

// Deduct takes the ordered quantities out of the cart. Lines that reach zero
// are deleted; anything added after the order was priced stays.
func (r *cartRepoImpl) Deduct(ctx context.Context, tx *gorm.DB, userID string, items []model.OrderItem) error {
	for _, item := range items {
		err := tx.WithContext(ctx).Model(&model.CartItem{}).
			Where("user_id = ? AND product_id = ?", userID, item.ProductID).
			Updates(map[string]interface{}{
				"quantity":   gorm.Expr("quantity - ?", item.Quantity),
				"updated_at": time.Now(),
			}).Error
		if err != nil {
			return err
		}
	}

	return tx.WithContext(ctx).
		Where("user_id = ? AND quantity <= 0", userID).
		Delete(&model.CartItem{}).Error
}

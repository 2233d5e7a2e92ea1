package repository

import (
	"context"
	"storefront/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	List(ctx context.Context, category string) ([]*model.Product, error)
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	DecrementStock(ctx context.Context, tx *gorm.DB, productID string, quantity int64) error
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{ID: "tee-classic", Name: "Classic Cotton Tee", Category: "apparel", ImageRef: "/img/tee-classic.jpg", Price: decimal.RequireFromString("499.00"), Stock: 120},
		{ID: "mug-ceramic", Name: "Ceramic Mug", Category: "home", ImageRef: "/img/mug-ceramic.jpg", Price: decimal.RequireFromString("349.50"), Stock: 60},
		{ID: "earbuds-pro", Name: "Wireless Earbuds Pro", Category: "electronics", ImageRef: "/img/earbuds-pro.jpg", Price: decimal.RequireFromString("2999.00"), Stock: 25},
		{ID: "notebook-a5", Name: "A5 Dotted Notebook", Category: "stationery", ImageRef: "/img/notebook-a5.jpg", Price: decimal.RequireFromString("199.00"), Stock: 300},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) List(ctx context.Context, category string) ([]*model.Product, error) {
	var products []*model.Product
	q := r.db.WithContext(ctx).Order("name")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

// DecrementStock subtracts quantity from the product's stock, stopping at 0.
func (r *productRepoImpl) DecrementStock(ctx context.Context, tx *gorm.DB, productID string, quantity int64) error {
	return tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("CASE WHEN stock < ? THEN 0 ELSE stock - ? END", quantity, quantity)).
		Error
}

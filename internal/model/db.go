package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `gorm:"primaryKey;size:64;not null" json:"id"` // product sku
	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `json:"description"`
	Category    string          `gorm:"size:64;index" json:"category"`
	ImageRef    string          `gorm:"size:512" json:"image_ref"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"` // rupees
	Stock       int64           `gorm:"not null;default:0" json:"stock"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`
}

type User struct {
	ID            string `gorm:"primaryKey;size:64;not null"`
	Name          string `gorm:"size:128"`
	Email         string `gorm:"size:255;index"`
	Phone         string `gorm:"size:16"`
	Coins         int64  `gorm:"not null;default:0"` // never negative
	LifetimeCoins int64  `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CartItem struct {
	UserID    string `gorm:"primaryKey;size:64"`
	ProductID string `gorm:"primaryKey;size:64;index"`
	Quantity  int64  `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID               string          `gorm:"primaryKey;size:64;not null" json:"id"`
	UserID           string          `gorm:"size:64;index;not null" json:"user_id"`
	GatewayOrderID   string          `gorm:"size:64;uniqueIndex;not null" json:"gateway_order_id"`
	GatewayPaymentID string          `gorm:"size:64;index" json:"gateway_payment_id"`
	Status           OrderStatus     `gorm:"size:32;index;not null" json:"status"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Tax              decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	DiscountApplied  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_applied"`
	Total            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	TotalMinorUnits  int64           `gorm:"not null" json:"total_minor_units"`
	Currency         string          `gorm:"size:8;not null" json:"currency"`
	CoinsEarned      int64           `gorm:"not null" json:"coins_earned"`
	CoinsUsed        int64           `gorm:"not null" json:"coins_used"`
	ShippingName     string          `gorm:"size:128" json:"shipping_name"`
	ShippingPhone    string          `gorm:"size:16" json:"shipping_phone"`
	ShippingAddress  string          `gorm:"size:512" json:"shipping_address"`
	ShippingPincode  string          `gorm:"size:12" json:"shipping_pincode"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID uint `gorm:"primaryKey" json:"-"`
	// FK → orders.id
	OrderID   string          `gorm:"size:64;index;not null" json:"-"`
	ProductID string          `gorm:"size:64;index;not null" json:"product_id"`
	Name      string          `gorm:"size:255" json:"name"`
	Category  string          `gorm:"size:64" json:"category"`
	ImageRef  string          `gorm:"size:512" json:"image_ref"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	CreatedAt time.Time       `json:"-"`
}

// CommitEffect marks a post-payment side effect as applied for an order.
type CommitEffect struct {
	OrderID   string `gorm:"primaryKey;size:64;not null"`
	Effect    string `gorm:"primaryKey;size:32;not null"`
	AppliedAt time.Time
}

const (
	EffectStock = "stock"
	EffectCoins = "coins"
	EffectCart  = "cart"
)

func AllModels() []any {
	return []any{
		&Product{},
		&User{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&CommitEffect{},
	}
}

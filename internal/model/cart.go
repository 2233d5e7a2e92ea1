package model

import "github.com/shopspring/decimal"

// CartLine is a cart item joined with its product at read time.
type CartLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
	Category  string          `json:"category"`
	ImageRef  string          `json:"image_ref"`
}

type ShippingDetails struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Pincode string `json:"pincode"`
}

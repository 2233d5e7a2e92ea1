package dto

import (
	"storefront/internal/model"
	"storefront/internal/pricing"
	"storefront/internal/session"
)

type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type UpdateQuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

type PricingRequest struct {
	UseCoins   bool  `json:"use_coins"`
	CoinsToUse int64 `json:"coins_to_use"`
}

type CartResponse struct {
	Items   []model.CartLine `json:"items"`
	Pricing pricing.Result   `json:"pricing"`
	Coins   int64            `json:"available_coins"`
}

type CheckoutRequest struct {
	AttemptID  string                `json:"attempt_id"`
	Shipping   model.ShippingDetails `json:"shipping"`
	UseCoins   bool                  `json:"use_coins"`
	CoinsToUse int64                 `json:"coins_to_use"`
}

type CheckoutResponse struct {
	GatewayOrderID string          `json:"gateway_order_id"`
	Receipt        string          `json:"receipt"`
	Mode           string          `json:"mode"`
	Synthetic      bool            `json:"synthetic,omitempty"`
	Pricing        pricing.Result  `json:"pricing"`
	Options        session.Options `json:"checkout_options"`
}

// PaymentEventRequest is a payment modal callback relayed by the browser.
type PaymentEventRequest struct {
	Event string `json:"event"`
	model.PaymentVerificationRecord
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}

type OutcomeResponse struct {
	GatewayOrderID string       `json:"gateway_order_id"`
	Status         string       `json:"status"`
	Stage          string       `json:"stage,omitempty"`
	PaymentID      string       `json:"payment_id,omitempty"`
	Code           string       `json:"code,omitempty"`
	Message        string       `json:"message,omitempty"`
	Order          *model.Order `json:"order,omitempty"`
}

type VerifyResponse struct {
	Verified bool         `json:"verified"`
	Order    *model.Order `json:"order"`
}

type CoinsResponse struct {
	Balance  int64  `json:"balance"`
	Lifetime int64  `json:"lifetime"`
	Tier     string `json:"tier"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error          string `json:"error"`
	Message        string `json:"message"`
	GatewayOrderID string `json:"gateway_order_id,omitempty"`
	PaymentID      string `json:"payment_id,omitempty"`
}

package model

import "time"

// PaymentVerificationRecord is what the payment surface yields on success.
// It is consumed once by the verifier and never persisted.
type PaymentVerificationRecord struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

type RazorpayOrderRequest struct {
	Amount   int64             `json:"amount"` // minor units
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type RazorpayOrder struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type RazorpayErrorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		Reason      string `json:"reason"`
	} `json:"error"`
}

// GatewayOrder is the gateway-side reservation a checkout attempt pays against.
// Synthetic orders are fabricated locally in test mode only.
type GatewayOrder struct {
	ID               string    `json:"id"`
	AmountMinorUnits int64     `json:"amount"`
	Currency         string    `json:"currency"`
	Receipt          string    `json:"receipt"`
	Status           string    `json:"status"`
	Synthetic        bool      `json:"synthetic"`
	CreatedAt        time.Time `json:"created_at"`
}

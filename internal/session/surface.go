package session

import (
	"context"

	"storefront/internal/model"
)

type Prefill struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
}

// Options are handed to the payment collection surface when it opens.
type Options struct {
	Key         string            `json:"key"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	OrderID     string            `json:"order_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Prefill     Prefill           `json:"prefill"`
	Notes       map[string]string `json:"notes,omitempty"`
}

// Sink receives the terminal signal of an open payment surface. Only the
// first call has any effect.
type Sink interface {
	Succeed(rec model.PaymentVerificationRecord)
	Dismiss()
	Fail(code, description string)
}

// Surface is a payment collection surface: something that can load the
// gateway's collection library, open a payment modal, and later report how
// it ended through a Sink.
type Surface interface {
	// Ready blocks until the collection library is available for orderID.
	Ready(ctx context.Context, orderID string) error
	// Open shows the payment modal. It must not block waiting for the payer.
	Open(ctx context.Context, opts Options, sink Sink) error
	// Release drops any state held for orderID once the attempt resolved.
	Release(orderID string)
}

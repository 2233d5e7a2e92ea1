package service

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrProductNotFound    = errors.New("product not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidTransition  = errors.New("order status can only move pending -> shipped -> delivered")
	ErrCheckoutInProgress = errors.New("a checkout is already in progress for this user")
	ErrUnknownAttempt     = errors.New("no checkout attempt for this gateway order")

	ErrPersistOrder = errors.New("persist order")
	ErrApplyEffects = errors.New("apply post-payment effects")
)

type ErrorKind int

const (
	KindConfiguration ErrorKind = iota + 1
	KindValidation
	KindGatewayTransport
	KindUserCancelled
	KindVerificationFailure
	KindPostPaymentCommitFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindGatewayTransport:
		return "gateway_transport"
	case KindUserCancelled:
		return "user_cancelled"
	case KindVerificationFailure:
		return "verification_failure"
	case KindPostPaymentCommitFailure:
		return "post_payment_commit_failure"
	}
	return "unknown"
}

// CheckoutError is a checkout failure classified for the caller. Message is
// safe to show to the payer.
type CheckoutError struct {
	Kind           ErrorKind
	Message        string
	GatewayOrderID string
	PaymentID      string
	Err            error
}

func (e *CheckoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}

func validationError(msg string, err error) *CheckoutError {
	return &CheckoutError{Kind: KindValidation, Message: msg, Err: err}
}

// KindOf returns the kind of the first CheckoutError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}

func commitFailureMessage(paymentID string) string {
	return fmt.Sprintf("Your payment %s was received but we could not record your order. "+
		"Please contact support with this payment id; you will not be charged again.", paymentID)
}

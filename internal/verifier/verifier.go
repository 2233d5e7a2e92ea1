// Package verifier checks that a claimed payment completion was issued by
// the gateway.
package verifier

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"storefront/internal/config"
	"storefront/internal/model"
)

var ErrLiveKeyInTestMode = errors.New("test-mode verification requested with a live key configuration")

type Verifier struct {
	mode   config.PaymentMode
	secret []byte
}

// New builds a verifier whose mode is fixed by server configuration.
// The mode is never re-derived afterwards.
func New(cfg config.Razorpay, env config.Environment) (*Verifier, error) {
	mode := cfg.Mode(env)
	if mode == config.ModeProduction && cfg.KeySecret == "" {
		return nil, config.ErrMissingKeySecret
	}
	// Mode only yields ModeTest for a sandbox key outside production; this
	// guards against that rule ever being loosened.
	if mode == config.ModeTest && (env.IsProduction() || cfg.KeyID == "") {
		return nil, ErrLiveKeyInTestMode
	}
	return &Verifier{mode: mode, secret: []byte(cfg.KeySecret)}, nil
}

func (v *Verifier) Mode() config.PaymentMode {
	return v.mode
}

// Verify reports whether rec is an authentic gateway completion. In test mode
// any record with all three fields present is accepted.
func (v *Verifier) Verify(rec model.PaymentVerificationRecord) bool {
	if rec.OrderID == "" || rec.PaymentID == "" || rec.Signature == "" {
		return false
	}
	if v.mode == config.ModeTest {
		return true
	}

	// compare the encoded form so any change to the supplied text, case
	// included, is a mismatch
	expected := hex.EncodeToString(mac(v.secret, rec.OrderID, rec.PaymentID))
	return hmac.Equal([]byte(expected), []byte(rec.Signature))
}

// Sign returns the hex signature the gateway issues for an order/payment pair.
func Sign(secret, orderID, paymentID string) string {
	return hex.EncodeToString(mac([]byte(secret), orderID, paymentID))
}

func mac(secret []byte, orderID, paymentID string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(orderID + "|" + paymentID))
	return h.Sum(nil)
}

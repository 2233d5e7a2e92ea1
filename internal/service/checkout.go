package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"storefront/internal/config"
	"storefront/internal/gateway"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/session"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptPending            AttemptStatus = "pending"
	AttemptSucceeded          AttemptStatus = "succeeded"
	AttemptCancelled          AttemptStatus = "cancelled"
	AttemptFailed             AttemptStatus = "failed"
	AttemptTimedOut           AttemptStatus = "timed_out"
	AttemptVerificationFailed AttemptStatus = "verification_failed"
	AttemptCommitFailed       AttemptStatus = "commit_failed"
	AttemptCommitted          AttemptStatus = "committed"
)

const (
	msgCancelled   = "Payment was cancelled. Your details are saved, so you can try again."
	msgTimedOut    = "We did not hear back from the payment gateway. Please check your order history before paying again."
	msgUnavailable = "The payment service is temporarily unavailable. Please try again."
	msgNotVerified = "We could not verify this payment. No order was created."
)

// finished attempts are kept this long so clients can still poll them
const attemptRetention = time.Hour

// errAttemptSettled reports that a receipt belongs to an attempt that can no
// longer collect a payment.
var errAttemptSettled = errors.New("checkout attempt already settled")

var (
	phonePattern   = regexp.MustCompile(`^[0-9]{10}$`)
	pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)
)

type GatewayOrders interface {
	CreateOrder(ctx context.Context, total decimal.Decimal, currency, receipt string, notes map[string]string) (*model.GatewayOrder, error)
}

type PaymentVerifier interface {
	Mode() config.PaymentMode
	Verify(rec model.PaymentVerificationRecord) bool
}

// CheckoutLock allows one open checkout per user. The receipt identifies the
// attempt holding it.
type CheckoutLock interface {
	TryLock(ctx context.Context, userID, receipt string) (bool, error)
	Unlock(ctx context.Context, userID, receipt string) error
}

type StartRequest struct {
	// AttemptID is reused by the client when retrying the same attempt.
	AttemptID  string
	Shipping   model.ShippingDetails
	UseCoins   bool
	CoinsToUse int64
}

type StartResponse struct {
	GatewayOrderID string
	Receipt        string
	Mode           config.PaymentMode
	Synthetic      bool
	Pricing        pricing.Result
	Options        session.Options
}

type Outcome struct {
	GatewayOrderID string
	Status         AttemptStatus
	Stage          string
	PaymentID      string
	Code           string
	Message        string
	Order          *model.Order
}

type CheckoutService interface {
	Start(ctx context.Context, userID string, req StartRequest) (*StartResponse, error)
	Deliver(ctx context.Context, userID, gatewayOrderID string, ev session.Event) error
	Outcome(ctx context.Context, userID, gatewayOrderID string) (*Outcome, error)
	Verify(ctx context.Context, userID string, rec model.PaymentVerificationRecord) (*model.Order, error)
}

type checkoutAttempt struct {
	userID   string
	receipt  string
	order    *model.GatewayOrder
	lines    []model.CartLine
	pricing  pricing.Result
	shipping model.ShippingDetails

	// serializes verify+commit between the relay and the verify endpoint
	finalizeMu sync.Mutex

	mu             sync.Mutex
	status         AttemptStatus
	paymentID      string
	code           string
	message        string
	committed      *model.Order
	effectsPending bool
	rejected       *model.PaymentVerificationRecord
	finishedAt     time.Time
}

// set moves the attempt to status and reports whether it changed. A
// committed attempt is final, and a failed commit can only be retried.
func (a *checkoutAttempt) set(status AttemptStatus, code, message string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.status {
	case AttemptCommitted:
		return false
	case AttemptCommitFailed:
		if status != AttemptSucceeded && status != AttemptCommitted && status != AttemptCommitFailed {
			return false
		}
	case AttemptVerificationFailed:
		// only a genuine completion replaces a rejected one
		if status != AttemptSucceeded {
			return false
		}
	}
	a.status = status
	a.code = code
	a.message = message
	if status != AttemptPending && status != AttemptSucceeded {
		a.finishedAt = time.Now()
	}
	return true
}

// live reports whether the attempt can still collect or settle a payment.
func (a *checkoutAttempt) live() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status == AttemptPending || a.status == AttemptSucceeded
}

func (a *checkoutAttempt) snapshot() Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Outcome{
		GatewayOrderID: a.order.ID,
		Status:         a.status,
		PaymentID:      a.paymentID,
		Code:           a.code,
		Message:        a.message,
		Order:          a.committed,
	}
}

type checkoutServiceImpl struct {
	cfg        config.Razorpay
	cartRepo   repository.CartRepository
	userRepo   repository.UserRepository
	orderRepo  repository.OrderRepository
	gateway    GatewayOrders
	verifier   PaymentVerifier
	sequencer  CommitSequencer
	controller *session.Controller
	relay      *session.Relay
	lock       CheckoutLock
	log        *logrus.Entry

	mu       sync.Mutex
	attempts map[string]*checkoutAttempt
}

func NewCheckoutService(
	cfg config.Razorpay,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
	gateway GatewayOrders,
	verifier PaymentVerifier,
	sequencer CommitSequencer,
	controller *session.Controller,
	relay *session.Relay,
	lock CheckoutLock,
) CheckoutService {
	return &checkoutServiceImpl{
		cfg:        cfg,
		cartRepo:   cartRepo,
		userRepo:   userRepo,
		orderRepo:  orderRepo,
		gateway:    gateway,
		verifier:   verifier,
		sequencer:  sequencer,
		controller: controller,
		relay:      relay,
		lock:       lock,
		log:        logging.New("checkout"),
		attempts:   make(map[string]*checkoutAttempt),
	}
}

func validateShipping(s model.ShippingDetails) error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return validationError("Please enter the recipient name.", nil)
	case !phonePattern.MatchString(s.Phone):
		return validationError("Please enter a 10-digit phone number.", nil)
	case strings.TrimSpace(s.Address) == "":
		return validationError("Please enter a shipping address.", nil)
	case !pincodePattern.MatchString(s.Pincode):
		return validationError("Please enter a 6-digit pincode.", nil)
	}
	return nil
}

func (s *checkoutServiceImpl) Start(ctx context.Context, userID string, req StartRequest) (*StartResponse, error) {
	if s.cfg.KeyID == "" {
		return nil, &CheckoutError{Kind: KindConfiguration, Message: "Payments are unavailable right now.", Err: config.ErrMissingKeyID}
	}
	if err := validateShipping(req.Shipping); err != nil {
		return nil, err
	}

	lines, err := s.cartRepo.Lines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, validationError("Your cart is empty.", ErrEmptyCart)
	}

	// keep the contact details current; the coin balance is never touched here
	err = s.userRepo.Upsert(ctx, &model.User{
		ID:    userID,
		Name:  req.Shipping.Name,
		Email: req.Shipping.Email,
		Phone: req.Shipping.Phone,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	priced := pricing.Compute(lines, req.UseCoins, req.CoinsToUse, user.Coins)

	s.pruneAttempts()

	receipt := req.AttemptID
	if receipt == "" || s.settled(userID, receipt) {
		// a settled attempt is never reopened; the retry gets its own gateway order
		receipt = uuid.NewString()
	}

	resp, err := s.open(ctx, userID, receipt, lines, priced, req.Shipping)
	if errors.Is(err, errAttemptSettled) {
		resp, err = s.open(ctx, userID, uuid.NewString(), lines, priced, req.Shipping)
	}
	return resp, err
}

// open takes the checkout lock for receipt, creates the gateway order and
// starts its payment session. Retrying a receipt whose session is still
// running returns that session.
func (s *checkoutServiceImpl) open(ctx context.Context, userID, receipt string, lines []model.CartLine, priced pricing.Result, shipping model.ShippingDetails) (*StartResponse, error) {
	locked, err := s.lock.TryLock(ctx, userID, receipt)
	if err != nil {
		return nil, fmt.Errorf("acquire checkout lock: %w", err)
	}
	if !locked {
		return nil, ErrCheckoutInProgress
	}

	gwOrder, err := s.gateway.CreateOrder(ctx, priced.Total, s.cfg.Currency, receipt, map[string]string{
		"user_id": userID,
		"receipt": receipt,
	})
	if err != nil {
		s.unlock(userID, receipt)
		switch {
		case errors.Is(err, gateway.ErrNonPositiveAmount):
			return nil, validationError("The order total must be greater than zero.", err)
		case errors.Is(err, gateway.ErrInvalidCurrency), errors.Is(err, gateway.ErrMissingReceipt):
			return nil, validationError("The order could not be prepared for payment.", err)
		}
		s.log.WithError(err).WithField("receipt", receipt).Error("gateway order creation failed")
		return nil, &CheckoutError{Kind: KindGatewayTransport, Message: msgUnavailable, Err: err}
	}

	// the attempt may be gone from memory while its order is already stored
	if !s.tracked(gwOrder.ID) && s.stored(ctx, gwOrder.ID) {
		s.unlock(userID, receipt)
		return nil, errAttemptSettled
	}

	opts := session.Options{
		Key:         s.cfg.KeyID,
		Amount:      gwOrder.AmountMinorUnits,
		Currency:    gwOrder.Currency,
		OrderID:     gwOrder.ID,
		Name:        s.cfg.MerchantName,
		Description: fmt.Sprintf("Order of %d item(s)", len(lines)),
		Prefill: session.Prefill{
			Name:    shipping.Name,
			Contact: shipping.Phone,
			Email:   shipping.Email,
		},
		Notes: map[string]string{
			"receipt": receipt,
			"address": shipping.Address,
			"pincode": shipping.Pincode,
		},
	}
	resp := &StartResponse{
		GatewayOrderID: gwOrder.ID,
		Receipt:        receipt,
		Mode:           s.verifier.Mode(),
		Synthetic:      gwOrder.Synthetic,
		Pricing:        priced,
		Options:        opts,
	}

	att, fresh := s.track(&checkoutAttempt{
		userID:   userID,
		receipt:  receipt,
		order:    gwOrder,
		lines:    lines,
		pricing:  priced,
		shipping: shipping,
		status:   AttemptPending,
	})
	if !fresh {
		if att.userID != userID || !att.live() {
			s.unlock(userID, receipt)
			return nil, errAttemptSettled
		}
		// same receipt retried: the attempt is already running
		resp.Pricing = att.pricing
		return resp, nil
	}

	s.relay.Register(gwOrder.ID)
	go s.run(context.WithoutCancel(ctx), att, opts)

	s.log.WithFields(logrus.Fields{
		"user_id":          userID,
		"gateway_order_id": gwOrder.ID,
		"amount":           gwOrder.AmountMinorUnits,
		"synthetic":        gwOrder.Synthetic,
	}).Info("checkout started")
	return resp, nil
}

func (s *checkoutServiceImpl) track(att *checkoutAttempt) (*checkoutAttempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.attempts[att.order.ID]; ok {
		return existing, false
	}
	s.attempts[att.order.ID] = att
	return att, true
}

func (s *checkoutServiceImpl) tracked(gatewayOrderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.attempts[gatewayOrderID]
	return ok
}

// settled reports whether receipt names an attempt this user cannot resume.
func (s *checkoutServiceImpl) settled(userID, receipt string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, att := range s.attempts {
		if att.receipt == receipt {
			return att.userID != userID || !att.live()
		}
	}
	return false
}

func (s *checkoutServiceImpl) stored(ctx context.Context, gatewayOrderID string) bool {
	_, err := s.orderRepo.FindByGatewayOrderID(ctx, nil, gatewayOrderID)
	return err == nil
}

func (s *checkoutServiceImpl) attempt(userID, gatewayOrderID string) (*checkoutAttempt, bool) {
	s.mu.Lock()
	att, ok := s.attempts[gatewayOrderID]
	s.mu.Unlock()
	if !ok || att.userID != userID {
		return nil, false
	}
	return att, true
}

func (s *checkoutServiceImpl) pruneAttempts() {
	cutoff := time.Now().Add(-attemptRetention)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, att := range s.attempts {
		att.mu.Lock()
		expired := !att.finishedAt.IsZero() && att.finishedAt.Before(cutoff)
		att.mu.Unlock()
		if expired {
			delete(s.attempts, id)
		}
	}
}

func (s *checkoutServiceImpl) unlock(userID, receipt string) {
	if err := s.lock.Unlock(context.Background(), userID, receipt); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("release checkout lock failed")
	}
}

// run drives the payment session and settles the attempt. The checkout
// lock is released before the outcome becomes visible.
func (s *checkoutServiceImpl) run(ctx context.Context, att *checkoutAttempt, opts session.Options) {
	res, err := s.controller.Run(ctx, att.order.ID, opts)
	if err == nil && res.State == session.Succeeded {
		// errors are recorded on the attempt
		_, _ = s.finalize(ctx, att, *res.Record)
		s.unlock(att.userID, att.receipt)
		return
	}
	s.unlock(att.userID, att.receipt)

	var changed bool
	switch {
	case err != nil:
		s.log.WithError(err).WithField("gateway_order_id", att.order.ID).Warn("payment session not started")
		changed = att.set(AttemptFailed, "", msgUnavailable)
	case res.State == session.Cancelled:
		changed = att.set(AttemptCancelled, "", msgCancelled)
	case res.State == session.TimedOut:
		changed = att.set(AttemptTimedOut, "", msgTimedOut)
	case res.Code == session.ReasonSDKUnavailable, res.Code == session.ReasonOpenFailed:
		changed = att.set(AttemptFailed, res.Code, msgUnavailable)
	default:
		msg := "Payment failed."
		if res.Description != "" {
			msg = "Payment failed: " + res.Description
		}
		changed = att.set(AttemptFailed, res.Code, msg)
	}
	if changed {
		s.record(att)
	}
}

func (s *checkoutServiceImpl) record(att *checkoutAttempt) {
	att.mu.Lock()
	status := att.status
	att.mu.Unlock()
	metrics.CheckoutOutcomes.WithLabelValues(string(status)).Inc()
}

// finalize verifies rec against the attempt and commits the order. It is
// safe to call repeatedly; a committed attempt returns its order.
func (s *checkoutServiceImpl) finalize(ctx context.Context, att *checkoutAttempt, rec model.PaymentVerificationRecord) (*model.Order, error) {
	att.finalizeMu.Lock()
	defer att.finalizeMu.Unlock()

	att.mu.Lock()
	committed, pending, rejected := att.committed, att.effectsPending, att.rejected
	att.mu.Unlock()
	if committed != nil && !pending {
		return committed, nil
	}

	log := s.log.WithFields(logrus.Fields{
		"user_id":          att.userID,
		"gateway_order_id": att.order.ID,
		"payment_id":       rec.PaymentID,
	})

	if committed == nil {
		if rejected != nil && *rejected == rec {
			return nil, &CheckoutError{Kind: KindVerificationFailure, Message: msgNotVerified, GatewayOrderID: att.order.ID, PaymentID: rec.PaymentID}
		}
		if !s.authentic(att, rec) {
			log.WithField("security_event", "signature_mismatch").Error("payment verification failed")
			metrics.VerificationFailures.Inc()
			att.mu.Lock()
			att.rejected = &rec
			att.mu.Unlock()
			att.set(AttemptVerificationFailed, "", msgNotVerified)
			s.record(att)
			return nil, &CheckoutError{Kind: KindVerificationFailure, Message: msgNotVerified, GatewayOrderID: att.order.ID, PaymentID: rec.PaymentID}
		}
		att.mu.Lock()
		att.paymentID = rec.PaymentID
		att.mu.Unlock()
		att.set(AttemptSucceeded, "", "Payment received. Confirming your order.")
	}

	order, err := s.sequencer.Commit(ctx, CommitInput{
		UserID:           att.userID,
		GatewayOrderID:   att.order.ID,
		GatewayPaymentID: rec.PaymentID,
		Lines:            att.lines,
		Pricing:          att.pricing,
		Shipping:         att.shipping,
		Currency:         att.order.Currency,
	})
	if errors.Is(err, ErrPersistOrder) {
		log.WithError(err).Error("payment captured but order could not be persisted; manual reconciliation required")
		msg := commitFailureMessage(rec.PaymentID)
		att.set(AttemptCommitFailed, "", msg)
		s.record(att)
		return nil, &CheckoutError{
			Kind:           KindPostPaymentCommitFailure,
			Message:        msg,
			GatewayOrderID: att.order.ID,
			PaymentID:      rec.PaymentID,
			Err:            err,
		}
	}

	att.mu.Lock()
	att.committed = order
	att.effectsPending = err != nil
	att.mu.Unlock()
	if err != nil {
		// the order exists; the remaining effects resume on the next verify
		log.WithError(err).Error("order stored but post-payment effects are incomplete")
	}
	if committed == nil {
		s.unlock(att.userID, att.receipt)
		att.set(AttemptCommitted, "", "Order placed.")
		s.record(att)
	}
	return order, nil
}

// authentic checks the record belongs to this attempt and carries a valid
// gateway signature. Locally fabricated orders only verify in test mode.
func (s *checkoutServiceImpl) authentic(att *checkoutAttempt, rec model.PaymentVerificationRecord) bool {
	if rec.OrderID != att.order.ID {
		return false
	}
	if att.order.Synthetic && s.verifier.Mode() != config.ModeTest {
		return false
	}
	return s.verifier.Verify(rec)
}

func (s *checkoutServiceImpl) Deliver(ctx context.Context, userID, gatewayOrderID string, ev session.Event) error {
	if _, ok := s.attempt(userID, gatewayOrderID); !ok {
		return ErrUnknownAttempt
	}
	return s.relay.Deliver(gatewayOrderID, ev)
}

func (s *checkoutServiceImpl) Outcome(ctx context.Context, userID, gatewayOrderID string) (*Outcome, error) {
	att, ok := s.attempt(userID, gatewayOrderID)
	if !ok {
		order, err := s.committedOrder(ctx, userID, gatewayOrderID)
		if err != nil {
			return nil, err
		}
		return &Outcome{
			GatewayOrderID: gatewayOrderID,
			Status:         AttemptCommitted,
			PaymentID:      order.GatewayPaymentID,
			Order:          order,
		}, nil
	}

	out := att.snapshot()
	if out.Status == AttemptPending {
		if stage, ok := s.controller.State(gatewayOrderID); ok {
			out.Stage = stage.String()
		}
	}
	return &out, nil
}

// Verify handles a completion reported directly by the client. An authentic
// record also resolves the running payment session so the attempt settles
// once.
func (s *checkoutServiceImpl) Verify(ctx context.Context, userID string, rec model.PaymentVerificationRecord) (*model.Order, error) {
	if rec.OrderID == "" || rec.PaymentID == "" || rec.Signature == "" {
		metrics.VerificationFailures.Inc()
		return nil, &CheckoutError{Kind: KindVerificationFailure, Message: msgNotVerified, GatewayOrderID: rec.OrderID, PaymentID: rec.PaymentID}
	}

	att, ok := s.attempt(userID, rec.OrderID)
	if !ok {
		return s.resume(ctx, userID, rec)
	}

	if s.authentic(att, rec) {
		if err := s.relay.Deliver(rec.OrderID, session.Event{Kind: session.EventSuccess, Record: rec}); err != nil &&
			!errors.Is(err, session.ErrUnknownSession) {
			s.log.WithError(err).WithField("gateway_order_id", rec.OrderID).Debug("payment session not notified")
		}
	}
	return s.finalize(ctx, att, rec)
}

// resume serves a completion whose attempt is no longer in memory. Only an
// order already stored for the same payment qualifies, and any effects it
// is still missing are applied.
func (s *checkoutServiceImpl) resume(ctx context.Context, userID string, rec model.PaymentVerificationRecord) (*model.Order, error) {
	order, err := s.committedOrder(ctx, userID, rec.OrderID)
	if err != nil {
		return nil, err
	}
	if order.GatewayPaymentID != rec.PaymentID || !s.verifier.Verify(rec) {
		s.log.WithFields(logrus.Fields{
			"user_id":          userID,
			"gateway_order_id": rec.OrderID,
			"payment_id":       rec.PaymentID,
			"security_event":   "signature_mismatch",
		}).Error("payment verification failed")
		metrics.VerificationFailures.Inc()
		return nil, &CheckoutError{Kind: KindVerificationFailure, Message: msgNotVerified, GatewayOrderID: rec.OrderID, PaymentID: rec.PaymentID}
	}

	resumed, err := s.sequencer.Commit(ctx, CommitInput{
		UserID:           order.UserID,
		GatewayOrderID:   order.GatewayOrderID,
		GatewayPaymentID: order.GatewayPaymentID,
		Currency:         order.Currency,
	})
	switch {
	case errors.Is(err, ErrPersistOrder):
		return nil, fmt.Errorf("reload order %s: %w", order.ID, err)
	case err != nil:
		s.log.WithError(err).WithField("gateway_order_id", rec.OrderID).Error("order stored but post-payment effects are incomplete")
	}
	return resumed, nil
}

func (s *checkoutServiceImpl) committedOrder(ctx context.Context, userID, gatewayOrderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByGatewayOrderID(ctx, nil, gatewayOrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownAttempt
	}
	if err != nil {
		return nil, fmt.Errorf("find order by gateway id: %w", err)
	}
	if order.UserID != userID {
		return nil, ErrUnknownAttempt
	}
	return order, nil
}

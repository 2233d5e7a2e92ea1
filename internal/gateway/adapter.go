// Package gateway creates the gateway-side order a checkout attempt pays against.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"storefront/internal/client"
	"storefront/internal/config"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrNonPositiveAmount = errors.New("order amount must be positive")
	ErrInvalidCurrency   = errors.New("currency must be a 3-letter code")
	ErrMissingReceipt    = errors.New("receipt is required")

	ErrOrderCreation = errors.New("gateway order creation failed")
)

// SyntheticPrefix marks locally fabricated development orders.
const SyntheticPrefix = "order_dev_"

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

type ReceiptStore interface {
	Recall(ctx context.Context, receipt string) (*model.GatewayOrder, bool, error)
	Remember(ctx context.Context, order *model.GatewayOrder) error
}

type Adapter struct {
	client   client.RazorpayClient
	receipts ReceiptStore
	mode     config.PaymentMode
	log      *logrus.Entry
	now      func() time.Time
}

func NewAdapter(c client.RazorpayClient, receipts ReceiptStore, mode config.PaymentMode) *Adapter {
	return &Adapter{
		client:   c,
		receipts: receipts,
		mode:     mode,
		log:      logging.New("gateway"),
		now:      time.Now,
	}
}

// ToMinorUnits converts rupees to paise, rounding half away from zero.
func ToMinorUnits(total decimal.Decimal) int64 {
	return total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CreateOrder reserves total with the gateway. Calls repeated with the same
// receipt return the order created by the first successful call.
func (a *Adapter) CreateOrder(ctx context.Context, total decimal.Decimal, currency, receipt string, notes map[string]string) (*model.GatewayOrder, error) {
	amount := ToMinorUnits(total)
	if amount <= 0 {
		return nil, ErrNonPositiveAmount
	}
	if !currencyPattern.MatchString(currency) {
		return nil, ErrInvalidCurrency
	}
	if receipt == "" {
		return nil, ErrMissingReceipt
	}

	if prev, ok, err := a.receipts.Recall(ctx, receipt); err != nil {
		a.log.WithError(err).WithField("receipt", receipt).Warn("receipt recall failed")
	} else if ok {
		if prev.AmountMinorUnits == amount && prev.Currency == currency {
			return prev, nil
		}
		return nil, fmt.Errorf("receipt %s already used for a different amount", receipt)
	}

	resp, err := a.client.CreateOrder(ctx, &model.RazorpayOrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		metrics.GatewayOrders.WithLabelValues("error").Inc()
		if a.mode != config.ModeTest {
			return nil, fmt.Errorf("%w: %w", ErrOrderCreation, err)
		}
		a.log.WithError(err).WithField("receipt", receipt).Warn("gateway unreachable, fabricating development order")
		return a.remember(ctx, a.synthetic(amount, currency, receipt))
	}
	metrics.GatewayOrders.WithLabelValues("created").Inc()

	return a.remember(ctx, &model.GatewayOrder{
		ID:               resp.ID,
		AmountMinorUnits: resp.Amount,
		Currency:         resp.Currency,
		Receipt:          receipt,
		Status:           resp.Status,
		CreatedAt:        a.now(),
	})
}

func (a *Adapter) synthetic(amount int64, currency, receipt string) *model.GatewayOrder {
	return &model.GatewayOrder{
		ID:               SyntheticPrefix + uuid.NewString(),
		AmountMinorUnits: amount,
		Currency:         currency,
		Receipt:          receipt,
		Status:           "created",
		Synthetic:        true,
		CreatedAt:        a.now(),
	}
}

func (a *Adapter) remember(ctx context.Context, order *model.GatewayOrder) (*model.GatewayOrder, error) {
	if err := a.receipts.Remember(ctx, order); err != nil {
		a.log.WithError(err).WithField("gateway_order_id", order.ID).Warn("receipt remember failed")
	}
	return order, nil
}

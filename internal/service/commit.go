package service

import (
	"context"
	"errors"
	"fmt"
	"storefront/internal/gateway"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/reward"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CommitInput struct {
	UserID           string
	GatewayOrderID   string
	GatewayPaymentID string
	Lines            []model.CartLine
	Pricing          pricing.Result
	Shipping         model.ShippingDetails
	Currency         string
}

// CommitSequencer applies the durable effects of a verified payment.
type CommitSequencer interface {
	// Commit persists the order and then applies stock, coin and cart effects.
	// Only the ordered lines leave the cart.
	// If persisting fails nothing else runs and the error wraps ErrPersistOrder.
	// If a later effect fails the order is returned together with an error
	// wrapping ErrApplyEffects; calling Commit again with the same gateway
	// order id resumes without reapplying finished effects.
	Commit(ctx context.Context, in CommitInput) (*model.Order, error)
}

type commitSequencerImpl struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	cartRepo    repository.CartRepository
	effectRepo  repository.CommitEffectRepository
	log         *logrus.Entry
}

func NewCommitSequencer(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	cartRepo repository.CartRepository,
	effectRepo repository.CommitEffectRepository,
) CommitSequencer {
	return &commitSequencerImpl{
		db:          db,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		cartRepo:    cartRepo,
		effectRepo:  effectRepo,
		log:         logging.New("commit"),
	}
}

func (s *commitSequencerImpl) Commit(ctx context.Context, in CommitInput) (*model.Order, error) {
	order, err := s.persist(ctx, in)
	if err != nil {
		metrics.CommitFailures.WithLabelValues("order").Inc()
		return nil, fmt.Errorf("%w: %w", ErrPersistOrder, err)
	}

	log := s.log.WithFields(logrus.Fields{
		"order_id":         order.ID,
		"gateway_order_id": order.GatewayOrderID,
	})

	steps := []struct {
		effect string
		apply  func(tx *gorm.DB) error
	}{
		{model.EffectStock, func(tx *gorm.DB) error {
			for _, item := range order.Items {
				if err := s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return fmt.Errorf("decrement stock of %s: %w", item.ProductID, err)
				}
			}
			return nil
		}},
		{model.EffectCoins, func(tx *gorm.DB) error {
			return s.userRepo.AdjustCoins(ctx, tx, order.UserID, order.CoinsEarned, order.CoinsUsed)
		}},
		{model.EffectCart, func(tx *gorm.DB) error {
			return s.cartRepo.Deduct(ctx, tx, order.UserID, order.Items)
		}},
	}

	for _, step := range steps {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			first, err := s.effectRepo.Mark(ctx, tx, order.ID, step.effect)
			if err != nil {
				return fmt.Errorf("mark effect: %w", err)
			}
			if !first {
				return nil
			}
			return step.apply(tx)
		})
		if err != nil {
			metrics.CommitFailures.WithLabelValues(step.effect).Inc()
			log.WithError(err).WithField("effect", step.effect).Error("post-payment effect failed")
			return order, fmt.Errorf("%w: %s: %w", ErrApplyEffects, step.effect, err)
		}
	}

	log.WithField("total", order.Total.StringFixed(2)).Info("order committed")
	return order, nil
}

// persist returns the order for in.GatewayOrderID, creating it on first call.
func (s *commitSequencerImpl) persist(ctx context.Context, in CommitInput) (*model.Order, error) {
	existing, err := s.orderRepo.FindByGatewayOrderID(ctx, s.db, in.GatewayOrderID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find order by gateway id: %w", err)
	}

	order := newOrder(in)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.Create(ctx, tx, order)
	})
	if err != nil {
		// a concurrent commit for the same payment may have won the insert
		if existing, findErr := s.orderRepo.FindByGatewayOrderID(ctx, s.db, in.GatewayOrderID); findErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("store order in db: %w", err)
	}
	return order, nil
}

func newOrder(in CommitInput) *model.Order {
	orderID := uuid.NewString()
	items := make([]model.OrderItem, len(in.Lines))
	for i, line := range in.Lines {
		items[i] = model.OrderItem{
			OrderID:   orderID,
			ProductID: line.ProductID,
			Name:      line.Name,
			Category:  line.Category,
			ImageRef:  line.ImageRef,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		}
	}

	return &model.Order{
		ID:               orderID,
		UserID:           in.UserID,
		GatewayOrderID:   in.GatewayOrderID,
		GatewayPaymentID: in.GatewayPaymentID,
		Status:           model.OrderStatusPending,
		Subtotal:         in.Pricing.Subtotal,
		Tax:              in.Pricing.Tax,
		DiscountApplied:  in.Pricing.CoinDiscount,
		Total:            in.Pricing.Total,
		TotalMinorUnits:  gateway.ToMinorUnits(in.Pricing.Total),
		Currency:         in.Currency,
		CoinsEarned:      reward.CoinsEarned(in.Pricing.Total),
		CoinsUsed:        in.Pricing.CoinsUsed,
		ShippingName:     in.Shipping.Name,
		ShippingPhone:    in.Shipping.Phone,
		ShippingAddress:  in.Shipping.Address,
		ShippingPincode:  in.Shipping.Pincode,
		Items:            items,
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"storefront/internal/logging"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type OrderService interface {
	List(ctx context.Context, userID string) ([]*model.Order, error)
	Get(ctx context.Context, userID, orderID string) (*model.Order, error)
	ListAll(ctx context.Context, status model.OrderStatus, limit int) ([]*model.Order, error)
	AdvanceStatus(ctx context.Context, orderID string, to model.OrderStatus) (*model.Order, error)
}

type orderServiceImpl struct {
	orderRepo repository.OrderRepository
	log       *logrus.Entry
}

func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderServiceImpl{
		orderRepo: orderRepo,
		log:       logging.New("orders"),
	}
}

func (s *orderServiceImpl) List(ctx context.Context, userID string) ([]*model.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

func (s *orderServiceImpl) Get(ctx context.Context, userID, orderID string) (*model.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderServiceImpl) ListAll(ctx context.Context, status model.OrderStatus, limit int) ([]*model.Order, error) {
	return s.orderRepo.ListAll(ctx, status, limit)
}

// AdvanceStatus performs a fulfillment transition. Only the next status in
// pending -> shipped -> delivered is accepted.
func (s *orderServiceImpl) AdvanceStatus(ctx context.Context, orderID string, to model.OrderStatus) (*model.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransitionTo(order.Status, to) {
		return nil, ErrInvalidTransition
	}

	moved, err := s.orderRepo.UpdateStatusIf(ctx, orderID, order.Status, to)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if !moved {
		// changed concurrently
		return nil, ErrInvalidTransition
	}

	s.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     order.Status,
		"to":       to,
	}).Info("order status advanced")
	return s.find(ctx, orderID)
}

func (s *orderServiceImpl) find(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"storefront/internal/model"
	"storefront/internal/pricing"
	"storefront/internal/repository"

	"gorm.io/gorm"
)

type CartView struct {
	Lines   []model.CartLine
	Pricing pricing.Result
	Coins   int64
}

type CartService interface {
	Get(ctx context.Context, userID string) (*CartView, error)
	Price(ctx context.Context, userID string, useCoins bool, coinsToUse int64) (*CartView, error)
	AddItem(ctx context.Context, userID, productID string, quantity int64) error
	SetQuantity(ctx context.Context, userID, productID string, quantity int64) error
	RemoveItem(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

type cartServiceImpl struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
}

func NewCartService(
	db *gorm.DB,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
) CartService {
	return &cartServiceImpl{
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

func (s *cartServiceImpl) Get(ctx context.Context, userID string) (*CartView, error) {
	return s.Price(ctx, userID, false, 0)
}

// Price recomputes the cart total for a coin redemption choice.
func (s *cartServiceImpl) Price(ctx context.Context, userID string, useCoins bool, coinsToUse int64) (*CartView, error) {
	lines, err := s.cartRepo.Lines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	balance, err := s.balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &CartView{
		Lines:   lines,
		Pricing: pricing.Compute(lines, useCoins, coinsToUse, balance),
		Coins:   balance,
	}, nil
}

func (s *cartServiceImpl) balance(ctx context.Context, userID string) (int64, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get user: %w", err)
	}
	return user.Coins, nil
}

func (s *cartServiceImpl) AddItem(ctx context.Context, userID, productID string, quantity int64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("find product: %w", err)
	}
	return s.cartRepo.AddItem(ctx, userID, productID, quantity)
}

// SetQuantity replaces the quantity of a line; zero removes it.
func (s *cartServiceImpl) SetQuantity(ctx context.Context, userID, productID string, quantity int64) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.cartRepo.RemoveItem(ctx, userID, productID)
	}

	updated, err := s.cartRepo.SetQuantity(ctx, userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if !updated {
		return ErrProductNotFound
	}
	return nil
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID, productID string) error {
	return s.cartRepo.RemoveItem(ctx, userID, productID)
}

func (s *cartServiceImpl) Clear(ctx context.Context, userID string) error {
	return s.cartRepo.Clear(ctx, s.db, userID)
}

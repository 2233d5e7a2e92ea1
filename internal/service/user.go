package service

import (
	"context"
	"errors"
	"storefront/internal/repository"
	"storefront/internal/reward"

	"gorm.io/gorm"
)

type CoinSummary struct {
	Balance  int64
	Lifetime int64
	Tier     reward.Tier
}

type UserService interface {
	Coins(ctx context.Context, userID string) (*CoinSummary, error)
}

type userServiceImpl struct {
	userRepo repository.UserRepository
}

func NewUserService(
	userRepo repository.UserRepository,
) UserService {
	return &userServiceImpl{
		userRepo: userRepo,
	}
}

func (s *userServiceImpl) Coins(ctx context.Context, userID string) (*CoinSummary, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &CoinSummary{Tier: reward.TierFor(0)}, nil
	}
	if err != nil {
		return nil, err
	}

	return &CoinSummary{
		Balance:  user.Coins,
		Lifetime: user.LifetimeCoins,
		Tier:     reward.TierFor(user.LifetimeCoins),
	}, nil
}

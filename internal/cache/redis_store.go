package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisReceiptStore remembers which gateway order a receipt produced, so a
// retried creation with the same receipt returns the same order.
type RedisReceiptStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisReceiptStore(rdb *redis.Client, ttl time.Duration) *RedisReceiptStore {
	return &RedisReceiptStore{rdb: rdb, ttl: ttl}
}

func receiptKey(receipt string) string {
	return "receipt:" + receipt
}

func (s *RedisReceiptStore) Recall(ctx context.Context, receipt string) (*model.GatewayOrder, bool, error) {
	data, err := s.rdb.Get(ctx, receiptKey(receipt)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var order model.GatewayOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, false, fmt.Errorf("unmarshal gateway order failed: %w", err)
	}
	return &order, true, nil
}

func (s *RedisReceiptStore) Remember(ctx context.Context, order *model.GatewayOrder) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal gateway order failed: %w", err)
	}
	if err := s.rdb.Set(ctx, receiptKey(order.Receipt), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// RedisCheckoutLock allows one checkout attempt per user at a time. The lock
// value is the attempt receipt, so the same attempt may re-acquire it.
type RedisCheckoutLock struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCheckoutLock(rdb *redis.Client, ttl time.Duration) *RedisCheckoutLock {
	return &RedisCheckoutLock{rdb: rdb, ttl: ttl}
}

func lockKey(userID string) string {
	return "checkout-lock:" + userID
}

func (l *RedisCheckoutLock) TryLock(ctx context.Context, userID, receipt string) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, lockKey(userID), receipt, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	if ok {
		return true, nil
	}

	holder, err := l.rdb.Get(ctx, lockKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return l.rdb.SetNX(ctx, lockKey(userID), receipt, l.ttl).Result()
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	return holder == receipt, nil
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *RedisCheckoutLock) Unlock(ctx context.Context, userID, receipt string) error {
	if err := unlockScript.Run(ctx, l.rdb, []string{lockKey(userID)}, receipt).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis unlock failed: %w", err)
	}
	return nil
}

package cache

import (
	"context"
	"sync"
	"time"

	"storefront/internal/model"
)

// MemoryReceiptStore is the single-process receipt store used when Redis is
// not configured.
type MemoryReceiptStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]receiptEntry
}

type receiptEntry struct {
	order     model.GatewayOrder
	expiresAt time.Time
}

func NewMemoryReceiptStore(ttl time.Duration) *MemoryReceiptStore {
	return &MemoryReceiptStore{ttl: ttl, entries: make(map[string]receiptEntry)}
}

func (s *MemoryReceiptStore) Recall(_ context.Context, receipt string) (*model.GatewayOrder, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[receipt]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false, nil
	}
	order := e.order
	return &order, true, nil
}

func (s *MemoryReceiptStore) Remember(_ context.Context, order *model.GatewayOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[order.Receipt] = receiptEntry{order: *order, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

type MemoryCheckoutLock struct {
	mu    sync.Mutex
	ttl   time.Duration
	locks map[string]lockEntry
}

type lockEntry struct {
	receipt   string
	expiresAt time.Time
}

func NewMemoryCheckoutLock(ttl time.Duration) *MemoryCheckoutLock {
	return &MemoryCheckoutLock{ttl: ttl, locks: make(map[string]lockEntry)}
}

func (l *MemoryCheckoutLock) TryLock(_ context.Context, userID, receipt string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.locks[userID]; ok && time.Now().Before(e.expiresAt) && e.receipt != receipt {
		return false, nil
	}
	l.locks[userID] = lockEntry{receipt: receipt, expiresAt: time.Now().Add(l.ttl)}
	return true, nil
}

func (l *MemoryCheckoutLock) Unlock(_ context.Context, userID, receipt string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.locks[userID]; ok && e.receipt == receipt {
		delete(l.locks, userID)
	}
	return nil
}

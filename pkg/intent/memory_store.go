package intent

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.Mutex
	intents map[string]*PaymentIntent
}

// NewMemoryStore returns an in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{intents: make(map[string]*PaymentIntent)}
}

func (s *memoryStore) Create(ctx context.Context, pi *PaymentIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.intents[pi.TransactionID]; exists {
		return ErrAlreadyExists
	}

	cp := *pi
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	if cp.Status == "" {
		cp.Status = StatusPending
	}
	s.intents[cp.TransactionID] = &cp
	return nil
}

func (s *memoryStore) Get(ctx context.Context, transactionID string) (*PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pi, ok := s.intents[transactionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *pi
	return &cp, nil
}

func (s *memoryStore) SetStatus(ctx context.Context, transactionID string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pi, ok := s.intents[transactionID]
	if !ok {
		return ErrNotFound
	}
	pi.Status = status
	pi.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.intents, transactionID)
	return nil
}

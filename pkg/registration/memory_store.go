package registration

import (
	"context"
	"sync"
	"time"

	"github.com/launderly/launderly/pkg/otp"
)

type memoryStore struct {
	mu      sync.Mutex
	records map[string]*PendingRegistration
	ttl     time.Duration
	now     func() time.Time
}

// MemoryOption configures the in-memory store.
type MemoryOption func(*memoryStore)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *memoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *memoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore returns an in-memory Store. Expiry is enforced lazily on
// every access, so expired records behave as not-found immediately even
// though they are physically removed later by PurgeExpired.
func NewMemoryStore(opts ...MemoryOption) Store {
	s := &memoryStore{
		records: make(map[string]*PendingRegistration),
		ttl:     DefaultTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *memoryStore) Create(ctx context.Context, email string, payload Payload) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", ErrInvalidEmail
	}

	code, err := otp.Generate(otp.DefaultDigits)
	if err != nil {
		return "", err
	}

	now := s.now()
	rec := &PendingRegistration{
		Email:     email,
		CodeHash:  otp.Hash(code),
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.records[email] = rec // supersedes any prior record for this email
	s.mu.Unlock()

	return code, nil
}

func (s *memoryStore) Verify(ctx context.Context, email, code string) (*PendingRegistration, error) {
	rec, err := s.live(email)
	if err != nil {
		return nil, err
	}
	if !otp.Verify(rec.CodeHash, code) {
		return nil, ErrInvalidCode
	}
	cp := *rec
	return &cp, nil
}

func (s *memoryStore) AttachTransaction(ctx context.Context, email, transactionID string) error {
	email = NormalizeEmail(email)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[email]
	if !ok || rec.Expired(now) {
		return ErrNotFound
	}
	rec.TransactionID = transactionID
	return nil
}

func (s *memoryStore) FindByTransaction(ctx context.Context, transactionID string) (*PendingRegistration, error) {
	if transactionID == "" {
		return nil, ErrNotFound
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.TransactionID == transactionID && !rec.Expired(now) {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryStore) Delete(ctx context.Context, email string) (bool, error) {
	email = NormalizeEmail(email)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[email]
	if !ok {
		return false, nil
	}
	delete(s.records, email)
	if rec.Expired(now) {
		return false, nil
	}
	return true, nil
}

// PurgeExpired removes physically expired records and returns how many were
// dropped. Safe to call from a background ticker.
func (s *memoryStore) PurgeExpired() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for email, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, email)
			n++
		}
	}
	return n
}

func (s *memoryStore) live(email string) (*PendingRegistration, error) {
	email = NormalizeEmail(email)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[email]
	if !ok || rec.Expired(now) {
		return nil, ErrNotFound
	}
	return rec, nil
}

package tenant

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/launderly/launderly/pkg/plan"
)

// MemoryStore is the in-memory Store used in tests and single-node
// development. It deliberately does not implement Transactor so the
// finalizer's compensation path gets exercised.
type MemoryStore struct {
	mu        sync.Mutex
	tenants   map[uuid.UUID]*Tenant
	users     map[uuid.UUID]*User
	settings  map[uuid.UUID]*Settings
	priceRows []PriceRow

	// FailUserCreate makes the next CreateUser call fail; tests use it to
	// drive the finalizer's rollback.
	FailUserCreate error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants:  make(map[uuid.UUID]*Tenant),
		users:    make(map[uuid.UUID]*User),
		settings: make(map[uuid.UUID]*Settings),
	}
}

func (s *MemoryStore) CreateTenant(ctx context.Context, t *Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *t
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	cp.UpdatedAt = cp.CreatedAt
	s.tenants[cp.ID] = &cp
	return nil
}

func (s *MemoryStore) GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) FindLapsed(ctx context.Context, now time.Time) ([]Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Tenant
	for _, t := range s.tenants {
		switch {
		case t.Status == StatusTrialing && t.TrialEndsAt != nil && t.TrialEndsAt.Before(now):
			out = append(out, *t)
		case t.Status == StatusActive && t.NextBillingAt != nil && t.NextBillingAt.Before(now):
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *MemoryStore) FindPastDueSince(ctx context.Context, before time.Time) ([]Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Tenant
	for _, t := range s.tenants {
		if t.Status == StatusPastDue && t.UpdatedAt.Before(before) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *MemoryStore) TransitionStatus(ctx context.Context, id uuid.UUID, from, to SubscriptionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[id]
	if !ok {
		return ErrTenantNotFound
	}
	if t.Status != from {
		return ErrStaleTransition
	}

	t.Status = to
	t.UpdatedAt = time.Now().UTC()
	switch from {
	case StatusTrialing:
		t.TrialEndsAt = nil
	case StatusActive:
		t.NextBillingAt = nil
	}
	return nil
}

func (s *MemoryStore) ActivatePlan(ctx context.Context, id uuid.UUID, tier plan.Tier, nextBillingAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[id]
	if !ok {
		return ErrTenantNotFound
	}
	t.PlanTier = tier
	t.Status = StatusActive
	t.NextBillingAt = &nextBillingAt
	t.TrialEndsAt = nil
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailUserCreate != nil {
		err := s.FailUserCreate
		s.FailUserCreate = nil
		return err
	}

	email := strings.ToLower(u.Email)
	for _, existing := range s.users {
		if existing.Email == email {
			return ErrEmailTaken
		}
	}

	cp := *u
	cp.Email = email
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.users[cp.ID] = &cp
	return nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *MemoryStore) CountUsersByRole(ctx context.Context, tenantID uuid.UUID, role Role) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, u := range s.users {
		if u.TenantID == tenantID && u.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) SaveSettings(ctx context.Context, set *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *set
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.settings[cp.TenantID] = &cp
	return nil
}

func (s *MemoryStore) InsertPriceRows(ctx context.Context, rows []PriceRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.priceRows = append(s.priceRows, rows...)
	return nil
}

func (s *MemoryStore) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tenants, id)
	delete(s.settings, id)
	kept := s.priceRows[:0]
	for _, r := range s.priceRows {
		if r.TenantID != id {
			kept = append(kept, r)
		}
	}
	s.priceRows = kept
	return nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, id)
	return nil
}

// Settings returns the stored settings for a tenant, for test assertions.
func (s *MemoryStore) Settings(tenantID uuid.UUID) (*Settings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.settings[tenantID]
	if !ok {
		return nil, false
	}
	cp := *set
	return &cp, true
}

// PriceRowsFor returns the stored price rows for a tenant, for test assertions.
func (s *MemoryStore) PriceRowsFor(tenantID uuid.UUID) []PriceRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []PriceRow
	for _, r := range s.priceRows {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out
}

// TenantCount reports how many tenants exist, for test assertions.
func (s *MemoryStore) TenantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tenants)
}

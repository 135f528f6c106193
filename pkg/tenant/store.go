package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/launderly/launderly/pkg/plan"
)

// Store defines persistence for tenants, users, settings and price rows.
type Store interface {
	CreateTenant(ctx context.Context, t *Tenant) error
	GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// FindLapsed returns tenants whose entitlement window has elapsed at
	// now: trialing tenants past TrialEndsAt and active tenants past
	// NextBillingAt. Input for the periodic sweep.
	FindLapsed(ctx context.Context, now time.Time) ([]Tenant, error)

	// FindPastDueSince returns past_due tenants last touched before the
	// given instant. Input for the optional grace-window cancellation.
	FindPastDueSince(ctx context.Context, before time.Time) ([]Tenant, error)

	// TransitionStatus conditionally moves a tenant from one status to
	// another. The update applies only if the tenant is still in the `from`
	// status; otherwise ErrStaleTransition is returned and the caller treats
	// the transition as already handled elsewhere. The date field belonging
	// to the old status is cleared.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to SubscriptionStatus) error

	// ActivatePlan atomically applies a confirmed plan change: sets the
	// plan, status active, the new billing anchor, and clears any trial
	// window.
	ActivatePlan(ctx context.Context, id uuid.UUID, tier plan.Tier, nextBillingAt time.Time) error

	CreateUser(ctx context.Context, u *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CountUsersByRole(ctx context.Context, tenantID uuid.UUID, role Role) (int64, error)

	SaveSettings(ctx context.Context, s *Settings) error
	InsertPriceRows(ctx context.Context, rows []PriceRow) error

	// DeleteTenant and DeleteUser exist for the finalizer's compensation
	// path on stores without multi-document transactions.
	DeleteTenant(ctx context.Context, id uuid.UUID) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// Transactor is implemented by stores that can run a function inside a
// multi-document transaction. The finalizer uses it when available and falls
// back to compensating deletes when not.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

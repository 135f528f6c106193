package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/launderly/launderly/pkg/plan"
	"github.com/launderly/launderly/pkg/tenant"
)

// TenantGetter is the slice of the tenant store the guard needs.
type TenantGetter interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
}

// StaffCounter returns the current number of staff users for a tenant.
// Queried live on every check.
type StaffCounter func(ctx context.Context, tenantID uuid.UUID) (int64, error)

// OrderCounter returns the number of orders a tenant created since the given
// instant.
type OrderCounter func(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error)

// Guard is the usage entitlement guard.
type Guard struct {
	catalog *plan.Catalog
	tenants TenantGetter
	staff   StaffCounter
	orders  OrderCounter
	now     func() time.Time
}

// Option configures the Guard.
type Option func(*Guard)

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGuard creates a Guard. Panics on nil catalog or tenant getter to fail
// fast during initialization; counters may be nil if the corresponding check
// is never used, in which case that check fails with ErrNoCounterRegistered.
func NewGuard(catalog *plan.Catalog, tenants TenantGetter, staff StaffCounter, orders OrderCounter, opts ...Option) *Guard {
	if catalog == nil {
		panic("entitlement: plan catalog is required")
	}
	if tenants == nil {
		panic("entitlement: tenant getter is required")
	}
	g := &Guard{
		catalog: catalog,
		tenants: tenants,
		staff:   staff,
		orders:  orders,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CanCreateStaff permits creating one more staff user under the tenant's
// plan limit.
func (g *Guard) CanCreateStaff(ctx context.Context, tenantID uuid.UUID) error {
	_, p, err := g.load(ctx, tenantID)
	if err != nil {
		return err
	}

	limit := p.Limits.MaxStaff
	if limit == plan.Unlimited {
		return nil
	}
	if g.staff == nil {
		return ErrNoCounterRegistered
	}

	used, err := g.staff(ctx, tenantID)
	if err != nil {
		return err
	}
	if used >= limit {
		return &LimitReachedError{Plan: p.Name, Resource: "staff accounts", Limit: limit}
	}
	return nil
}

// CanCreateOrder permits creating one more order this calendar month. Fails
// immediately for tenants outside {active, trialing}.
func (g *Guard) CanCreateOrder(ctx context.Context, tenantID uuid.UUID) error {
	tn, p, err := g.load(ctx, tenantID)
	if err != nil {
		return err
	}
	if !tn.CanOperate() {
		return ErrSubscriptionInactive
	}

	limit := p.Limits.MaxOrdersPerMonth
	if limit == plan.Unlimited {
		return nil
	}
	if g.orders == nil {
		return ErrNoCounterRegistered
	}

	used, err := g.orders(ctx, tenantID, MonthStart(g.now()))
	if err != nil {
		return err
	}
	if used >= limit {
		return &LimitReachedError{Plan: p.Name, Resource: "orders per month", Limit: limit}
	}
	return nil
}

// MonthStart returns the first instant of t's calendar month in UTC. Order
// quotas reset on calendar-month boundaries, not rolling 30-day windows.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (g *Guard) load(ctx context.Context, tenantID uuid.UUID) (*tenant.Tenant, plan.Plan, error) {
	tn, err := g.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, plan.Plan{}, err
	}
	p, err := g.catalog.Get(ctx, tn.PlanTier)
	if err != nil {
		return nil, plan.Plan{}, errors.Join(plan.ErrPlanNotFound, err)
	}
	return tn, p, nil
}

package plan

import (
	"context"
	"errors"
	"slices"
)

// Store defines plan catalog persistence.
type Store interface {
	// Load returns every plan keyed by tier.
	Load(ctx context.Context) (map[Tier]Plan, error)

	// Save creates or replaces a plan by its tier.
	Save(ctx context.Context, p Plan) error
}

// Update carries a partial plan change. Nil fields are left untouched.
// The tier itself cannot be changed: the tier set is closed.
type Update struct {
	Name        *string
	Description *string
	Prices      []Price
	Features    []string
	Limits      *Limits
	Active      *bool
}

// Catalog is the read-mostly service in front of a plan Store.
// Reads go through the store on every call so that administrative updates are
// visible to all instances without a restart.
type Catalog struct {
	store Store
}

// NewCatalog creates a Catalog. Panics if store is nil to fail fast during
// initialization.
func NewCatalog(store Store) *Catalog {
	if store == nil {
		panic("plan: Store is required")
	}
	return &Catalog{store: store}
}

// ActivePlans returns all active plans in tier display order.
// Intended for public display; requires no authorization.
func (c *Catalog) ActivePlans(ctx context.Context) ([]Plan, error) {
	plans, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Plan, 0, len(plans))
	for _, t := range Tiers() {
		if p, ok := plans[t]; ok && p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

// AllPlans returns every plan regardless of activity. Admin-only;
// authorization is the caller's concern.
func (c *Catalog) AllPlans(ctx context.Context) ([]Plan, error) {
	plans, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Plan, 0, len(plans))
	for _, t := range Tiers() {
		if p, ok := plans[t]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Get returns the plan for a tier or ErrPlanNotFound.
func (c *Catalog) Get(ctx context.Context, tier Tier) (Plan, error) {
	plans, err := c.load(ctx)
	if err != nil {
		return Plan{}, err
	}
	p, ok := plans[tier]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return p, nil
}

// Price returns the price entry of a plan for a currency or ErrPriceNotFound.
// No fallback is applied here; see currency.Resolver for the fallback chain.
func (c *Catalog) Price(ctx context.Context, tier Tier, code string) (Price, error) {
	p, err := c.Get(ctx, tier)
	if err != nil {
		return Price{}, err
	}
	pr, ok := p.Price(code)
	if !ok {
		return Price{}, ErrPriceNotFound
	}
	return pr, nil
}

// Apply merges the update into a plan.
func (u Update) Apply(p Plan) Plan {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Prices != nil {
		p.Prices = slices.Clone(u.Prices)
	}
	if u.Features != nil {
		p.Features = slices.Clone(u.Features)
	}
	if u.Limits != nil {
		p.Limits = *u.Limits
	}
	if u.Active != nil {
		p.Active = *u.Active
	}
	return p
}

// UpdatePlan applies a partial update to an existing plan. Admin-only.
// The merged plan is validated before it is saved, so a malformed price list
// or limit never reaches the store.
func (c *Catalog) UpdatePlan(ctx context.Context, tier Tier, u Update) (Plan, error) {
	current, err := c.Get(ctx, tier)
	if err != nil {
		return Plan{}, err
	}

	next := u.Apply(current)
	if err := next.Validate(); err != nil {
		return Plan{}, err
	}
	if err := c.store.Save(ctx, next); err != nil {
		return Plan{}, err
	}
	return next, nil
}

func (c *Catalog) load(ctx context.Context) (map[Tier]Plan, error) {
	plans, err := c.store.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	return plans, nil
}

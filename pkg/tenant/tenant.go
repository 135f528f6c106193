package tenant

import (
	"time"

	"github.com/google/uuid"

	"github.com/launderly/launderly/pkg/plan"
	"github.com/launderly/launderly/pkg/registration"
)

// SubscriptionStatus is the tenant's entitlement state.
type SubscriptionStatus string

const (
	StatusTrialing SubscriptionStatus = "trialing"
	StatusActive   SubscriptionStatus = "active"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"
)

// Tenant is one laundry business account.
//
// TrialEndsAt and NextBillingAt are mutually exclusive in meaning: a tenant
// is either inside a trial window or a billing cycle, never both. A stale
// value may physically linger in the unused field; readers must key off
// Status, which is why the store's TransitionStatus clears the stale field.
type Tenant struct {
	ID            uuid.UUID          `bson:"_id" json:"id"`
	Name          string             `bson:"name" json:"name"`
	CountryCode   string             `bson:"country_code" json:"country_code"`
	PlanTier      plan.Tier          `bson:"plan_tier" json:"plan_tier"`
	Status        SubscriptionStatus `bson:"status" json:"status"`
	TrialEndsAt   *time.Time         `bson:"trial_ends_at,omitempty" json:"trial_ends_at,omitempty"`
	NextBillingAt *time.Time         `bson:"next_billing_at,omitempty" json:"next_billing_at,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsTrialing reports whether the tenant is in its trial window.
func (t *Tenant) IsTrialing() bool { return t.Status == StatusTrialing }

// IsActive reports whether the tenant is on a paid billing cycle.
func (t *Tenant) IsActive() bool { return t.Status == StatusActive }

// CanOperate reports whether gated actions are permitted at all.
func (t *Tenant) CanOperate() bool {
	return t.Status == StatusActive || t.Status == StatusTrialing
}

// Role distinguishes the owning admin from staff accounts.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// User is an account scoped to a tenant. One admin is created per tenant at
// finalization; staff accounts are added later, subject to plan limits.
type User struct {
	ID           uuid.UUID `bson:"_id"`
	TenantID     uuid.UUID `bson:"tenant_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"` // lowercased, unique among users
	PasswordHash string    `bson:"password_hash"`
	Role         Role      `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
}

// Settings carries the tenant's initial operational configuration persisted
// at finalization.
type Settings struct {
	TenantID       uuid.UUID `bson:"_id"`
	CompanyName    string    `bson:"company_name"`
	Phone          string    `bson:"phone,omitempty"`
	Address        string    `bson:"address,omitempty"`
	CurrencySymbol string    `bson:"currency_symbol,omitempty"`
	ItemTypes      []string  `bson:"item_types,omitempty"`
	ServiceTypes   []string  `bson:"service_types,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
}

// PriceRow is one entry of the tenant's price list, seeded from the signup
// payload and edited later through the (out of scope) settings CRUD.
type PriceRow struct {
	ID          uuid.UUID `bson:"_id"`
	TenantID    uuid.UUID `bson:"tenant_id"`
	ItemType    string    `bson:"item_type"`
	ServiceType string    `bson:"service_type"`
	Amount      int64     `bson:"amount"`
}

// SeedPriceRows converts signup payload price rows into store rows.
func SeedPriceRows(tenantID uuid.UUID, rows []registration.PriceRow) []PriceRow {
	out := make([]PriceRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, PriceRow{
			ID:          uuid.New(),
			TenantID:    tenantID,
			ItemType:    r.ItemType,
			ServiceType: r.ServiceType,
			Amount:      r.Amount,
		})
	}
	return out
}

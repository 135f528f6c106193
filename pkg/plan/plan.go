package plan

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

// Tier identifies a plan within the closed tier set.
type Tier string

const (
	TierTrial  Tier = "trial"
	TierBasic  Tier = "basic"
	TierGrowth Tier = "growth"
	TierPro    Tier = "pro"
)

// Tiers returns the closed set of known tiers in display order.
func Tiers() []Tier {
	return []Tier{TierTrial, TierBasic, TierGrowth, TierPro}
}

// Valid reports whether the tier belongs to the closed set.
func (t Tier) Valid() bool {
	switch t {
	case TierTrial, TierBasic, TierGrowth, TierPro:
		return true
	}
	return false
}

// ParseTier normalizes and validates a tier string.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return t, nil
}

const (
	// Unlimited indicates no limit for a resource (-1 chosen for SQL compatibility)
	Unlimited int64 = -1
)

// Price is a monetary amount in the smallest unit of its currency.
// For example, $29.00 USD is Amount: 2900, Currency: "USD".
type Price struct {
	Currency string `yaml:"currency" bson:"currency" json:"currency"` // ISO 4217 code
	Amount   int64  `yaml:"amount" bson:"amount" json:"amount"`
}

// Limits describes the usage constraints a plan grants.
type Limits struct {
	MaxStaff          int64 `yaml:"max_staff" bson:"max_staff" json:"max_staff"`
	MaxOrdersPerMonth int64 `yaml:"max_orders_per_month" bson:"max_orders_per_month" json:"max_orders_per_month"`
}

// Plan describes a subscription tier and its price/feature/limit constraints.
// Inactive plans are hidden from new signups but keep serving existing
// subscribers.
type Plan struct {
	Tier        Tier     `yaml:"tier" bson:"_id" json:"tier"`
	Name        string   `yaml:"name" bson:"name" json:"name"`
	Description string   `yaml:"description" bson:"description" json:"description,omitempty"`
	Prices      []Price  `yaml:"prices" bson:"prices" json:"prices"`
	Features    []string `yaml:"features" bson:"features" json:"features"`
	Limits      Limits   `yaml:"limits" bson:"limits" json:"limits"`
	Active      bool     `yaml:"active" bson:"active" json:"active"`
}

// Price returns the configured price for the given currency, if any.
// Callers apply fallback themselves; see the currency package resolver.
func (p Plan) Price(code string) (Price, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, pr := range p.Prices {
		if pr.Currency == code {
			return pr, true
		}
	}
	return Price{}, false
}

// IsFree reports whether the plan requires no payment to activate.
func (p Plan) IsFree() bool {
	return p.Tier == TierTrial
}

// Validate checks plan consistency: known tier, non-negative unique-currency
// prices with valid ISO 4217 codes, and limits that are non-negative or the
// Unlimited sentinel.
func (p Plan) Validate() error {
	if !p.Tier.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTier, p.Tier)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: plan %s has no name", ErrInvalidLimits, p.Tier)
	}

	seen := make(map[string]struct{}, len(p.Prices))
	for _, pr := range p.Prices {
		if pr.Amount < 0 {
			return fmt.Errorf("%w: %s %s amount %d", ErrInvalidPrice, p.Tier, pr.Currency, pr.Amount)
		}
		if _, err := currency.ParseISO(pr.Currency); err != nil {
			return errors.Join(ErrInvalidPrice, fmt.Errorf("plan %s: currency %q: %w", p.Tier, pr.Currency, err))
		}
		if _, dup := seen[pr.Currency]; dup {
			return fmt.Errorf("%w: %s %s", ErrDuplicateCurrency, p.Tier, pr.Currency)
		}
		seen[pr.Currency] = struct{}{}
	}

	if err := validateLimit(p.Limits.MaxStaff); err != nil {
		return fmt.Errorf("%w: plan %s max_staff", ErrInvalidLimits, p.Tier)
	}
	if err := validateLimit(p.Limits.MaxOrdersPerMonth); err != nil {
		return fmt.Errorf("%w: plan %s max_orders_per_month", ErrInvalidLimits, p.Tier)
	}
	return nil
}

func validateLimit(v int64) error {
	if v < 0 && v != Unlimited {
		return ErrInvalidLimits
	}
	return nil
}

// DefaultPlans returns the built-in catalog used when no external source is
// configured. Amounts are in the smallest currency unit.
func DefaultPlans() []Plan {
	return []Plan{
		{
			Tier:     TierTrial,
			Name:     "Trial",
			Prices:   nil,
			Features: []string{"30 day trial", "1 staff account", "50 orders per month"},
			Limits:   Limits{MaxStaff: 1, MaxOrdersPerMonth: 50},
			Active:   true,
		},
		{
			Tier: TierBasic,
			Name: "Basic",
			Prices: []Price{
				{Currency: "USD", Amount: 2900},
				{Currency: "XAF", Amount: 1500000},
			},
			Features: []string{"3 staff accounts", "300 orders per month", "Email notifications"},
			Limits:   Limits{MaxStaff: 3, MaxOrdersPerMonth: 300},
			Active:   true,
		},
		{
			Tier: TierGrowth,
			Name: "Growth",
			Prices: []Price{
				{Currency: "USD", Amount: 5900},
				{Currency: "XAF", Amount: 3000000},
			},
			Features: []string{"10 staff accounts", "1500 orders per month", "WhatsApp notifications"},
			Limits:   Limits{MaxStaff: 10, MaxOrdersPerMonth: 1500},
			Active:   true,
		},
		{
			Tier: TierPro,
			Name: "Pro",
			Prices: []Price{
				{Currency: "USD", Amount: 9900},
				{Currency: "XAF", Amount: 5000000},
			},
			Features: []string{"Unlimited staff", "Unlimited orders", "Priority support"},
			Limits:   Limits{MaxStaff: Unlimited, MaxOrdersPerMonth: Unlimited},
			Active:   true,
		},
	}
}

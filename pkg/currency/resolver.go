package currency

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/currency"

	"github.com/launderly/launderly/pkg/plan"
)

// BaseCurrency is the fallback settlement currency for unmapped countries and
// the fallback price currency for unlocalized plans.
const BaseCurrency = "USD"

// Resolver maps buyer countries to settlement currencies and plans to
// concrete prices. Immutable after construction; safe for concurrent use.
type Resolver struct {
	byCountry map[string]string
	base      string
}

// DefaultCountryTable covers the markets the platform currently sells in.
// Country codes are ISO 3166-1 alpha-2.
func DefaultCountryTable() map[string]string {
	return map[string]string{
		// Central Africa (CEMAC)
		"CM": "XAF", "GA": "XAF", "TD": "XAF", "CF": "XAF", "CG": "XAF", "GQ": "XAF",
		// West Africa (UEMOA)
		"SN": "XOF", "CI": "XOF", "BJ": "XOF", "BF": "XOF", "ML": "XOF", "NE": "XOF", "TG": "XOF",
		// Other African markets
		"NG": "NGN", "GH": "GHS", "KE": "KES", "RW": "RWF", "CD": "CDF",
		// Rest of world
		"US": "USD", "CA": "CAD", "GB": "GBP", "FR": "EUR", "DE": "EUR", "BE": "EUR",
	}
}

// NewResolver builds a Resolver from a country→currency table. Every mapped
// currency is validated as ISO 4217 so a typo in the table fails at startup,
// not at the first signup from that country.
func NewResolver(table map[string]string) (*Resolver, error) {
	byCountry := make(map[string]string, len(table))
	for cc, code := range table {
		code = strings.ToUpper(strings.TrimSpace(code))
		if _, err := currency.ParseISO(code); err != nil {
			return nil, errors.Join(ErrInvalidCurrencyCode, fmt.Errorf("country %s: %q", cc, code))
		}
		byCountry[strings.ToUpper(strings.TrimSpace(cc))] = code
	}
	return &Resolver{byCountry: byCountry, base: BaseCurrency}, nil
}

// MustNewResolver is NewResolver that panics on an invalid table.
// Used for the built-in DefaultCountryTable at startup.
func MustNewResolver(table map[string]string) *Resolver {
	r, err := NewResolver(table)
	if err != nil {
		panic(err)
	}
	return r
}

// SettlementCurrency returns the currency a buyer from the given country is
// charged in, falling back to the base currency for unmapped countries.
func (r *Resolver) SettlementCurrency(countryCode string) string {
	if code, ok := r.byCountry[strings.ToUpper(strings.TrimSpace(countryCode))]; ok {
		return code
	}
	return r.base
}

// ResolvePrice returns the price the given plan is charged at for a buyer
// from countryCode, applying the two-level fallback chain.
func (r *Resolver) ResolvePrice(p plan.Plan, countryCode string) (plan.Price, error) {
	settlement := r.SettlementCurrency(countryCode)

	if pr, ok := p.Price(settlement); ok {
		return pr, nil
	}
	if pr, ok := p.Price(r.base); ok {
		return pr, nil
	}
	return plan.Price{}, fmt.Errorf("%w: plan %s has no %s or %s price",
		ErrPricingNotConfigured, p.Tier, settlement, r.base)
}

package currency_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launderly/launderly/pkg/currency"
	"github.com/launderly/launderly/pkg/plan"
)

func TestNewResolverValidatesTable(t *testing.T) {
	t.Parallel()

	_, err := currency.NewResolver(map[string]string{"CM": "FRANCS"})
	assert.ErrorIs(t, err, currency.ErrInvalidCurrencyCode)

	r, err := currency.NewResolver(map[string]string{"cm": " xaf "})
	require.NoError(t, err)
	assert.Equal(t, "XAF", r.SettlementCurrency("CM"))
}

func TestSettlementCurrency(t *testing.T) {
	t.Parallel()
	r := currency.MustNewResolver(currency.DefaultCountryTable())

	assert.Equal(t, "XAF", r.SettlementCurrency("CM"))
	assert.Equal(t, "XOF", r.SettlementCurrency("sn"))
	assert.Equal(t, "NGN", r.SettlementCurrency("NG"))
	// unmapped countries settle in the base currency
	assert.Equal(t, currency.BaseCurrency, r.SettlementCurrency("JP"))
	assert.Equal(t, currency.BaseCurrency, r.SettlementCurrency(""))
}

func TestResolvePrice(t *testing.T) {
	t.Parallel()
	r := currency.MustNewResolver(currency.DefaultCountryTable())

	t.Run("exact localized price", func(t *testing.T) {
		p := plan.Plan{
			Tier: plan.TierBasic, Name: "Basic",
			Prices: []plan.Price{
				{Currency: "USD", Amount: 2900},
				{Currency: "XAF", Amount: 1500000},
			},
		}
		pr, err := r.ResolvePrice(p, "CM")
		require.NoError(t, err)
		assert.Equal(t, "XAF", pr.Currency)
		assert.Equal(t, int64(1500000), pr.Amount)
	})

	t.Run("currency miss falls back to base price", func(t *testing.T) {
		// Basic has USD only, buyer country resolves to XAF: the USD price
		// must be returned, not an error and not a zero amount.
		p := plan.Plan{
			Tier: plan.TierBasic, Name: "Basic",
			Prices: []plan.Price{{Currency: "USD", Amount: 2900}},
		}
		pr, err := r.ResolvePrice(p, "CM")
		require.NoError(t, err)
		assert.Equal(t, "USD", pr.Currency)
		assert.Equal(t, int64(2900), pr.Amount)
	})

	t.Run("country miss then base price", func(t *testing.T) {
		p := plan.Plan{
			Tier: plan.TierPro, Name: "Pro",
			Prices: []plan.Price{{Currency: "USD", Amount: 9900}},
		}
		pr, err := r.ResolvePrice(p, "JP")
		require.NoError(t, err)
		assert.Equal(t, "USD", pr.Currency)
	})

	t.Run("neither price exists", func(t *testing.T) {
		p := plan.Plan{
			Tier: plan.TierPro, Name: "Pro",
			Prices: []plan.Price{{Currency: "EUR", Amount: 9900}},
		}
		_, err := r.ResolvePrice(p, "CM")
		assert.ErrorIs(t, err, currency.ErrPricingNotConfigured)
	})

	t.Run("no prices at all", func(t *testing.T) {
		p := plan.Plan{Tier: plan.TierTrial, Name: "Trial"}
		_, err := r.ResolvePrice(p, "US")
		assert.ErrorIs(t, err, currency.ErrPricingNotConfigured)
	})
}

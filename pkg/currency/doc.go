// Package currency resolves the settlement currency for a buyer and the
// concrete price a plan is charged at.
//
// Resolution is a two-level fallback chain, both levels explicit:
//
//  1. country → currency: the buyer's country code is looked up in a mapping
//     table; an unmapped country settles in the base currency (USD).
//  2. currency → price: if the plan has no price for the settlement currency,
//     the base-currency price is used; if neither exists the resolver fails
//     with ErrPricingNotConfigured.
//
// A zero-amount price is never fabricated: a missing price is an operator
// configuration error, not a free plan.
package currency

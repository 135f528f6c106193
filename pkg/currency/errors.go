package currency

import "errors"

var (
	// ErrPricingNotConfigured means a plan has neither a localized nor a
	// base-currency price. Operator error; not shown to end users.
	ErrPricingNotConfigured = errors.New("pricing not configured for plan")

	ErrInvalidCurrencyCode = errors.New("invalid ISO 4217 currency code")
)

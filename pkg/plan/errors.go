package plan

import "errors"

var (
	ErrPlanNotFound  = errors.New("plan not found")
	ErrPriceNotFound = errors.New("no price configured for currency")
	ErrUnknownTier   = errors.New("unknown plan tier")

	ErrInvalidPrice      = errors.New("invalid plan price")
	ErrDuplicateCurrency = errors.New("duplicate currency in plan prices")
	ErrInvalidLimits     = errors.New("invalid plan limits")

	ErrFailedToLoadPlans = errors.New("failed to load plans")
)

package lifecycle

import "errors"

var (
	// ErrValidation covers malformed signup input: bad email syntax, empty
	// required fields, weak password, unknown plan tier.
	ErrValidation = errors.New("invalid signup data")

	// ErrPaymentRequired is returned when the OTP-only finalize path is
	// attempted for a registration on a paid plan.
	ErrPaymentRequired = errors.New("payment required for this plan")

	// ErrPaymentNotConfirmed means the provider has not (yet) reported the
	// transaction as successful. Recoverable; callers retry or poll.
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")

	// ErrAlreadyOnPlan rejects a plan change to the tenant's current plan
	// while the subscription is active.
	ErrAlreadyOnPlan = errors.New("tenant is already on this plan")

	// ErrFinalizationFailed means payment succeeded but tenant creation did
	// not. A paid-but-unfinalized customer is a support incident, surfaced
	// distinctly from payment failures.
	ErrFinalizationFailed = errors.New("registration finalization failed")

	// ErrNotificationFailed means the verification code could not be
	// delivered. Fatal to initiation on every path: without the code the
	// customer cannot proceed, so the whole call is rolled back.
	ErrNotificationFailed = errors.New("verification code delivery failed")
)

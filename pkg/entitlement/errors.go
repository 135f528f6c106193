package entitlement

import (
	"errors"
	"fmt"
)

var (
	// ErrSubscriptionInactive gates every order-creating action for
	// past_due and canceled tenants.
	ErrSubscriptionInactive = errors.New("subscription is not active")

	// ErrLimitReached is the sentinel wrapped by LimitReachedError.
	ErrLimitReached = errors.New("plan limit reached")

	ErrNoCounterRegistered = errors.New("no usage counter registered")
)

// LimitReachedError carries the plan name and the numeric limit so the
// message shown to the tenant names exactly what they ran into.
type LimitReachedError struct {
	Plan     string
	Resource string
	Limit    int64
}

func (e *LimitReachedError) Error() string {
	return fmt.Sprintf("plan %s allows at most %d %s", e.Plan, e.Limit, e.Resource)
}

func (e *LimitReachedError) Unwrap() error { return ErrLimitReached }

package tenant

import "errors"

var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already belongs to an active user")

	// ErrStaleTransition means a conditional status transition matched no
	// tenant in the expected state; someone else transitioned it first.
	ErrStaleTransition = errors.New("tenant not in expected status")
)

package registration

import "errors"

var (
	// ErrNotFound covers absent and expired records alike; callers cannot
	// distinguish the two, by the TTL contract.
	ErrNotFound = errors.New("pending registration not found")

	ErrInvalidCode  = errors.New("verification code mismatch")
	ErrInvalidEmail = errors.New("invalid registration email")
)

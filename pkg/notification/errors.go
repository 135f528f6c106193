package notification

import "errors"

var (
	ErrInvalidConfig      = errors.New("invalid notification config")
	ErrFailedToSendCode   = errors.New("failed to send verification code")
	ErrInvalidRecipient   = errors.New("invalid recipient email address")
)

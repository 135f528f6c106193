package gateway

import "errors"

var (
	// ErrUnavailable covers provider outages, transport failures after
	// retries, and token acquisition failures. Retryable by the caller.
	ErrUnavailable = errors.New("payment gateway unavailable")

	// ErrRejected covers business rejections: invalid amount, unsupported
	// currency or country. Not retryable.
	ErrRejected = errors.New("payment gateway rejected the request")

	ErrInvalidConfig = errors.New("invalid gateway config")
)

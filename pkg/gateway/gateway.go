package gateway

import "context"

// TxStatus is the provider's view of a transaction.
type TxStatus string

const (
	TxPending TxStatus = "pending"
	TxSuccess TxStatus = "success"
	TxFailed  TxStatus = "failed"
)

// LinkRequest describes the payment link to create.
type LinkRequest struct {
	Amount        int64  // smallest currency unit
	Currency      string // ISO 4217
	CountryCode   string // payer's country, ISO 3166-1 alpha-2
	TransactionID string // our transaction id, echoed back in callbacks
	Description   string
	RedirectURL   string // where the payer lands after paying
	PayerName     string
	PayerEmail    string
}

// PaymentLink is the hosted checkout URL the payer is redirected to.
type PaymentLink struct {
	URL string
}

// PaymentGateway is the abstract payment-link provider boundary.
type PaymentGateway interface {
	// CreatePaymentLink creates a hosted payment link.
	CreatePaymentLink(ctx context.Context, req LinkRequest) (*PaymentLink, error)

	// TransactionStatus queries a transaction's settlement status.
	// Idempotent read; safe to call repeatedly from webhook and polling
	// paths alike.
	TransactionStatus(ctx context.Context, transactionID string) (TxStatus, error)
}

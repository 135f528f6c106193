package intent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/launderly/launderly/pkg/plan"
)

// Purpose says what a payment buys.
type Purpose string

const (
	PurposeRegistration Purpose = "registration" // paid signup of a new tenant
	PurposeUpgrade      Purpose = "upgrade"      // plan change of an existing tenant
)

// Status tracks the intent's lifecycle on our side. The provider's view is
// queried separately through the gateway port.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// PaymentIntent records one expected payment.
type PaymentIntent struct {
	TransactionID string    `bson:"_id"`
	Purpose       Purpose   `bson:"purpose"`
	ReferenceID   string    `bson:"reference_id"` // pending-registration email or tenant id
	PlanTier      plan.Tier `bson:"plan_tier"`
	Amount        int64     `bson:"amount"`
	Currency      string    `bson:"currency"`
	Status        Status    `bson:"status"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

// NewTransactionID mints a transaction id for a purpose. The prefix is
// cosmetic (provider dashboards); routing always goes through the store.
func NewTransactionID(p Purpose) string {
	prefix := "pay"
	switch p {
	case PurposeRegistration:
		prefix = "reg"
	case PurposeUpgrade:
		prefix = "upg"
	}
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}

// Store defines payment intent persistence.
type Store interface {
	// Create inserts a new intent. Fails with ErrAlreadyExists on a
	// duplicate transaction id.
	Create(ctx context.Context, pi *PaymentIntent) error

	// Get returns the intent for a transaction id or ErrNotFound.
	Get(ctx context.Context, transactionID string) (*PaymentIntent, error)

	// SetStatus updates the intent's status. Returns ErrNotFound for an
	// unknown transaction id.
	SetStatus(ctx context.Context, transactionID string, status Status) error

	// Delete removes an intent. Deleting an absent intent is not an error.
	Delete(ctx context.Context, transactionID string) error
}

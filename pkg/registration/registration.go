package registration

import (
	"context"
	"strings"
	"time"

	"github.com/launderly/launderly/pkg/plan"
)

// DefaultTTL is how long a pending registration stays live.
const DefaultTTL = 15 * time.Minute

// PriceRow seeds one entry of the tenant's initial price list.
type PriceRow struct {
	ItemType    string `bson:"item_type" json:"item_type"`
	ServiceType string `bson:"service_type" json:"service_type"`
	Amount      int64  `bson:"amount" json:"amount"` // smallest currency unit
}

// Payload is the full signup submission held until confirmation.
// The admin password is bcrypt-hashed before it ever reaches this struct.
type Payload struct {
	AdminName      string     `bson:"admin_name" json:"admin_name"`
	AdminEmail     string     `bson:"admin_email" json:"admin_email"`
	PasswordHash   string     `bson:"password_hash" json:"password_hash"`
	CompanyName    string     `bson:"company_name" json:"company_name"`
	CountryCode    string     `bson:"country_code" json:"country_code"`
	Phone          string     `bson:"phone" json:"phone,omitempty"`
	Address        string     `bson:"address" json:"address,omitempty"`
	CurrencySymbol string     `bson:"currency_symbol" json:"currency_symbol,omitempty"`
	PlanTier       plan.Tier  `bson:"plan_tier" json:"plan_tier"`
	ItemTypes      []string   `bson:"item_types" json:"item_types,omitempty"`
	ServiceTypes   []string   `bson:"service_types" json:"service_types,omitempty"`
	PriceRows      []PriceRow `bson:"price_rows" json:"price_rows,omitempty"`
}

// PendingRegistration is the stored record.
type PendingRegistration struct {
	Email         string    `bson:"_id"`
	CodeHash      string    `bson:"code_hash"`
	Payload       Payload   `bson:"payload"`
	TransactionID string    `bson:"transaction_id,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
	ExpiresAt     time.Time `bson:"expires_at"`
}

// Expired reports whether the record is past its TTL at the given time.
func (p *PendingRegistration) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Store defines pending registration persistence.
type Store interface {
	// Create stores a new pending registration, superseding any live record
	// for the same (lowercased) email, and returns the raw verification code
	// exactly once for out-of-band delivery.
	Create(ctx context.Context, email string, payload Payload) (code string, err error)

	// Verify checks the supplied code against the stored digest. Returns
	// ErrNotFound for absent or expired records, ErrInvalidCode on mismatch.
	// The record is NOT deleted on success; deletion belongs to the
	// finalizer so that verify-then-finalize cannot race two deletions.
	Verify(ctx context.Context, email, code string) (*PendingRegistration, error)

	// AttachTransaction remembers which external payment transaction is in
	// flight for this registration. Attaching the same id twice is a no-op;
	// a different id overwrites, since a customer can retry payment.
	AttachTransaction(ctx context.Context, email, transactionID string) error

	// FindByTransaction returns the live record carrying the transaction id.
	FindByTransaction(ctx context.Context, transactionID string) (*PendingRegistration, error)

	// Delete removes the record for email and reports whether a live record
	// was actually removed. The single winner of concurrent deletes gets
	// true; everyone else gets false with a nil error.
	Delete(ctx context.Context, email string) (bool, error)
}

// NormalizeEmail lowercases and trims a registration email key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

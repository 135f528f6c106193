package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/launderly/launderly/pkg/plan"
	"github.com/launderly/launderly/pkg/registration"
	"github.com/launderly/launderly/pkg/tenant"
	"github.com/launderly/launderly/pkg/token"
)

// TrialDays is the length of the free trial window.
const TrialDays = 30

// Finalizer turns a confirmed pending registration into a live tenant with
// its admin user, settings and seed price rows.
type Finalizer struct {
	pending registration.Store
	tenants tenant.Store
	catalog *plan.Catalog
	tokens  *token.Issuer
	log     *slog.Logger
	now     func() time.Time
}

// FinalizeResult is what a freshly finalized registration hands back to the
// HTTP layer: the new tenant, its admin user and a session token.
type FinalizeResult struct {
	Tenant *tenant.Tenant
	User   *tenant.User
	Token  string
}

// NewFinalizer creates a Finalizer. All dependencies are required.
func NewFinalizer(pending registration.Store, tenants tenant.Store, catalog *plan.Catalog, tokens *token.Issuer, log *slog.Logger, opts ...FinalizerOption) (*Finalizer, error) {
	if pending == nil || tenants == nil || catalog == nil || tokens == nil {
		return nil, errors.New("lifecycle: finalizer dependencies must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	f := &Finalizer{
		pending: pending,
		tenants: tenants,
		catalog: catalog,
		tokens:  tokens,
		log:     log.With(slog.String("component", "finalizer")),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// FinalizerOption customizes a Finalizer.
type FinalizerOption func(*Finalizer)

// WithFinalizerClock overrides the clock, for tests.
func WithFinalizerClock(now func() time.Time) FinalizerOption {
	return func(f *Finalizer) { f.now = now }
}

// Finalize creates the tenant, admin user, settings and price rows for a
// confirmed pending registration.
//
// The conditional delete of the pending record is the commit point: under
// concurrent confirmation signals exactly one caller observes a live record
// being removed and proceeds; every other caller gets
// registration.ErrNotFound, which it must treat as "already finalized", not
// as a user-facing failure.
func (f *Finalizer) Finalize(ctx context.Context, pr *registration.PendingRegistration) (*FinalizeResult, error) {
	p, err := f.catalog.Get(ctx, pr.Payload.PlanTier)
	if err != nil {
		return nil, err
	}

	removed, err := f.pending.Delete(ctx, pr.Email)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, registration.ErrNotFound
	}

	now := f.now().UTC()
	t := &tenant.Tenant{
		ID:          uuid.New(),
		Name:        pr.Payload.CompanyName,
		CountryCode: pr.Payload.CountryCode,
		PlanTier:    p.Tier,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.IsFree() {
		trialEnds := now.AddDate(0, 0, TrialDays)
		t.Status = tenant.StatusTrialing
		t.TrialEndsAt = &trialEnds
	} else {
		nextBilling := now.AddDate(0, 1, 0)
		t.Status = tenant.StatusActive
		t.NextBillingAt = &nextBilling
	}

	u := &tenant.User{
		ID:           uuid.New(),
		TenantID:     t.ID,
		Name:         pr.Payload.AdminName,
		Email:        pr.Email,
		PasswordHash: pr.Payload.PasswordHash,
		Role:         tenant.RoleAdmin,
		CreatedAt:    now,
	}

	settings := &tenant.Settings{
		TenantID:       t.ID,
		CompanyName:    pr.Payload.CompanyName,
		Phone:          pr.Payload.Phone,
		Address:        pr.Payload.Address,
		CurrencySymbol: pr.Payload.CurrencySymbol,
		ItemTypes:      pr.Payload.ItemTypes,
		ServiceTypes:   pr.Payload.ServiceTypes,
		CreatedAt:      now,
	}
	rows := tenant.SeedPriceRows(t.ID, pr.Payload.PriceRows)

	if err := f.createAll(ctx, t, u, settings, rows); err != nil {
		f.log.ErrorContext(ctx, "finalization failed after commit point",
			slog.String("email", pr.Email),
			slog.String("tenant_id", t.ID.String()),
			slog.Any("error", err))
		return nil, errors.Join(ErrFinalizationFailed, err)
	}

	tok, err := f.tokens.Issue(u.ID, t.ID, u.Email, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	f.log.InfoContext(ctx, "registration finalized",
		slog.String("tenant_id", t.ID.String()),
		slog.String("plan", string(t.PlanTier)),
		slog.String("status", string(t.Status)))

	return &FinalizeResult{Tenant: t, User: u, Token: tok}, nil
}

// createAll persists the tenant graph, inside one transaction when the store
// supports it, otherwise sequentially with compensating deletes.
func (f *Finalizer) createAll(ctx context.Context, t *tenant.Tenant, u *tenant.User, settings *tenant.Settings, rows []tenant.PriceRow) error {
	create := func(ctx context.Context) error {
		if err := f.tenants.CreateTenant(ctx, t); err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}
		if err := f.tenants.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}
		if err := f.tenants.SaveSettings(ctx, settings); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		if err := f.tenants.InsertPriceRows(ctx, rows); err != nil {
			return fmt.Errorf("seed price rows: %w", err)
		}
		return nil
	}

	if tx, ok := f.tenants.(tenant.Transactor); ok {
		return tx.WithinTransaction(ctx, create)
	}

	if err := create(ctx); err != nil {
		// best-effort compensation; DeleteTenant also removes settings and
		// price rows
		_ = f.tenants.DeleteUser(ctx, u.ID)
		_ = f.tenants.DeleteTenant(ctx, t.ID)
		return err
	}
	return nil
}

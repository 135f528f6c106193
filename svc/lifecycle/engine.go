package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/launderly/launderly/pkg/currency"
	"github.com/launderly/launderly/pkg/gateway"
	"github.com/launderly/launderly/pkg/intent"
	"github.com/launderly/launderly/pkg/notification"
	"github.com/launderly/launderly/pkg/password"
	"github.com/launderly/launderly/pkg/plan"
	"github.com/launderly/launderly/pkg/registration"
	"github.com/launderly/launderly/pkg/tenant"
)

// SignupRequest is the full registration submission.
type SignupRequest struct {
	AdminName      string                  `json:"admin_name"`
	AdminEmail     string                  `json:"admin_email"`
	Password       string                  `json:"password"`
	CompanyName    string                  `json:"company_name"`
	CountryCode    string                  `json:"country_code"`
	Phone          string                  `json:"phone,omitempty"`
	Address        string                  `json:"address,omitempty"`
	CurrencySymbol string                  `json:"currency_symbol,omitempty"`
	Plan           string                  `json:"plan"`
	ItemTypes      []string                `json:"item_types,omitempty"`
	ServiceTypes   []string                `json:"service_types,omitempty"`
	PriceRows      []registration.PriceRow `json:"price_rows,omitempty"`
}

// Validate checks the request's shape. Business rules (email taken, plan
// pricing) are checked later, against live state.
func (r SignupRequest) Validate() error {
	if !notification.ValidEmail(r.AdminEmail) {
		return fmt.Errorf("%w: admin email is not a valid address", ErrValidation)
	}
	if strings.TrimSpace(r.AdminName) == "" {
		return fmt.Errorf("%w: admin name is required", ErrValidation)
	}
	if strings.TrimSpace(r.CompanyName) == "" {
		return fmt.Errorf("%w: company name is required", ErrValidation)
	}
	if strings.TrimSpace(r.CountryCode) == "" {
		return fmt.Errorf("%w: country code is required", ErrValidation)
	}
	if err := password.Validate(r.Password); err != nil {
		return errors.Join(ErrValidation, err)
	}
	if _, err := plan.ParseTier(r.Plan); err != nil {
		return errors.Join(ErrValidation, err)
	}
	return nil
}

// InitiationResult tells the caller how to proceed: straight to OTP entry for
// trial signups, or through the hosted payment page first.
type InitiationResult struct {
	PaymentRequired bool   `json:"payment_required"`
	PaymentLink     string `json:"payment_link,omitempty"`
	TransactionID   string `json:"transaction_id,omitempty"`
}

// PlanChange is the outcome of initiating a plan change.
type PlanChange struct {
	TransactionID string `json:"transaction_id"`
	PaymentLink   string `json:"payment_link"`
}

// Deps are the Engine's collaborators. All fields are required except
// RedirectBaseURL, which defaults to "/" for installations that handle
// post-payment navigation client-side.
type Deps struct {
	Pending   registration.Store
	Tenants   tenant.Store
	Intents   intent.Store
	Catalog   *plan.Catalog
	Currency  *currency.Resolver
	Gateway   gateway.PaymentGateway
	Notifier  notification.CodeSender
	Finalizer *Finalizer
	Logger    *slog.Logger

	// RedirectBaseURL is where the provider sends the payer after checkout;
	// the transaction id is appended as a query parameter.
	RedirectBaseURL string
}

// Engine implements the subscription lifecycle operations.
type Engine struct {
	deps Deps
	log  *slog.Logger
	now  func() time.Time
}

// NewEngine creates an Engine after verifying its dependencies.
func NewEngine(deps Deps, opts ...EngineOption) (*Engine, error) {
	switch {
	case deps.Pending == nil, deps.Tenants == nil, deps.Intents == nil,
		deps.Catalog == nil, deps.Currency == nil, deps.Gateway == nil,
		deps.Notifier == nil, deps.Finalizer == nil:
		return nil, errors.New("lifecycle: engine dependencies must not be nil")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.RedirectBaseURL == "" {
		deps.RedirectBaseURL = "/"
	}

	e := &Engine{
		deps: deps,
		log:  deps.Logger.With(slog.String("component", "lifecycle")),
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithClock overrides the engine's clock, for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// InitiateRegistration starts a signup. For trial plans the customer only
// needs the emailed code; for paid plans a payment link is issued as well.
//
// Failure at any later step rolls the earlier steps back, so a retry of the
// same signup never collides with leftovers of a failed attempt.
func (e *Engine) InitiateRegistration(ctx context.Context, req SignupRequest) (*InitiationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	email := registration.NormalizeEmail(req.AdminEmail)
	if _, err := e.deps.Tenants.GetUserByEmail(ctx, email); err == nil {
		return nil, tenant.ErrEmailTaken
	} else if !errors.Is(err, tenant.ErrUserNotFound) {
		return nil, err
	}

	tier, _ := plan.ParseTier(req.Plan)
	p, err := e.deps.Catalog.Get(ctx, tier)
	if err != nil {
		return nil, err
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	payload := registration.Payload{
		AdminName:      strings.TrimSpace(req.AdminName),
		AdminEmail:     email,
		PasswordHash:   hash,
		CompanyName:    strings.TrimSpace(req.CompanyName),
		CountryCode:    strings.ToUpper(strings.TrimSpace(req.CountryCode)),
		Phone:          req.Phone,
		Address:        req.Address,
		CurrencySymbol: req.CurrencySymbol,
		PlanTier:       p.Tier,
		ItemTypes:      req.ItemTypes,
		ServiceTypes:   req.ServiceTypes,
		PriceRows:      req.PriceRows,
	}

	if p.IsFree() {
		return e.initiateTrial(ctx, email, payload)
	}
	return e.initiatePaid(ctx, email, payload, p)
}

func (e *Engine) initiateTrial(ctx context.Context, email string, payload registration.Payload) (*InitiationResult, error) {
	code, err := e.deps.Pending.Create(ctx, email, payload)
	if err != nil {
		return nil, err
	}

	if err := e.deps.Notifier.SendVerificationCode(ctx, email, code); err != nil {
		_, _ = e.deps.Pending.Delete(ctx, email)
		return nil, errors.Join(ErrNotificationFailed, err)
	}

	e.log.InfoContext(ctx, "trial registration initiated",
		slog.String("plan", string(payload.PlanTier)))
	return &InitiationResult{PaymentRequired: false}, nil
}

func (e *Engine) initiatePaid(ctx context.Context, email string, payload registration.Payload, p plan.Plan) (*InitiationResult, error) {
	// resolve the price before anything is persisted, so a misconfigured
	// plan fails the call without leaving a pending record behind
	price, err := e.deps.Currency.ResolvePrice(p, payload.CountryCode)
	if err != nil {
		return nil, err
	}

	code, err := e.deps.Pending.Create(ctx, email, payload)
	if err != nil {
		return nil, err
	}

	txID := intent.NewTransactionID(intent.PurposeRegistration)
	rollback := func() {
		_ = e.deps.Intents.Delete(ctx, txID)
		_, _ = e.deps.Pending.Delete(ctx, email)
	}

	if err := e.deps.Pending.AttachTransaction(ctx, email, txID); err != nil {
		rollback()
		return nil, err
	}

	now := e.now()
	if err := e.deps.Intents.Create(ctx, &intent.PaymentIntent{
		TransactionID: txID,
		Purpose:       intent.PurposeRegistration,
		ReferenceID:   email,
		PlanTier:      p.Tier,
		Amount:        price.Amount,
		Currency:      price.Currency,
		Status:        intent.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}); err != nil {
		rollback()
		return nil, err
	}

	link, err := e.deps.Gateway.CreatePaymentLink(ctx, gateway.LinkRequest{
		Amount:        price.Amount,
		Currency:      price.Currency,
		CountryCode:   payload.CountryCode,
		TransactionID: txID,
		Description:   fmt.Sprintf("%s plan subscription for %s", p.Name, payload.CompanyName),
		RedirectURL:   e.redirectURL(txID),
		PayerName:     payload.AdminName,
		PayerEmail:    email,
	})
	if err != nil {
		rollback()
		return nil, err
	}

	if err := e.deps.Notifier.SendVerificationCode(ctx, email, code); err != nil {
		rollback()
		return nil, errors.Join(ErrNotificationFailed, err)
	}

	e.log.InfoContext(ctx, "paid registration initiated",
		slog.String("plan", string(p.Tier)),
		slog.String("transaction_id", txID),
		slog.String("currency", price.Currency),
		slog.Int64("amount", price.Amount))

	return &InitiationResult{
		PaymentRequired: true,
		PaymentLink:     link.URL,
		TransactionID:   txID,
	}, nil
}

func (e *Engine) redirectURL(txID string) string {
	u, err := url.Parse(e.deps.RedirectBaseURL)
	if err != nil {
		return e.deps.RedirectBaseURL
	}
	q := u.Query()
	q.Set("transaction_id", txID)
	u.RawQuery = q.Encode()
	return u.String()
}

// VerifyOTPAndFinalize completes a trial signup: checks the emailed code and
// creates the tenant. Paid registrations must go through the payment path;
// the code alone does not prove anything was paid.
func (e *Engine) VerifyOTPAndFinalize(ctx context.Context, email, code string) (*FinalizeResult, error) {
	pr, err := e.deps.Pending.Verify(ctx, registration.NormalizeEmail(email), code)
	if err != nil {
		return nil, err
	}

	p, err := e.deps.Catalog.Get(ctx, pr.Payload.PlanTier)
	if err != nil {
		return nil, err
	}
	if !p.IsFree() {
		return nil, ErrPaymentRequired
	}

	return e.deps.Finalizer.Finalize(ctx, pr)
}

// ConfirmPaymentAndFinalize completes a paid signup once the provider
// reports the transaction as successful. Safe under at-least-once delivery:
// the finalizer admits exactly one caller per registration, and the loser
// gets registration.ErrNotFound.
func (e *Engine) ConfirmPaymentAndFinalize(ctx context.Context, transactionID string) (*FinalizeResult, error) {
	pi, err := e.deps.Intents.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if pi.Purpose != intent.PurposeRegistration {
		return nil, intent.ErrNotFound
	}

	pr, err := e.deps.Pending.FindByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	status, err := e.deps.Gateway.TransactionStatus(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	switch status {
	case gateway.TxSuccess:
		// fall through to finalize
	case gateway.TxFailed:
		if err := e.deps.Intents.SetStatus(ctx, transactionID, intent.StatusFailed); err != nil {
			e.log.WarnContext(ctx, "failed to mark intent failed",
				slog.String("transaction_id", transactionID), slog.Any("error", err))
		}
		return nil, ErrPaymentNotConfirmed
	default:
		return nil, ErrPaymentNotConfirmed
	}

	res, err := e.deps.Finalizer.Finalize(ctx, pr)
	if err != nil {
		return nil, err
	}
	if err := e.deps.Intents.SetStatus(ctx, transactionID, intent.StatusSucceeded); err != nil {
		e.log.WarnContext(ctx, "failed to mark intent succeeded",
			slog.String("transaction_id", transactionID), slog.Any("error", err))
	}
	return res, nil
}

// ChangePlan starts a paid plan change for an existing tenant and returns
// the payment link the admin completes it through.
func (e *Engine) ChangePlan(ctx context.Context, tenantID uuid.UUID, planName string) (*PlanChange, error) {
	tier, err := plan.ParseTier(planName)
	if err != nil {
		return nil, errors.Join(ErrValidation, err)
	}

	t, err := e.deps.Tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t.PlanTier == tier && t.Status == tenant.StatusActive {
		return nil, ErrAlreadyOnPlan
	}

	p, err := e.deps.Catalog.Get(ctx, tier)
	if err != nil {
		return nil, err
	}
	if p.IsFree() {
		return nil, fmt.Errorf("%w: cannot change to the free trial plan", ErrValidation)
	}

	price, err := e.deps.Currency.ResolvePrice(p, t.CountryCode)
	if err != nil {
		return nil, err
	}

	txID := intent.NewTransactionID(intent.PurposeUpgrade)
	now := e.now()
	if err := e.deps.Intents.Create(ctx, &intent.PaymentIntent{
		TransactionID: txID,
		Purpose:       intent.PurposeUpgrade,
		ReferenceID:   tenantID.String(),
		PlanTier:      tier,
		Amount:        price.Amount,
		Currency:      price.Currency,
		Status:        intent.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}); err != nil {
		return nil, err
	}

	link, err := e.deps.Gateway.CreatePaymentLink(ctx, gateway.LinkRequest{
		Amount:        price.Amount,
		Currency:      price.Currency,
		CountryCode:   t.CountryCode,
		TransactionID: txID,
		Description:   fmt.Sprintf("Plan change to %s for %s", p.Name, t.Name),
		RedirectURL:   e.redirectURL(txID),
		PayerName:     t.Name,
	})
	if err != nil {
		_ = e.deps.Intents.Delete(ctx, txID)
		return nil, err
	}

	e.log.InfoContext(ctx, "plan change initiated",
		slog.String("tenant_id", tenantID.String()),
		slog.String("plan", string(tier)),
		slog.String("transaction_id", txID))

	return &PlanChange{TransactionID: txID, PaymentLink: link.URL}, nil
}

// ConfirmUpgrade applies a plan change once the provider reports its payment
// as successful: the tenant goes active on the new plan with a fresh billing
// anchor and no trial window. Calling it again for an already-settled intent
// returns the tenant without touching the billing anchor.
func (e *Engine) ConfirmUpgrade(ctx context.Context, transactionID string) (*tenant.Tenant, error) {
	pi, err := e.deps.Intents.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if pi.Purpose != intent.PurposeUpgrade {
		return nil, intent.ErrNotFound
	}

	tenantID, err := uuid.Parse(pi.ReferenceID)
	if err != nil {
		return nil, fmt.Errorf("intent %s has malformed tenant reference: %w", transactionID, err)
	}

	if pi.Status == intent.StatusSucceeded {
		return e.deps.Tenants.GetTenant(ctx, tenantID)
	}

	status, err := e.deps.Gateway.TransactionStatus(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	switch status {
	case gateway.TxSuccess:
		// fall through to activate
	case gateway.TxFailed:
		if err := e.deps.Intents.SetStatus(ctx, transactionID, intent.StatusFailed); err != nil {
			e.log.WarnContext(ctx, "failed to mark intent failed",
				slog.String("transaction_id", transactionID), slog.Any("error", err))
		}
		return nil, ErrPaymentNotConfirmed
	default:
		return nil, ErrPaymentNotConfirmed
	}

	nextBilling := e.now().UTC().AddDate(0, 1, 0)
	if err := e.deps.Tenants.ActivatePlan(ctx, tenantID, pi.PlanTier, nextBilling); err != nil {
		return nil, err
	}
	if err := e.deps.Intents.SetStatus(ctx, transactionID, intent.StatusSucceeded); err != nil {
		e.log.WarnContext(ctx, "failed to mark intent succeeded",
			slog.String("transaction_id", transactionID), slog.Any("error", err))
	}

	e.log.InfoContext(ctx, "plan change confirmed",
		slog.String("tenant_id", tenantID.String()),
		slog.String("plan", string(pi.PlanTier)),
		slog.String("transaction_id", transactionID))

	return e.deps.Tenants.GetTenant(ctx, tenantID)
}

package lifecycle_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launderly/launderly/pkg/currency"
	"github.com/launderly/launderly/pkg/gateway"
	"github.com/launderly/launderly/pkg/intent"
	"github.com/launderly/launderly/pkg/plan"
	"github.com/launderly/launderly/pkg/registration"
	"github.com/launderly/launderly/pkg/tenant"
	"github.com/launderly/launderly/svc/lifecycle"
)

func TestInitiateRegistration_Validation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*lifecycle.SignupRequest)
	}{
		{"bad email", func(r *lifecycle.SignupRequest) { r.AdminEmail = "not-an-email" }},
		{"empty admin name", func(r *lifecycle.SignupRequest) { r.AdminName = "  " }},
		{"empty company name", func(r *lifecycle.SignupRequest) { r.CompanyName = "" }},
		{"empty country", func(r *lifecycle.SignupRequest) { r.CountryCode = "" }},
		{"short password", func(r *lifecycle.SignupRequest) { r.Password = "short" }},
		{"unknown plan", func(r *lifecycle.SignupRequest) { r.Plan = "platinum" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := trialSignup()
			tc.mutate(&req)

			_, err := env.engine.InitiateRegistration(ctx, req)
			require.ErrorIs(t, err, lifecycle.ErrValidation)
		})
	}
}

func TestInitiateRegistration_Trial(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.engine.InitiateRegistration(ctx, trialSignup())
	require.NoError(t, err)
	assert.False(t, res.PaymentRequired)
	assert.Empty(t, res.PaymentLink)

	// the code that was "sent" verifies against the stored record
	code := env.notifier.codeFor(t, "ada@example.com")
	pr, err := env.pending.Verify(ctx, "ada@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, plan.TierTrial, pr.Payload.PlanTier)
	assert.NotEqual(t, "correct horse", pr.Payload.PasswordHash)
}

func TestInitiateRegistration_EmailTaken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.tenants.CreateUser(ctx, &tenant.User{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Email:    "ada@example.com",
		Role:     tenant.RoleAdmin,
	}))

	_, err := env.engine.InitiateRegistration(ctx, trialSignup())
	require.ErrorIs(t, err, tenant.ErrEmailTaken)
}

func TestInitiateRegistration_Paid(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.engine.InitiateRegistration(ctx, paidSignup())
	require.NoError(t, err)
	assert.True(t, res.PaymentRequired)
	assert.NotEmpty(t, res.TransactionID)
	assert.Equal(t, "https://pay.test/"+res.TransactionID, res.PaymentLink)

	// CM settles in XAF and the Pro plan has an XAF price
	link := env.gw.lastLink(t)
	assert.Equal(t, "XAF", link.Currency)
	assert.EqualValues(t, 5000000, link.Amount)
	assert.Contains(t, link.RedirectURL, "transaction_id="+res.TransactionID)

	pr, err := env.pending.FindByTransaction(ctx, res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", pr.Email)

	pi, err := env.intents.Get(ctx, res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, intent.PurposeRegistration, pi.Purpose)
	assert.Equal(t, intent.StatusPending, pi.Status)
	assert.Equal(t, "ada@example.com", pi.ReferenceID)
}

func TestInitiateRegistration_PriceFallsBackToBaseCurrency(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	// GB settles in GBP; no plan carries a GBP price, so the USD base
	// price applies
	req := paidSignup()
	req.Plan = "basic"
	req.CountryCode = "GB"

	_, err := env.engine.InitiateRegistration(ctx, req)
	require.NoError(t, err)

	link := env.gw.lastLink(t)
	assert.Equal(t, "USD", link.Currency)
	assert.EqualValues(t, 2900, link.Amount)
}

func TestInitiateRegistration_PricingNotConfigured(t *testing.T) {
	t.Parallel()

	// a paid plan with no prices at all is an operator error
	plans := plan.DefaultPlans()
	for i := range plans {
		if plans[i].Tier == plan.TierPro {
			plans[i].Prices = nil
		}
	}
	env := newTestEnv(t)
	engine := newEngineWithCatalog(t, env, plan.NewCatalog(plan.NewMemoryStore(plans...)))

	_, err := engine.InitiateRegistration(context.Background(), paidSignup())
	require.ErrorIs(t, err, currency.ErrPricingNotConfigured)

	// price resolution failed before anything was persisted
	_, err = env.pending.Verify(context.Background(), "ada@example.com", "000000")
	require.ErrorIs(t, err, registration.ErrNotFound)
}

func TestInitiateRegistration_NotificationFailureRollsBack(t *testing.T) {
	t.Parallel()

	for _, planName := range []string{"trial", "pro"} {
		t.Run(planName, func(t *testing.T) {
			env := newTestEnv(t)
			env.notifier.sendErr = errors.New("smtp down")
			ctx := context.Background()

			req := trialSignup()
			req.Plan = planName

			_, err := env.engine.InitiateRegistration(ctx, req)
			require.ErrorIs(t, err, lifecycle.ErrNotificationFailed)

			// no pending record survives a failed initiation
			_, err = env.pending.Verify(ctx, "ada@example.com", "000000")
			require.ErrorIs(t, err, registration.ErrNotFound)
		})
	}
}

func TestInitiateRegistration_GatewayFailureRollsBack(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.gw.linkErr = gateway.ErrUnavailable
	ctx := context.Background()

	_, err := env.engine.InitiateRegistration(ctx, paidSignup())
	require.ErrorIs(t, err, gateway.ErrUnavailable)

	_, err = env.pending.Verify(ctx, "ada@example.com", "000000")
	require.ErrorIs(t, err, registration.ErrNotFound)
	assert.Equal(t, 0, env.tenants.TenantCount())
}

func TestVerifyOTPAndFinalize(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.engine.InitiateRegistration(ctx, trialSignup())
	require.NoError(t, err)
	code := env.notifier.codeFor(t, "ada@example.com")

	before := time.Now().UTC()
	res, err := env.engine.VerifyOTPAndFinalize(ctx, "ada@example.com", code)
	require.NoError(t, err)

	assert.Equal(t, tenant.StatusTrialing, res.Tenant.Status)
	require.NotNil(t, res.Tenant.TrialEndsAt)
	assert.WithinDuration(t, before.AddDate(0, 0, 30), *res.Tenant.TrialEndsAt, 5*time.Second)
	assert.Nil(t, res.Tenant.NextBillingAt)

	assert.Equal(t, tenant.RoleAdmin, res.User.Role)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.NotEmpty(t, res.Token)

	settings, ok := env.tenants.Settings(res.Tenant.ID)
	require.True(t, ok)
	assert.Equal(t, "Ada's Laundry", settings.CompanyName)
	assert.Len(t, env.tenants.PriceRowsFor(res.Tenant.ID), 1)
}

func TestVerifyOTPAndFinalize_WrongCode(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.engine.InitiateRegistration(ctx, trialSignup())
	require.NoError(t, err)

	_, err = env.engine.VerifyOTPAndFinalize(ctx, "ada@example.com", "000000")
	require.ErrorIs(t, err, registration.ErrInvalidCode)
	assert.Equal(t, 0, env.tenants.TenantCount())
}

func TestVerifyOTPAndFinalize_PaidPlanNeedsPayment(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.engine.InitiateRegistration(ctx, paidSignup())
	require.NoError(t, err)
	code := env.notifier.codeFor(t, "ada@example.com")

	_, err = env.engine.VerifyOTPAndFinalize(ctx, "ada@example.com", code)
	require.ErrorIs(t, err, lifecycle.ErrPaymentRequired)
	assert.Equal(t, 0, env.tenants.TenantCount())
}

func TestConfirmPaymentAndFinalize(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.engine.InitiateRegistration(ctx, paidSignup())
	require.NoError(t, err)
	env.gw.settle(res.TransactionID, gateway.TxSuccess)

	before := time.Now().UTC()
	fin, err := env.engine.ConfirmPaymentAndFinalize(ctx, res.TransactionID)
	require.NoError(t, err)

	assert.Equal(t, tenant.StatusActive, fin.Tenant.Status)
	require.NotNil(t, fin.Tenant.NextBillingAt)
	assert.WithinDuration(t, before.AddDate(0, 1, 0), *fin.Tenant.NextBillingAt, 5*time.Second)
	assert.Nil(t, fin.Tenant.TrialEndsAt)
	assert.Equal(t, plan.TierPro, fin.Tenant.PlanTier)

	pi, err := env.intents.Get(ctx, res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, intent.StatusSucceeded, pi.Status)
}

func TestConfirmPaymentAndFinalize_NotConfirmed(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.engine.InitiateRegistration(ctx, paidSignup())
	require.NoError(t, err)

	// provider still reports pending
	_, err = env.engine.ConfirmPaymentAndFinalize(ctx, res.TransactionID)
	require.ErrorIs(t, err, lifecycle.ErrPaymentNotConfirmed)
	assert.Equal(t, 0, env.tenants.TenantCount())

	// failed payments keep the pending record so the customer can retry,
	// but the intent is marked failed
	env.gw.settle(res.TransactionID, gateway.TxFailed)
	_, err = env.engine.ConfirmPaymentAndFinalize(ctx, res.TransactionID)
	require.ErrorIs(t, err, lifecycle.ErrPaymentNotConfirmed)

	pi, err := env.intents.Get(ctx, res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, intent.StatusFailed, pi.Status)
}

func TestConfirmPaymentAndFinalize_UnknownTransaction(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	_, err := env.engine.ConfirmPaymentAndFinalize(context.Background(), "reg_"+uuid.NewString())
	require.ErrorIs(t, err, intent.ErrNotFound)
}

func TestConfirmPaymentAndFinalize_SecondCallLoses(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.engine.InitiateRegistration(ctx, paidSignup())
	require.NoError(t, err)
	env.gw.settle(res.TransactionID, gateway.TxSuccess)

	_, err = env.engine.ConfirmPaymentAndFinalize(ctx, res.TransactionID)
	require.NoError(t, err)

	// at-least-once delivery: the webhook may fire after the poll path
	// already finalized
	_, err = env.engine.ConfirmPaymentAndFinalize(ctx, res.TransactionID)
	require.ErrorIs(t, err, registration.ErrNotFound)
	assert.Equal(t, 1, env.tenants.TenantCount())
}

func TestConfirmPaymentAndFinalize_ExpiredPending(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	clock := func() time.Time { return now }
	env := newTestEnvWithPending(t, registration.NewMemoryStore(registration.WithClock(clock)))
	ctx := context.Background()

	res, err := env.engine.InitiateRegistration(ctx, paidSignup())
	require.NoError(t, err)
	env.gw.settle(res.TransactionID, gateway.TxSuccess)

	// webhook arrives after the registration's TTL elapsed
	now = now.Add(registration.DefaultTTL + time.Minute)

	_, err = env.engine.ConfirmPaymentAndFinalize(ctx, res.TransactionID)
	require.ErrorIs(t, err, registration.ErrNotFound)
	assert.Equal(t, 0, env.tenants.TenantCount())
}

func seedTenant(t *testing.T, env *testEnv, status tenant.SubscriptionStatus, tier plan.Tier) *tenant.Tenant {
	t.Helper()

	now := time.Now().UTC()
	tn := &tenant.Tenant{
		ID:          uuid.New(),
		Name:        "Ada's Laundry",
		CountryCode: "CM",
		PlanTier:    tier,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	switch status {
	case tenant.StatusTrialing:
		trialEnds := now.AddDate(0, 0, 30)
		tn.TrialEndsAt = &trialEnds
	case tenant.StatusActive:
		nextBilling := now.AddDate(0, 1, 0)
		tn.NextBillingAt = &nextBilling
	}
	require.NoError(t, env.tenants.CreateTenant(context.Background(), tn))
	return tn
}

func TestChangePlan(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	tn := seedTenant(t, env, tenant.StatusTrialing, plan.TierTrial)

	change, err := env.engine.ChangePlan(ctx, tn.ID, "growth")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(change.TransactionID, "upg_"))
	assert.Equal(t, "https://pay.test/"+change.TransactionID, change.PaymentLink)

	pi, err := env.intents.Get(ctx, change.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, intent.PurposeUpgrade, pi.Purpose)
	assert.Equal(t, tn.ID.String(), pi.ReferenceID)
	assert.Equal(t, plan.TierGrowth, pi.PlanTier)
	assert.Equal(t, "XAF", pi.Currency)
	assert.EqualValues(t, 3000000, pi.Amount)
}

func TestChangePlan_Rejections(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	active := seedTenant(t, env, tenant.StatusActive, plan.TierGrowth)

	_, err := env.engine.ChangePlan(ctx, active.ID, "growth")
	require.ErrorIs(t, err, lifecycle.ErrAlreadyOnPlan)

	_, err = env.engine.ChangePlan(ctx, active.ID, "trial")
	require.ErrorIs(t, err, lifecycle.ErrValidation)

	_, err = env.engine.ChangePlan(ctx, active.ID, "platinum")
	require.ErrorIs(t, err, lifecycle.ErrValidation)

	_, err = env.engine.ChangePlan(ctx, uuid.New(), "growth")
	require.ErrorIs(t, err, tenant.ErrTenantNotFound)
}

func TestChangePlan_SamePlanAllowedWhenPastDue(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	// re-subscribing to the current plan is how a past_due tenant pays up
	pastDue := seedTenant(t, env, tenant.StatusPastDue, plan.TierGrowth)

	change, err := env.engine.ChangePlan(ctx, pastDue.ID, "growth")
	require.NoError(t, err)
	assert.NotEmpty(t, change.PaymentLink)
}

func TestConfirmUpgrade(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	tn := seedTenant(t, env, tenant.StatusTrialing, plan.TierTrial)

	change, err := env.engine.ChangePlan(ctx, tn.ID, "growth")
	require.NoError(t, err)
	env.gw.settle(change.TransactionID, gateway.TxSuccess)

	before := time.Now().UTC()
	updated, err := env.engine.ConfirmUpgrade(ctx, change.TransactionID)
	require.NoError(t, err)

	assert.Equal(t, plan.TierGrowth, updated.PlanTier)
	assert.Equal(t, tenant.StatusActive, updated.Status)
	require.NotNil(t, updated.NextBillingAt)
	assert.WithinDuration(t, before.AddDate(0, 1, 0), *updated.NextBillingAt, 5*time.Second)
	assert.Nil(t, updated.TrialEndsAt, "trial window is cleared on upgrade")
}

func TestConfirmUpgrade_NotConfirmed(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	tn := seedTenant(t, env, tenant.StatusTrialing, plan.TierTrial)

	change, err := env.engine.ChangePlan(ctx, tn.ID, "growth")
	require.NoError(t, err)

	_, err = env.engine.ConfirmUpgrade(ctx, change.TransactionID)
	require.ErrorIs(t, err, lifecycle.ErrPaymentNotConfirmed)

	unchanged, err := env.tenants.GetTenant(ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.TierTrial, unchanged.PlanTier)
	assert.Equal(t, tenant.StatusTrialing, unchanged.Status)
}

func TestConfirmUpgrade_Idempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	tn := seedTenant(t, env, tenant.StatusTrialing, plan.TierTrial)

	change, err := env.engine.ChangePlan(ctx, tn.ID, "growth")
	require.NoError(t, err)
	env.gw.settle(change.TransactionID, gateway.TxSuccess)

	first, err := env.engine.ConfirmUpgrade(ctx, change.TransactionID)
	require.NoError(t, err)

	// the redelivered webhook must not push the billing anchor forward
	second, err := env.engine.ConfirmUpgrade(ctx, change.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, first.NextBillingAt, second.NextBillingAt)
}

func TestConfirmUpgrade_RejectsRegistrationIntent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.engine.InitiateRegistration(ctx, paidSignup())
	require.NoError(t, err)

	_, err = env.engine.ConfirmUpgrade(ctx, res.TransactionID)
	require.ErrorIs(t, err, intent.ErrNotFound)
}

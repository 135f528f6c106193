package lifecycle_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/launderly/launderly/pkg/currency"
	"github.com/launderly/launderly/pkg/gateway"
	"github.com/launderly/launderly/pkg/intent"
	"github.com/launderly/launderly/pkg/plan"
	"github.com/launderly/launderly/pkg/registration"
	"github.com/launderly/launderly/pkg/tenant"
	"github.com/launderly/launderly/pkg/token"
	"github.com/launderly/launderly/svc/lifecycle"
)

type fakeGateway struct {
	mu       sync.Mutex
	links    []gateway.LinkRequest
	linkErr  error
	statuses map[string]gateway.TxStatus
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: make(map[string]gateway.TxStatus)}
}

func (g *fakeGateway) CreatePaymentLink(ctx context.Context, req gateway.LinkRequest) (*gateway.PaymentLink, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.linkErr != nil {
		return nil, g.linkErr
	}
	g.links = append(g.links, req)
	return &gateway.PaymentLink{URL: "https://pay.test/" + req.TransactionID}, nil
}

func (g *fakeGateway) TransactionStatus(ctx context.Context, transactionID string) (gateway.TxStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if s, ok := g.statuses[transactionID]; ok {
		return s, nil
	}
	return gateway.TxPending, nil
}

func (g *fakeGateway) settle(transactionID string, status gateway.TxStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[transactionID] = status
}

func (g *fakeGateway) lastLink(t *testing.T) gateway.LinkRequest {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	require.NotEmpty(t, g.links)
	return g.links[len(g.links)-1]
}

type fakeNotifier struct {
	mu      sync.Mutex
	codes   map[string]string
	sendErr error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{codes: make(map[string]string)}
}

func (n *fakeNotifier) SendVerificationCode(ctx context.Context, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.sendErr != nil {
		return n.sendErr
	}
	n.codes[email] = code
	return nil
}

func (n *fakeNotifier) codeFor(t *testing.T, email string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	code, ok := n.codes[email]
	require.True(t, ok, "no verification code was sent to %s", email)
	return code
}

type testEnv struct {
	pending  registration.Store
	tenants  *tenant.MemoryStore
	intents  intent.Store
	catalog  *plan.Catalog
	gw       *fakeGateway
	notifier *fakeNotifier
	engine   *lifecycle.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithPending(t, registration.NewMemoryStore())
}

func newTestEnvWithPending(t *testing.T, pending registration.Store) *testEnv {
	t.Helper()

	env := &testEnv{
		pending:  pending,
		tenants:  tenant.NewMemoryStore(),
		intents:  intent.NewMemoryStore(),
		catalog:  plan.NewCatalog(plan.NewMemoryStore(plan.DefaultPlans()...)),
		gw:       newFakeGateway(),
		notifier: newFakeNotifier(),
	}

	issuer, err := token.NewIssuer("test-secret-test-secret", time.Hour)
	require.NoError(t, err)

	fin, err := lifecycle.NewFinalizer(env.pending, env.tenants, env.catalog, issuer, slog.Default())
	require.NoError(t, err)

	env.engine, err = lifecycle.NewEngine(lifecycle.Deps{
		Pending:         env.pending,
		Tenants:         env.tenants,
		Intents:         env.intents,
		Catalog:         env.catalog,
		Currency:        currency.MustNewResolver(currency.DefaultCountryTable()),
		Gateway:         env.gw,
		Notifier:        env.notifier,
		Finalizer:       fin,
		Logger:          slog.Default(),
		RedirectBaseURL: "https://app.test/signup/verify-payment",
	})
	require.NoError(t, err)
	return env
}

// newEngineWithCatalog rebuilds the env's engine around a different plan
// catalog, reusing every other collaborator.
func newEngineWithCatalog(t *testing.T, env *testEnv, catalog *plan.Catalog) *lifecycle.Engine {
	t.Helper()

	issuer, err := token.NewIssuer("test-secret-test-secret", time.Hour)
	require.NoError(t, err)

	fin, err := lifecycle.NewFinalizer(env.pending, env.tenants, catalog, issuer, slog.Default())
	require.NoError(t, err)

	engine, err := lifecycle.NewEngine(lifecycle.Deps{
		Pending:         env.pending,
		Tenants:         env.tenants,
		Intents:         env.intents,
		Catalog:         catalog,
		Currency:        currency.MustNewResolver(currency.DefaultCountryTable()),
		Gateway:         env.gw,
		Notifier:        env.notifier,
		Finalizer:       fin,
		Logger:          slog.Default(),
		RedirectBaseURL: "https://app.test/signup/verify-payment",
	})
	require.NoError(t, err)
	return engine
}

func trialSignup() lifecycle.SignupRequest {
	return lifecycle.SignupRequest{
		AdminName:   "Ada Owner",
		AdminEmail:  "ada@example.com",
		Password:    "correct horse",
		CompanyName: "Ada's Laundry",
		CountryCode: "CM",
		Plan:        "trial",
		PriceRows: []registration.PriceRow{
			{ItemType: "shirt", ServiceType: "wash", Amount: 500},
		},
	}
}

func paidSignup() lifecycle.SignupRequest {
	req := trialSignup()
	req.Plan = "pro"
	return req
}

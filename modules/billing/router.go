package billing

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/launderly/launderly/pkg/intent"
	"github.com/launderly/launderly/pkg/plan"
	"github.com/launderly/launderly/svc/lifecycle"
)

// Deps are the module's collaborators. Intents is read by the webhook
// receiver to route callbacks by payment purpose.
type Deps struct {
	Engine  *lifecycle.Engine
	Catalog *plan.Catalog
	Intents intent.Store
	Logger  *slog.Logger
}

// Router mounts the billing endpoints.
//
//	POST /signup                     start a registration
//	POST /signup/verify-otp          finalize a trial registration
//	POST /signup/verify-payment      finalize a paid registration (poll path)
//	POST /tenants/{tenantID}/plan    start a plan change
//	POST /plan/verify-upgrade        confirm a plan change (poll path)
//	POST /webhooks/payment-provider  provider confirmation callbacks
//	GET  /plans                      public plan listing
func Router(deps Deps) chi.Router {
	if deps.Engine == nil || deps.Catalog == nil || deps.Intents == nil {
		panic("billing: Engine, Catalog and Intents are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	h := &handlers{
		engine:  deps.Engine,
		catalog: deps.Catalog,
		intents: deps.Intents,
		log:     deps.Logger.With(slog.String("component", "billing")),
	}

	r := chi.NewRouter()
	r.Get("/plans", h.listPlans)
	r.Route("/signup", func(r chi.Router) {
		r.Post("/", h.signup)
		r.Post("/verify-otp", h.verifyOTP)
		r.Post("/verify-payment", h.verifyPayment)
	})
	r.Post("/tenants/{tenantID}/plan", h.changePlan)
	r.Post("/plan/verify-upgrade", h.verifyUpgrade)
	r.Post("/webhooks/payment-provider", h.paymentWebhook)
	return r
}

package billing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/launderly/launderly/pkg/binder"
	"github.com/launderly/launderly/pkg/intent"
	"github.com/launderly/launderly/pkg/plan"
	"github.com/launderly/launderly/pkg/tenant"
	"github.com/launderly/launderly/svc/lifecycle"
)

type handlers struct {
	engine  *lifecycle.Engine
	catalog *plan.Catalog
	intents intent.Store
	log     *slog.Logger
}

func (h *handlers) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.catalog.ActivePlans(r.Context())
	if err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"plans": plans})
}

func (h *handlers) signup(w http.ResponseWriter, r *http.Request) {
	var req lifecycle.SignupRequest
	if err := binder.BindJSON(r, &req); err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}

	res, err := h.engine.InitiateRegistration(r.Context(), req)
	if err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}
	respondJSON(w, http.StatusAccepted, res)
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// sessionResponse is returned by both finalize paths.
type sessionResponse struct {
	Token  string         `json:"token"`
	Tenant *tenant.Tenant `json:"tenant"`
	User   userResponse   `json:"user"`
}

// userResponse omits the password hash.
type userResponse struct {
	ID       uuid.UUID   `json:"id"`
	TenantID uuid.UUID   `json:"tenant_id"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Role     tenant.Role `json:"role"`
}

func newSessionResponse(res *lifecycle.FinalizeResult) sessionResponse {
	return sessionResponse{
		Token:  res.Token,
		Tenant: res.Tenant,
		User: userResponse{
			ID:       res.User.ID,
			TenantID: res.User.TenantID,
			Name:     res.User.Name,
			Email:    res.User.Email,
			Role:     res.User.Role,
		},
	}
}

func (h *handlers) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := binder.BindJSON(r, &req); err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}

	res, err := h.engine.VerifyOTPAndFinalize(r.Context(), req.Email, req.Code)
	if err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, newSessionResponse(res))
}

type verifyPaymentRequest struct {
	TransactionID string `json:"transaction_id"`
}

func (h *handlers) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := binder.BindJSON(r, &req); err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}

	res, err := h.engine.ConfirmPaymentAndFinalize(r.Context(), req.TransactionID)
	if err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, newSessionResponse(res))
}

type changePlanRequest struct {
	Plan string `json:"plan"`
}

func (h *handlers) changePlan(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		respondError(r.Context(), w, h.log, tenant.ErrTenantNotFound)
		return
	}

	var req changePlanRequest
	if err := binder.BindJSON(r, &req); err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}

	change, err := h.engine.ChangePlan(r.Context(), tenantID, req.Plan)
	if err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}
	respondJSON(w, http.StatusAccepted, change)
}

func (h *handlers) verifyUpgrade(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := binder.BindJSON(r, &req); err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}

	tn, err := h.engine.ConfirmUpgrade(r.Context(), req.TransactionID)
	if err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tenant": tn})
}

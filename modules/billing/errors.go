package billing

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/launderly/launderly/pkg/binder"
	"github.com/launderly/launderly/pkg/currency"
	"github.com/launderly/launderly/pkg/entitlement"
	"github.com/launderly/launderly/pkg/gateway"
	"github.com/launderly/launderly/pkg/intent"
	"github.com/launderly/launderly/pkg/plan"
	"github.com/launderly/launderly/pkg/registration"
	"github.com/launderly/launderly/pkg/tenant"
	"github.com/launderly/launderly/svc/lifecycle"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// mapError translates a domain error into an HTTP status and a stable
// machine-readable code. Messages for client errors carry the domain detail;
// server-side failures get a generic message so provider and storage
// internals never leak.
func mapError(err error) (int, errorResponse) {
	switch {
	case errors.Is(err, lifecycle.ErrValidation),
		errors.Is(err, binder.ErrFailedToParseJSON),
		errors.Is(err, binder.ErrUnsupportedMediaType),
		errors.Is(err, registration.ErrInvalidEmail):
		return http.StatusBadRequest, errorResponse{Code: "validation_error", Message: err.Error()}

	case errors.Is(err, registration.ErrInvalidCode):
		return http.StatusBadRequest, errorResponse{Code: "invalid_code", Message: "verification code is incorrect"}

	case errors.Is(err, registration.ErrNotFound),
		errors.Is(err, intent.ErrNotFound),
		errors.Is(err, plan.ErrPlanNotFound),
		errors.Is(err, tenant.ErrTenantNotFound):
		return http.StatusNotFound, errorResponse{Code: "not_found", Message: "resource not found or expired"}

	case errors.Is(err, tenant.ErrEmailTaken):
		return http.StatusConflict, errorResponse{Code: "email_taken", Message: "an account with this email already exists"}

	case errors.Is(err, lifecycle.ErrAlreadyOnPlan):
		return http.StatusConflict, errorResponse{Code: "already_on_plan", Message: "tenant is already subscribed to this plan"}

	case errors.Is(err, lifecycle.ErrPaymentRequired):
		return http.StatusPaymentRequired, errorResponse{Code: "payment_required", Message: "this plan requires payment before activation"}

	case errors.Is(err, lifecycle.ErrPaymentNotConfirmed):
		return http.StatusConflict, errorResponse{Code: "payment_not_confirmed", Message: "payment has not been confirmed yet"}

	case errors.Is(err, gateway.ErrRejected):
		return http.StatusBadRequest, errorResponse{Code: "payment_rejected", Message: "payment provider rejected the request"}

	case errors.Is(err, gateway.ErrUnavailable):
		return http.StatusBadGateway, errorResponse{Code: "payment_provider_error", Message: "payment provider error, try again"}

	case errors.Is(err, lifecycle.ErrNotificationFailed):
		return http.StatusBadGateway, errorResponse{Code: "notification_failed", Message: "could not deliver the verification code, try again"}

	case errors.Is(err, entitlement.ErrSubscriptionInactive):
		return http.StatusForbidden, errorResponse{Code: "subscription_inactive", Message: "subscription is not active"}

	case errors.Is(err, entitlement.ErrLimitReached):
		return http.StatusForbidden, errorResponse{Code: "limit_reached", Message: err.Error()}

	case errors.Is(err, currency.ErrPricingNotConfigured):
		// operator error: the plan has no usable price row, which is not the
		// customer's fault and not theirs to see in detail
		return http.StatusInternalServerError, errorResponse{Code: "pricing_not_configured", Message: "plan pricing is unavailable, contact support"}

	case errors.Is(err, lifecycle.ErrFinalizationFailed):
		// paid but not finalized: a support incident, distinct from a
		// payment failure
		return http.StatusInternalServerError, errorResponse{Code: "finalization_failed", Message: "payment received but account setup failed, contact support"}

	default:
		return http.StatusInternalServerError, errorResponse{Code: "internal_error", Message: "internal error"}
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(ctx context.Context, w http.ResponseWriter, log *slog.Logger, err error) {
	status, resp := mapError(err)
	if status >= 500 {
		log.ErrorContext(ctx, "request failed",
			slog.String("code", resp.Code),
			slog.Any("error", err))
	}
	respondJSON(w, status, resp)
}

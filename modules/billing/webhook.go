package billing

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/launderly/launderly/pkg/binder"
	"github.com/launderly/launderly/pkg/gateway"
	"github.com/launderly/launderly/pkg/intent"
	"github.com/launderly/launderly/pkg/registration"
	"github.com/launderly/launderly/svc/lifecycle"
)

type webhookRequest struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// paymentWebhook handles provider confirmation callbacks.
//
// The provider redelivers on any non-2xx response, so the status code is a
// retry decision, not an error report: non-retryable outcomes (stale
// transaction, registration already finalized, payment declined) return 200
// to stop redelivery, while transient failures (provider or storage outage)
// return 5xx so the provider tries again. The reported status is advisory
// only; confirmation always re-queries the provider.
func (h *handlers) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := binder.BindJSON(r, &req); err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}

	log := h.log.With(
		slog.String("transaction_id", req.TransactionID),
		slog.String("reported_status", req.Status))

	pi, err := h.intents.Get(r.Context(), req.TransactionID)
	if errors.Is(err, intent.ErrNotFound) {
		log.WarnContext(r.Context(), "webhook for unknown transaction")
		respondJSON(w, http.StatusOK, map[string]any{"received": true})
		return
	}
	if err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}

	switch pi.Purpose {
	case intent.PurposeRegistration:
		_, err = h.engine.ConfirmPaymentAndFinalize(r.Context(), req.TransactionID)
	case intent.PurposeUpgrade:
		_, err = h.engine.ConfirmUpgrade(r.Context(), req.TransactionID)
	default:
		log.WarnContext(r.Context(), "webhook for intent with unknown purpose",
			slog.String("purpose", string(pi.Purpose)))
		respondJSON(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]any{"received": true})

	case errors.Is(err, registration.ErrNotFound), errors.Is(err, intent.ErrNotFound):
		// expired registration or a confirmation race we lost; redelivery
		// cannot change the outcome
		log.InfoContext(r.Context(), "webhook outcome already settled")
		respondJSON(w, http.StatusOK, map[string]any{"received": true})

	case errors.Is(err, lifecycle.ErrPaymentNotConfirmed):
		// the provider reports pending or failed; it will call back if the
		// transaction settles later
		respondJSON(w, http.StatusOK, map[string]any{"received": true})

	case errors.Is(err, gateway.ErrUnavailable):
		log.WarnContext(r.Context(), "provider unavailable during webhook, requesting redelivery")
		respondJSON(w, http.StatusBadGateway, errorResponse{Code: "payment_provider_error", Message: "retry"})

	default:
		// storage failures and paid-but-not-finalized incidents: redeliver,
		// and keep the error visible server-side
		respondError(r.Context(), w, h.log, err)
	}
}

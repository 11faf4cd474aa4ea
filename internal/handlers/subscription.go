package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	pkghttp "github.com/ezhulati/texaslobbyorg-sub001/pkg/http"
)

// maxWebhookBytes is the largest event payload the processor sends.
const maxWebhookBytes = 65536

// SubscriptionServiceInterface covers checkout, upgrades and processor events.
type SubscriptionServiceInterface interface {
	CreateCheckoutSession(ctx context.Context, userID, tier string) (string, error)
	UpgradeSubscription(ctx context.Context, userID, tier string) error
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// SubscriptionHandler handles the payment routes.
type SubscriptionHandler struct {
	service SubscriptionServiceInterface
	logger  *slog.Logger
}

func NewSubscriptionHandler(service SubscriptionServiceInterface, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{service: service, logger: logger}
}

// TierRequest names a paid tier.
type TierRequest struct {
	Tier string `json:"tier" validate:"required,paid_tier"`
}

// Checkout handles POST /api/stripe/create-checkout-session
func (h *SubscriptionHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req TierRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	url, err := h.service.CreateCheckoutSession(r.Context(), user.ID, req.Tier)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Upgrade handles POST /api/stripe/upgrade-subscription
func (h *SubscriptionHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req TierRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.UpgradeSubscription(r.Context(), user.ID, req.Tier); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "tier": req.Tier})
}

// Webhook handles POST /api/stripe/webhook. The body is read raw because
// the signature covers the exact bytes.
func (h *SubscriptionHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

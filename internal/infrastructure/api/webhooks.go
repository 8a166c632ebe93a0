package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"cartesian-metadata-app/internal/domain"
)

const (
	// deliveryTTL is how long a webhook delivery id is remembered
	deliveryTTL = 24 * time.Hour
	// maxWebhookBytes caps a webhook body
	maxWebhookBytes = 5 << 20
)

// Webhook verifies, deduplicates and dispatches a platform webhook
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read webhook payload")
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(payload))

	if !h.deps.App.VerifyWebhookRequest(r) {
		h.logger.Warn().Str("shop", r.Header.Get("X-Shopify-Shop-Domain")).Msg("Webhook signature verification failed")
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	rawTopic := r.Header.Get("X-Shopify-Topic")
	if rawTopic == "" {
		writeError(w, http.StatusBadRequest, "missing X-Shopify-Topic header")
		return
	}

	event := &domain.WebhookEvent{
		Topic:      domain.NormalizeTopic(rawTopic),
		Shop:       domain.NormalizeShopDomain(r.Header.Get("X-Shopify-Shop-Domain")),
		DeliveryID: r.Header.Get("X-Shopify-Webhook-Id"),
		Payload:    payload,
		Verified:   true,
	}

	if !h.deps.Webhooks.Handles(event.Topic) {
		h.deps.Metrics.WebhookEvent(event.Topic, "unhandled")
		h.writeServiceError(w, r, domain.ErrUnhandledTopic)
		return
	}

	claimed := false
	if event.DeliveryID != "" && h.deps.Deliveries != nil {
		first, err := h.deps.Deliveries.FirstDelivery(ctx, event.DeliveryID, deliveryTTL)
		switch {
		case err != nil:
			h.logger.Warn().Err(err).Str("deliveryId", event.DeliveryID).Msg("Webhook dedup unavailable, dispatching anyway")
		case !first:
			h.logger.Info().
				Str("topic", event.Topic).
				Str("shop", event.Shop).
				Str("deliveryId", event.DeliveryID).
				Msg("Duplicate webhook delivery ignored")
			h.deps.Metrics.WebhookEvent(event.Topic, "duplicate")
			writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
			return
		default:
			claimed = true
		}
	}

	if err := h.deps.Webhooks.Dispatch(ctx, event); err != nil {
		if claimed {
			if err := h.deps.Deliveries.Release(ctx, event.DeliveryID); err != nil {
				h.logger.Warn().Err(err).Str("deliveryId", event.DeliveryID).Msg("Failed to release webhook delivery")
			}
		}
		if errors.Is(err, domain.ErrUnhandledTopic) {
			h.deps.Metrics.WebhookEvent(event.Topic, "unhandled")
			h.writeServiceError(w, r, err)
			return
		}
		h.logger.Error().
			Err(err).
			Str("topic", event.Topic).
			Str("shop", event.Shop).
			Msg("Failed to dispatch webhook event")
		h.deps.Metrics.WebhookEvent(event.Topic, "error")
		// 500 so the platform retries the delivery
		writeError(w, http.StatusInternalServerError, "failed to process webhook event")
		return
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Str("deliveryId", event.DeliveryID).
		Msg("Webhook processed")
	h.deps.Metrics.WebhookEvent(event.Topic, "processed")
	writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
}

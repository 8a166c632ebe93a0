package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"cartesian-metadata-app/internal/domain"

	"github.com/rs/zerolog"
)

// ShopRedactHandler handles the shop redaction webhook sent after uninstall
type ShopRedactHandler struct {
	logger zerolog.Logger
}

// NewShopRedactHandler creates a new shop redaction webhook handler
func NewShopRedactHandler(logger zerolog.Logger) *ShopRedactHandler {
	return &ShopRedactHandler{logger: logger}
}

// CanHandle returns true if this handler can process the given topic
func (h *ShopRedactHandler) CanHandle(topic string) bool {
	return topic == domain.TopicShopRedact
}

// Handle logs the redaction. The store row is kept for plan and usage history.
func (h *ShopRedactHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var payload struct {
		ShopID     int64  `json:"shop_id"`
		ShopDomain string `json:"shop_domain"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse shop redact payload: %w", err)
	}

	h.logger.Info().
		Str("shop", event.Shop).
		Int64("shopId", payload.ShopID).
		Msg("Shop redaction received")
	return nil
}

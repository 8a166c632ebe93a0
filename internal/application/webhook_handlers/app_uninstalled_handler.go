package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/ports"

	"github.com/rs/zerolog"
)

// AppUninstalledHandler handles app uninstalled webhook events
type AppUninstalledHandler struct {
	logger   zerolog.Logger
	sessions ports.SessionRepository
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(logger zerolog.Logger, sessions ports.SessionRepository) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		logger:   logger,
		sessions: sessions,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == domain.TopicAppUninstalled
}

// Handle deletes the shop's access token. The store record is kept so a
// reinstall resumes the same plan and usage.
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shopDomain := event.Shop
	if shopDomain == "" && len(event.Payload) > 0 {
		var shopData map[string]interface{}
		if err := json.Unmarshal(event.Payload, &shopData); err != nil {
			return fmt.Errorf("failed to parse app uninstalled webhook payload: %w", err)
		}
		if myshopifyDomain, ok := shopData["myshopify_domain"].(string); ok {
			shopDomain = myshopifyDomain
		} else if d, ok := shopData["domain"].(string); ok {
			shopDomain = d
		}
	}
	shopDomain = domain.NormalizeShopDomain(shopDomain)
	if shopDomain == "" {
		return fmt.Errorf("app uninstalled webhook carries no shop")
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", shopDomain).
		Msg("Processing app uninstalled webhook event")

	if err := h.sessions.Delete(ctx, shopDomain); err != nil {
		return fmt.Errorf("failed to delete session of %s: %w", shopDomain, err)
	}

	h.logger.Info().
		Str("shop", shopDomain).
		Msg("App uninstalled - session deleted, store record kept")

	return nil
}

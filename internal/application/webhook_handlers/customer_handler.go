package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"cartesian-metadata-app/internal/domain"

	"github.com/rs/zerolog"
)

// customerPrivacyPayload is the body of the customer privacy topics
type customerPrivacyPayload struct {
	ShopID     int64  `json:"shop_id"`
	ShopDomain string `json:"shop_domain"`
	Customer   struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	} `json:"customer"`
	OrdersRequested []int64 `json:"orders_requested"`
	OrdersToRedact  []int64 `json:"orders_to_redact"`
	DataRequest     struct {
		ID int64 `json:"id"`
	} `json:"data_request"`
}

// CustomerHandler handles the customer privacy webhooks. The app keeps no
// customer data, so both topics are acknowledged and logged.
type CustomerHandler struct {
	logger zerolog.Logger
}

// NewCustomerHandler creates a new customer privacy webhook handler
func NewCustomerHandler(logger zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{
		logger: logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *CustomerHandler) CanHandle(topic string) bool {
	return topic == domain.TopicCustomersDataRequest ||
		topic == domain.TopicCustomersRedact
}

// Handle processes a customer privacy webhook event
func (h *CustomerHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var payload customerPrivacyPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse customer webhook payload: %w", err)
	}

	switch event.Topic {
	case domain.TopicCustomersDataRequest:
		h.logger.Info().
			Str("shop", event.Shop).
			Int64("customerId", payload.Customer.ID).
			Int64("dataRequestId", payload.DataRequest.ID).
			Int("orders", len(payload.OrdersRequested)).
			Msg("Customer data request received, no customer data stored")
	case domain.TopicCustomersRedact:
		h.logger.Info().
			Str("shop", event.Shop).
			Int64("customerId", payload.Customer.ID).
			Int("orders", len(payload.OrdersToRedact)).
			Msg("Customer redaction received, no customer data stored")
	}

	return nil
}

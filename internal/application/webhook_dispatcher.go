package application

import (
	"context"
	"fmt"

	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/ports"

	"github.com/rs/zerolog"
)

// WebhookDispatcher routes verified webhook events to the handler owning their topic
type WebhookDispatcher struct {
	handlers []ports.WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates an empty dispatcher
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler. Handlers are consulted in registration order.
func (d *WebhookDispatcher) RegisterHandler(handler ports.WebhookHandler) {
	d.handlers = append(d.handlers, handler)
}

// Handles reports whether some handler owns topic
func (d *WebhookDispatcher) Handles(topic string) bool {
	return d.handlerFor(topic) != nil
}

// Dispatch runs the handler of event.Topic. It returns ErrUnhandledTopic when none claims it.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	handler := d.handlerFor(event.Topic)
	if handler == nil {
		d.logger.Warn().
			Str("topic", event.Topic).
			Str("shop", event.Shop).
			Msg("No handler registered for webhook topic")
		return fmt.Errorf("%w: %s", domain.ErrUnhandledTopic, event.Topic)
	}

	if err := handler.Handle(ctx, event); err != nil {
		return fmt.Errorf("failed to handle %s webhook: %w", event.Topic, err)
	}
	return nil
}

func (d *WebhookDispatcher) handlerFor(topic string) ports.WebhookHandler {
	for _, h := range d.handlers {
		if h.CanHandle(topic) {
			return h
		}
	}
	return nil
}

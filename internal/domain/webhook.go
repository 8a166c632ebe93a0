package domain

import "strings"

// Webhook topics handled by the app, in the platform's enum form
const (
	TopicAppUninstalled       = "APP_UNINSTALLED"
	TopicCustomersDataRequest = "CUSTOMERS_DATA_REQUEST"
	TopicCustomersRedact      = "CUSTOMERS_REDACT"
	TopicShopRedact           = "SHOP_REDACT"
)

// WebhookEvent represents a verified webhook delivery
type WebhookEvent struct {
	Topic      string `json:"topic"`
	Shop       string `json:"shop"`
	DeliveryID string `json:"delivery_id"`
	Payload    []byte `json:"-"`
	Verified   bool   `json:"verified"`
}

// NormalizeTopic converts a header topic such as "app/uninstalled" to "APP_UNINSTALLED"
func NormalizeTopic(topic string) string {
	topic = strings.TrimSpace(topic)
	topic = strings.NewReplacer("/", "_", "-", "_", ".", "_").Replace(topic)
	return strings.ToUpper(topic)
}

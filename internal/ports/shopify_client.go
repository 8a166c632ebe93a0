package ports

import (
	"context"
	"net/http"
	"net/url"
)

// GraphQLClient executes a GraphQL document against one shop's Admin API.
// goshopify's GraphQLService satisfies it.
type GraphQLClient interface {
	Query(ctx context.Context, query string, variables interface{}, resp interface{}) error
}

// ShopifyClientFactory builds GraphQL clients bound to one shop
type ShopifyClientFactory interface {
	ForShop(shop string, accessToken string) (GraphQLClient, error)
}

// ShopifyApp defines the app-level (not shop-scoped) platform operations
type ShopifyApp interface {
	// APIKey is the public key injected into the embedded client shell
	APIKey() string

	// Authentication
	AuthorizeURL(shop string, state string, redirectURI string) string
	ExchangeToken(ctx context.Context, shop string, code string) (string, error)

	// Signature checks
	VerifySignedURL(u *url.URL) (bool, error)
	VerifyWebhookRequest(r *http.Request) bool
}

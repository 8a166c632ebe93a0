package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/infrastructure/metrics"
	"cartesian-metadata-app/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

const serviceName = "shopify"

// ClientOptions configures how shop clients talk to the Admin API
type ClientOptions struct {
	APIKey     string
	APISecret  string
	Scopes     []string
	APIVersion string
	Timeout    time.Duration
}

type app struct {
	app     goshopify.App
	opts    ClientOptions
	http    *http.Client
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// App is the Shopify app adapter: it implements both ports.ShopifyApp and ports.ShopifyClientFactory
type App interface {
	ports.ShopifyApp
	ports.ShopifyClientFactory
}

// NewApp creates the Shopify app adapter
func NewApp(opts ClientOptions, m *metrics.Metrics, logger zerolog.Logger) App {
	return &app{
		app: goshopify.App{
			ApiKey:    opts.APIKey,
			ApiSecret: opts.APISecret,
			Scope:     strings.Join(opts.Scopes, ","),
		},
		opts:    opts,
		http:    &http.Client{Timeout: opts.Timeout},
		metrics: m,
		logger:  logger,
	}
}

func (a *app) APIKey() string {
	return a.opts.APIKey
}

// AuthorizeURL builds the install URL. It is built by hand because the library
// does not take a redirect_uri.
func (a *app) AuthorizeURL(shop string, state string, redirectURI string) string {
	return fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
		shop,
		url.QueryEscape(a.opts.APIKey),
		url.QueryEscape(strings.Join(a.opts.Scopes, ",")),
		url.QueryEscape(redirectURI),
		url.QueryEscape(state),
	)
}

func (a *app) ExchangeToken(ctx context.Context, shop string, code string) (string, error) {
	start := time.Now()
	token, err := a.app.GetAccessToken(ctx, shop, code)
	a.metrics.ObserveUpstream(serviceName, "oauth_access_token", start, err)
	if err != nil {
		return "", fmt.Errorf("failed to exchange token: %w", err)
	}
	return token, nil
}

func (a *app) VerifySignedURL(u *url.URL) (bool, error) {
	return a.app.VerifyAuthorizationURL(u)
}

func (a *app) VerifyWebhookRequest(r *http.Request) bool {
	return a.app.VerifyWebhookRequest(r)
}

// ForShop creates a GraphQL client bound to shop
func (a *app) ForShop(shop string, accessToken string) (ports.GraphQLClient, error) {
	client, err := goshopify.NewClient(a.app, shop, accessToken,
		goshopify.WithVersion(a.opts.APIVersion),
		goshopify.WithHTTPClient(a.http),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return NewInstrumentedClient(client.GraphQL, shop, a.metrics, a.logger), nil
}

type instrumentedClient struct {
	inner   ports.GraphQLClient
	shop    string
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewInstrumentedClient wraps a GraphQL client with logging and metrics keyed by operation name
func NewInstrumentedClient(inner ports.GraphQLClient, shop string, m *metrics.Metrics, logger zerolog.Logger) ports.GraphQLClient {
	return &instrumentedClient{inner: inner, shop: shop, metrics: m, logger: logger}
}

func (c *instrumentedClient) Query(ctx context.Context, query string, variables interface{}, resp interface{}) error {
	op := OperationName(query)
	start := time.Now()
	err := c.inner.Query(ctx, query, variables, resp)
	c.metrics.ObserveUpstream(serviceName, op, start, err)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("shop", c.shop).
			Str("operation", op).
			Msg("Shopify GraphQL request failed")
		return &domain.ErrUpstream{Service: serviceName, Err: err}
	}
	c.logger.Debug().
		Str("shop", c.shop).
		Str("operation", op).
		Dur("elapsed", time.Since(start)).
		Msg("Shopify GraphQL request completed")
	return nil
}

// CatalogProvider hands out shop-scoped catalogs
type CatalogProvider struct {
	clients ports.ShopifyClientFactory
	logger  zerolog.Logger
}

// NewCatalogProvider creates a provider backed by a client factory
func NewCatalogProvider(clients ports.ShopifyClientFactory, logger zerolog.Logger) *CatalogProvider {
	return &CatalogProvider{clients: clients, logger: logger}
}

func (p *CatalogProvider) ForSession(session *domain.Session) (ports.Catalog, error) {
	if session == nil || session.AccessToken == "" {
		return nil, &domain.ErrUnauthorized{Message: "no access token for shop"}
	}
	client, err := p.clients.ForShop(session.Shop, session.AccessToken)
	if err != nil {
		return nil, err
	}
	return NewCatalog(client), nil
}

package application_test

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"cartesian-metadata-app/internal/application"
	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/infrastructure/repository"
	"cartesian-metadata-app/internal/ports"

	"github.com/rs/zerolog"
)

const shop = "demo.myshopify.com"

var session = &domain.Session{Shop: shop, AccessToken: "shpat_test"}

func newStoreService(t *testing.T, freeLimit int) (*application.StoreService, ports.StoreRepository) {
	t.Helper()
	ctx := context.Background()
	db, err := repository.OpenSQL(ctx, "sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repository.NewSQLStoreRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	return application.NewStoreService(repo, freeLimit, zerolog.Nop()), repo
}

// fakeCatalog records calls and answers from canned values
type fakeCatalog struct {
	mu sync.Mutex

	page     *domain.ProductPage
	product  *domain.Product
	products map[string]*domain.Product // by gid; overrides product when set
	shopInfo *domain.ShopInfo
	subs     []domain.Subscription
	err      error

	updateErrs []domain.FieldError
	setErrs    []domain.FieldError
	lastEdits  []domain.MetafieldEdit
	lastSet    []domain.Metafield
	lastOpts   domain.ListProductsOptions

	// metaobjectErrs maps a product gid to the user errors its create returns
	metaobjectErrs map[string][]domain.FieldError
	created        []domain.Metaobject
}

func (f *fakeCatalog) ListProducts(ctx context.Context, opts domain.ListProductsOptions) (*domain.ProductPage, error) {
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakeCatalog) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	if f.products != nil {
		return f.products[productID], f.err
	}
	return f.product, f.err
}

func (f *fakeCatalog) GetShop(ctx context.Context) (*domain.ShopInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.shopInfo, nil
}

func (f *fakeCatalog) ActiveSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	return f.subs, f.err
}

func (f *fakeCatalog) CreateMetaobject(ctx context.Context, m domain.Metaobject) (*domain.Metaobject, []domain.FieldError, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, nil, f.err
	}
	product := m.Fields[0].Value
	if errs := f.metaobjectErrs[product]; len(errs) > 0 {
		return nil, errs, nil
	}
	f.created = append(f.created, m)
	m.ID = fmt.Sprintf("gid://shopify/Metaobject/%d", len(f.created))
	return &m, nil, nil
}

func (f *fakeCatalog) UpdateProductMetafields(ctx context.Context, productID string, edits []domain.MetafieldEdit) ([]domain.Metafield, []domain.FieldError, error) {
	f.lastEdits = edits
	if f.err != nil {
		return nil, nil, f.err
	}
	if len(f.updateErrs) > 0 {
		return nil, f.updateErrs, nil
	}
	out := make([]domain.Metafield, 0, len(edits))
	for i, e := range edits {
		out = append(out, domain.Metafield{ID: fmt.Sprintf("gid://shopify/Metafield/%d", i+1), Namespace: e.Namespace, Key: e.Key, Value: e.Value, Type: e.Type})
	}
	return out, nil, nil
}

func (f *fakeCatalog) SetMetafields(ctx context.Context, ownerID string, metafields []domain.Metafield) ([]domain.Metafield, []domain.FieldError, error) {
	f.lastSet = metafields
	if f.err != nil {
		return nil, nil, f.err
	}
	if len(f.setErrs) > 0 {
		return nil, f.setErrs, nil
	}
	out := make([]domain.Metafield, len(metafields))
	for i, m := range metafields {
		m.ID = fmt.Sprintf("gid://shopify/Metafield/%d", i+1)
		out[i] = m
	}
	return out, nil, nil
}

type fakeProvider struct {
	catalog *fakeCatalog
}

func (p fakeProvider) ForSession(s *domain.Session) (ports.Catalog, error) {
	if s == nil || s.AccessToken == "" {
		return nil, &domain.ErrUnauthorized{Message: "no access token for shop"}
	}
	return p.catalog, nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]*domain.Session{}}
}

func (f *fakeSessions) Save(ctx context.Context, s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.Shop] = s
	return nil
}

func (f *fakeSessions) Get(ctx context.Context, shop string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[shop], nil
}

func (f *fakeSessions) Delete(ctx context.Context, shop string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, shop)
	return nil
}

type fakeStates struct {
	states map[string]string
}

func (f *fakeStates) Put(ctx context.Context, state domain.OAuthState, ttl time.Duration) error {
	f.states[state.Nonce] = state.Shop
	return nil
}

func (f *fakeStates) Consume(ctx context.Context, nonce string) (string, bool, error) {
	shop, ok := f.states[nonce]
	delete(f.states, nonce)
	return shop, ok, nil
}

// fakeApp accepts any URL whose hmac parameter is "valid"
type fakeApp struct {
	token string
}

func (a fakeApp) APIKey() string { return "test-key" }

func (a fakeApp) AuthorizeURL(shop, state, redirectURI string) string {
	return "https://" + shop + "/admin/oauth/authorize?state=" + url.QueryEscape(state) + "&redirect_uri=" + url.QueryEscape(redirectURI)
}

func (a fakeApp) ExchangeToken(ctx context.Context, shop, code string) (string, error) {
	return a.token, nil
}

func (a fakeApp) VerifySignedURL(u *url.URL) (bool, error) {
	return u.Query().Get("hmac") == "valid", nil
}

func (a fakeApp) VerifyWebhookRequest(r *http.Request) bool {
	return r.Header.Get("X-Shopify-Hmac-Sha256") == "valid"
}

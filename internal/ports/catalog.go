package ports

import (
	"context"

	"cartesian-metadata-app/internal/domain"
)

// CatalogReader reads product and shop data for one shop
type CatalogReader interface {
	// ListProducts returns one page of products with their nested connections
	ListProducts(ctx context.Context, opts domain.ListProductsOptions) (*domain.ProductPage, error)

	// GetProduct returns a product with its full metafield list, or nil when absent
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)

	GetShop(ctx context.Context) (*domain.ShopInfo, error)
	ActiveSubscriptions(ctx context.Context) ([]domain.Subscription, error)
}

// CatalogWriter submits metadata mutations for one shop.
// A non-nil error means the call itself failed; user errors come back as FieldErrors.
type CatalogWriter interface {
	CreateMetaobject(ctx context.Context, metaobject domain.Metaobject) (*domain.Metaobject, []domain.FieldError, error)
	UpdateProductMetafields(ctx context.Context, productID string, edits []domain.MetafieldEdit) ([]domain.Metafield, []domain.FieldError, error)
	SetMetafields(ctx context.Context, ownerID string, metafields []domain.Metafield) ([]domain.Metafield, []domain.FieldError, error)
}

// Catalog is the full shop-scoped capability handed to handlers by the auth gate
type Catalog interface {
	CatalogReader
	CatalogWriter
}

// CatalogProvider binds a Catalog to an authenticated session
type CatalogProvider interface {
	ForSession(session *domain.Session) (Catalog, error)
}

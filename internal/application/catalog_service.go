package application

import (
	"context"

	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultPageSize is used when a listing does not ask for a size
const DefaultPageSize = 50

// CatalogService serves product listings and product metadata views
type CatalogService struct {
	catalogs ports.CatalogProvider
	logger   zerolog.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(catalogs ports.CatalogProvider, logger zerolog.Logger) *CatalogService {
	return &CatalogService{
		catalogs: catalogs,
		logger:   logger,
	}
}

// ListProducts returns one page of the product table
func (s *CatalogService) ListProducts(ctx context.Context, session *domain.Session, opts domain.ListProductsOptions) (*domain.ProductListing, error) {
	catalog, err := s.catalogs.ForSession(session)
	if err != nil {
		return nil, err
	}

	opts.First = clampPageSize(opts.First)
	page, err := catalog.ListProducts(ctx, opts)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", session.Shop).Msg("Failed to list products")
		return nil, err
	}

	listing := &domain.ProductListing{
		Products: make([]domain.ProductRow, 0, len(page.Products)),
		PageInfo: page.PageInfo,
	}
	for _, p := range page.Products {
		listing.Products = append(listing.Products, toProductRow(p))
	}
	return listing, nil
}

// GetProduct returns a product with its full metafield list. productID may be numeric or a gid.
func (s *CatalogService) GetProduct(ctx context.Context, session *domain.Session, productID string) (*domain.Product, error) {
	gid, err := domain.ProductGID(productID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.catalogs.ForSession(session)
	if err != nil {
		return nil, err
	}

	product, err := catalog.GetProduct(ctx, gid)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", session.Shop).Str("productId", gid).Msg("Failed to get product")
		return nil, err
	}
	if product == nil {
		return nil, &domain.ErrNotFound{Resource: "product", ID: gid}
	}
	for i := range product.Variants {
		product.Variants[i].Price = normalizePrice(product.Variants[i].Price)
		product.Variants[i].CompareAtPrice = normalizePrice(product.Variants[i].CompareAtPrice)
	}
	return product, nil
}

func clampPageSize(n int) int {
	switch {
	case n <= 0:
		return DefaultPageSize
	case n > domain.MaxPageSize:
		return domain.MaxPageSize
	default:
		return n
	}
}

// toProductRow flattens a product. Missing images or variants leave the cell empty.
func toProductRow(p domain.Product) domain.ProductRow {
	row := domain.ProductRow{
		ID:             p.ID,
		Title:          p.Title,
		Status:         p.Status,
		MetafieldCount: len(p.Metafields),
	}
	if len(p.Images) > 0 {
		row.Thumbnail = p.Images[0].URL
	}
	if len(p.Variants) > 0 {
		row.FirstVariantPrice = normalizePrice(p.Variants[0].Price)
	}
	return row
}

// normalizePrice renders a money string with two decimals, leaving unparsable input untouched
func normalizePrice(price string) string {
	if price == "" {
		return ""
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return price
	}
	return d.StringFixed(2)
}

package domain

// Image is a product image as returned by the platform
type Image struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	AltText string `json:"alt_text,omitempty"`
}

// Variant is the subset of variant data the dashboard shows
type Variant struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Price          string `json:"price"`
	CompareAtPrice string `json:"compare_at_price,omitempty"`
}

// Metafield is a typed key/value attribute attached to a product
type Metafield struct {
	ID        string `json:"id,omitempty"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

// Product is a platform product with its nested connections flattened to slices
type Product struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Handle     string      `json:"handle"`
	Status     string      `json:"status"`
	Images     []Image     `json:"images"`
	Variants   []Variant   `json:"variants"`
	Metafields []Metafield `json:"metafields"`
}

// ProductRow is one row of the product table
type ProductRow struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Status            string `json:"status"`
	Thumbnail         string `json:"thumbnail"`
	MetafieldCount    int    `json:"metafield_count"`
	FirstVariantPrice string `json:"first_variant_price"`
}

// PageInfo is the cursor state of a product listing
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor,omitempty"`
}

// ProductPage is one page of products
type ProductPage struct {
	Products []Product
	PageInfo PageInfo
}

// ListProductsOptions controls a product listing
type ListProductsOptions struct {
	First int
	After string
	Query string
}

// MaxPageSize is the largest page the platform serves
const MaxPageSize = 250

// ShopInfo is the shop-level data read during install
type ShopInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Subscription is an app subscription attached to the installation
type Subscription struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ProductListing is one page of the product table
type ProductListing struct {
	Products []ProductRow `json:"products"`
	PageInfo PageInfo     `json:"page_info"`
}

package shopify

import (
	"context"
	"fmt"

	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/ports"
)

// Response shapes of the documents in queries.go

type imageNode struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

type variantNode struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Price          string  `json:"price"`
	CompareAtPrice *string `json:"compareAtPrice"`
}

type metafieldNode struct {
	ID        string `json:"id"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

type metafieldConnection struct {
	Edges []struct {
		Node metafieldNode `json:"node"`
	} `json:"edges"`
}

type productNode struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle"`
	Status string `json:"status"`
	Images struct {
		Edges []struct {
			Node imageNode `json:"node"`
		} `json:"edges"`
	} `json:"images"`
	Variants struct {
		Edges []struct {
			Node variantNode `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
	Metafields metafieldConnection `json:"metafields"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
}

type catalog struct {
	client ports.GraphQLClient
}

// NewCatalog adapts a shop-bound GraphQL client to the catalog ports
func NewCatalog(client ports.GraphQLClient) ports.Catalog {
	return &catalog{client: client}
}

func (c *catalog) ListProducts(ctx context.Context, opts domain.ListProductsOptions) (*domain.ProductPage, error) {
	vars := map[string]interface{}{
		"first":      opts.First,
		"imageCount": 1,
	}
	if opts.After != "" {
		vars["after"] = opts.After
	}
	if opts.Query != "" {
		vars["query"] = opts.Query
	}

	var resp struct {
		Products struct {
			Edges []struct {
				Node productNode `json:"node"`
			} `json:"edges"`
			PageInfo struct {
				HasNextPage bool    `json:"hasNextPage"`
				EndCursor   *string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"products"`
	}
	if err := c.client.Query(ctx, listProductsQuery, vars, &resp); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	page := &domain.ProductPage{
		Products: make([]domain.Product, 0, len(resp.Products.Edges)),
		PageInfo: domain.PageInfo{HasNextPage: resp.Products.PageInfo.HasNextPage},
	}
	if resp.Products.PageInfo.EndCursor != nil {
		page.PageInfo.EndCursor = *resp.Products.PageInfo.EndCursor
	}
	for _, edge := range resp.Products.Edges {
		page.Products = append(page.Products, edge.Node.toDomain())
	}
	return page, nil
}

func (c *catalog) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	vars := map[string]interface{}{
		"id":         productID,
		"imageCount": 10,
	}
	var resp struct {
		Product *productNode `json:"product"`
	}
	if err := c.client.Query(ctx, getProductQuery, vars, &resp); err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if resp.Product == nil {
		return nil, nil
	}
	product := resp.Product.toDomain()
	return &product, nil
}

func (c *catalog) GetShop(ctx context.Context) (*domain.ShopInfo, error) {
	var resp struct {
		Shop domain.ShopInfo `json:"shop"`
	}
	if err := c.client.Query(ctx, getShopQuery, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return &resp.Shop, nil
}

func (c *catalog) ActiveSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	var resp struct {
		CurrentAppInstallation struct {
			ActiveSubscriptions []domain.Subscription `json:"activeSubscriptions"`
		} `json:"currentAppInstallation"`
	}
	if err := c.client.Query(ctx, activeSubscriptionsQuery, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get app subscriptions: %w", err)
	}
	return resp.CurrentAppInstallation.ActiveSubscriptions, nil
}

func (c *catalog) CreateMetaobject(ctx context.Context, metaobject domain.Metaobject) (*domain.Metaobject, []domain.FieldError, error) {
	fields := make([]map[string]string, 0, len(metaobject.Fields))
	for _, f := range metaobject.Fields {
		fields = append(fields, map[string]string{"key": f.Key, "value": f.Value})
	}
	vars := map[string]interface{}{
		"metaobject": map[string]interface{}{
			"type":   metaobject.Type,
			"handle": metaobject.Handle,
			"fields": fields,
		},
	}

	var resp struct {
		MetaobjectCreate struct {
			Metaobject *struct {
				ID     string                   `json:"id"`
				Handle string                   `json:"handle"`
				Type   string                   `json:"type"`
				Fields []domain.MetaobjectField `json:"fields"`
			} `json:"metaobject"`
			UserErrors []userError `json:"userErrors"`
		} `json:"metaobjectCreate"`
	}
	if err := c.client.Query(ctx, metaobjectCreateMutation, vars, &resp); err != nil {
		return nil, nil, fmt.Errorf("failed to create metaobject: %w", err)
	}

	result := resp.MetaobjectCreate
	if len(result.UserErrors) > 0 || result.Metaobject == nil {
		return nil, toFieldErrors(result.UserErrors), nil
	}
	return &domain.Metaobject{
		ID:     result.Metaobject.ID,
		Handle: result.Metaobject.Handle,
		Type:   result.Metaobject.Type,
		Fields: result.Metaobject.Fields,
	}, nil, nil
}

func (c *catalog) UpdateProductMetafields(ctx context.Context, productID string, edits []domain.MetafieldEdit) ([]domain.Metafield, []domain.FieldError, error) {
	inputs := make([]map[string]interface{}, 0, len(edits))
	for _, e := range edits {
		input := map[string]interface{}{
			"value": e.Value,
			"type":  e.Type,
		}
		if e.ID != "" {
			input["id"] = e.ID
		} else {
			input["namespace"] = e.Namespace
			input["key"] = e.Key
		}
		inputs = append(inputs, input)
	}
	vars := map[string]interface{}{
		"input": map[string]interface{}{
			"id":         productID,
			"metafields": inputs,
		},
	}

	var resp struct {
		ProductUpdate struct {
			Product *struct {
				ID         string              `json:"id"`
				Metafields metafieldConnection `json:"metafields"`
			} `json:"product"`
			UserErrors []userError `json:"userErrors"`
		} `json:"productUpdate"`
	}
	if err := c.client.Query(ctx, productUpdateMutation, vars, &resp); err != nil {
		return nil, nil, fmt.Errorf("failed to update product metafields: %w", err)
	}

	result := resp.ProductUpdate
	if len(result.UserErrors) > 0 {
		return nil, toFieldErrors(result.UserErrors), nil
	}
	if result.Product == nil {
		return nil, nil, &domain.ErrNotFound{Resource: "product", ID: productID}
	}
	return result.Product.Metafields.toDomain(), nil, nil
}

func (c *catalog) SetMetafields(ctx context.Context, ownerID string, metafields []domain.Metafield) ([]domain.Metafield, []domain.FieldError, error) {
	inputs := make([]map[string]string, 0, len(metafields))
	for _, m := range metafields {
		inputs = append(inputs, map[string]string{
			"ownerId":   ownerID,
			"namespace": m.Namespace,
			"key":       m.Key,
			"value":     m.Value,
			"type":      m.Type,
		})
	}

	var resp struct {
		MetafieldsSet struct {
			Metafields []metafieldNode `json:"metafields"`
			UserErrors []userError     `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	if err := c.client.Query(ctx, metafieldsSetMutation, map[string]interface{}{"metafields": inputs}, &resp); err != nil {
		return nil, nil, fmt.Errorf("failed to set metafields: %w", err)
	}

	result := resp.MetafieldsSet
	if len(result.UserErrors) > 0 {
		return nil, toFieldErrors(result.UserErrors), nil
	}
	out := make([]domain.Metafield, 0, len(result.Metafields))
	for _, m := range result.Metafields {
		out = append(out, m.toDomain())
	}
	return out, nil, nil
}

func (n productNode) toDomain() domain.Product {
	p := domain.Product{
		ID:         n.ID,
		Title:      n.Title,
		Handle:     n.Handle,
		Status:     n.Status,
		Images:     make([]domain.Image, 0, len(n.Images.Edges)),
		Variants:   make([]domain.Variant, 0, len(n.Variants.Edges)),
		Metafields: n.Metafields.toDomain(),
	}
	for _, e := range n.Images.Edges {
		p.Images = append(p.Images, domain.Image{ID: e.Node.ID, URL: e.Node.URL, AltText: e.Node.AltText})
	}
	for _, e := range n.Variants.Edges {
		v := domain.Variant{ID: e.Node.ID, Title: e.Node.Title, Price: e.Node.Price}
		if e.Node.CompareAtPrice != nil {
			v.CompareAtPrice = *e.Node.CompareAtPrice
		}
		p.Variants = append(p.Variants, v)
	}
	return p
}

func (c metafieldConnection) toDomain() []domain.Metafield {
	out := make([]domain.Metafield, 0, len(c.Edges))
	for _, e := range c.Edges {
		out = append(out, e.Node.toDomain())
	}
	return out
}

func (n metafieldNode) toDomain() domain.Metafield {
	return domain.Metafield{
		ID:        n.ID,
		Namespace: n.Namespace,
		Key:       n.Key,
		Value:     n.Value,
		Type:      n.Type,
	}
}

func toFieldErrors(errs []userError) []domain.FieldError {
	out := make([]domain.FieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, domain.FieldError{Field: e.Field, Message: e.Message, Code: e.Code})
	}
	return out
}

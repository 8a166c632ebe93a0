package shopify

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Admin API documents. Values are always bound through variables.

const productFields = `
	id
	title
	handle
	status
	images(first: $imageCount) {
		edges {
			node {
				id
				url
				altText
			}
		}
	}
	variants(first: 10) {
		edges {
			node {
				id
				title
				price
				compareAtPrice
			}
		}
	}
	metafields(first: 250) {
		edges {
			node {
				id
				namespace
				key
				value
				type
			}
		}
	}
`

var listProductsQuery = `
query ListProducts($first: Int!, $after: String, $query: String, $imageCount: Int!) {
	products(first: $first, after: $after, query: $query) {
		edges {
			node {` + productFields + `}
		}
		pageInfo {
			hasNextPage
			endCursor
		}
	}
}
`

var getProductQuery = `
query GetProduct($id: ID!, $imageCount: Int!) {
	product(id: $id) {` + productFields + `}
}
`

const getShopQuery = `
query GetShop {
	shop {
		name
		email
	}
}
`

const activeSubscriptionsQuery = `
query ActiveSubscriptions {
	currentAppInstallation {
		activeSubscriptions {
			id
			name
			status
		}
	}
}
`

const metaobjectCreateMutation = `
mutation CreateMetaobject($metaobject: MetaobjectCreateInput!) {
	metaobjectCreate(metaobject: $metaobject) {
		metaobject {
			id
			handle
			type
			fields {
				key
				value
			}
		}
		userErrors {
			field
			message
			code
		}
	}
}
`

const productUpdateMutation = `
mutation UpdateProductMetafields($input: ProductInput!) {
	productUpdate(input: $input) {
		product {
			id
			metafields(first: 250) {
				edges {
					node {
						id
						namespace
						key
						value
						type
					}
				}
			}
		}
		userErrors {
			field
			message
		}
	}
}
`

const metafieldsSetMutation = `
mutation SetMetafields($metafields: [MetafieldsSetInput!]!) {
	metafieldsSet(metafields: $metafields) {
		metafields {
			id
			namespace
			key
			value
			type
		}
		userErrors {
			field
			message
			code
		}
	}
}
`

// operation is a parsed document
type operation struct {
	Name string
	Kind ast.Operation
}

// documents maps every document above to its parsed operation
var documents = mustParseAll(
	listProductsQuery,
	getProductQuery,
	getShopQuery,
	activeSubscriptionsQuery,
	metaobjectCreateMutation,
	productUpdateMutation,
	metafieldsSetMutation,
)

func mustParseAll(docs ...string) map[string]operation {
	out := make(map[string]operation, len(docs))
	for _, doc := range docs {
		op, err := ParseOperation(doc)
		if err != nil {
			panic(err)
		}
		out[doc] = op
	}
	return out
}

// ParseOperation parses a single-operation document
func ParseOperation(doc string) (operation, error) {
	parsed, err := parser.ParseQuery(&ast.Source{Input: doc})
	if err != nil {
		return operation{}, fmt.Errorf("failed to parse graphql document: %w", err)
	}
	if len(parsed.Operations) != 1 {
		return operation{}, fmt.Errorf("graphql document must hold exactly one operation, got %d", len(parsed.Operations))
	}
	op := parsed.Operations[0]
	if op.Name == "" {
		return operation{}, fmt.Errorf("graphql operation must be named")
	}
	return operation{Name: op.Name, Kind: op.Operation}, nil
}

// OperationName returns the operation name of doc, or "anonymous"
func OperationName(doc string) string {
	if op, ok := documents[doc]; ok {
		return op.Name
	}
	if op, err := ParseOperation(doc); err == nil {
		return op.Name
	}
	return "anonymous"
}

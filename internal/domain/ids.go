package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const productGIDPrefix = "gid://shopify/Product/"

// ProductGID normalises a numeric id or a product gid to the gid form
func ProductGID(id string) (string, error) {
	id = strings.TrimSpace(id)
	raw := strings.TrimPrefix(id, productGIDPrefix)
	if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
		return "", &ErrValidation{Message: fmt.Sprintf("invalid product id: %q", id)}
	}
	return productGIDPrefix + raw, nil
}

// NumericID returns the trailing numeric segment of a gid
func NumericID(gid string) string {
	if i := strings.LastIndex(gid, "/"); i >= 0 {
		return gid[i+1:]
	}
	return gid
}

// NormalizeShopDomain lowercases a shop domain and strips scheme and trailing slash
func NormalizeShopDomain(shop string) string {
	shop = strings.ToLower(strings.TrimSpace(shop))
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	return strings.TrimSuffix(shop, "/")
}

// ValidShopDomain reports whether shop is a *.myshopify.com host
func ValidShopDomain(shop string) bool {
	name, ok := strings.CutSuffix(shop, ".myshopify.com")
	if !ok || name == "" {
		return false
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return true
}

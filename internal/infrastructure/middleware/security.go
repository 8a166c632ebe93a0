package middleware

import (
	"net/http"

	"cartesian-metadata-app/internal/domain"
)

// SecurityHeadersMiddleware sets the headers an app embedded in the admin needs.
// Framing is limited to the admin and the requesting shop.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ancestors := "https://admin.shopify.com"
			if shop := domain.NormalizeShopDomain(r.URL.Query().Get("shop")); domain.ValidShopDomain(shop) {
				ancestors = "https://" + shop + " " + ancestors
			}
			w.Header().Set("Content-Security-Policy", "frame-ancestors "+ancestors+";")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, r)
		})
	}
}

package domain

import "context"

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	sessionKey contextKey = "session"
	shopKey    contextKey = "shop"
)

// WithSession stores the authenticated session in ctx
func WithSession(ctx context.Context, session *Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey, session)
	return WithShop(ctx, session.Shop)
}

// SessionFromContext returns the authenticated session, if any
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionKey).(*Session)
	return session, ok && session != nil
}

// WithShop stores the shop domain in ctx
func WithShop(ctx context.Context, shop string) context.Context {
	return context.WithValue(ctx, shopKey, shop)
}

// GetShopFromContext returns the shop domain in ctx or ""
func GetShopFromContext(ctx context.Context) string {
	if shop, ok := ctx.Value(shopKey).(string); ok {
		return shop
	}
	return ""
}

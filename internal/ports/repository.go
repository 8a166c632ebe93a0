package ports

import (
	"context"
	"time"

	"cartesian-metadata-app/internal/domain"
)

// StoreRepository defines the interface for store registry persistence
type StoreRepository interface {
	// Migrate creates the uniqueness constraint on the shop domain
	Migrate(ctx context.Context) error

	// InsertIfAbsent inserts store unless a record for its domain exists.
	// It must rely on a storage-level uniqueness constraint.
	InsertIfAbsent(ctx context.Context, store *domain.Store) (bool, error)

	// GetByDomain returns nil, nil when the shop is unknown
	GetByDomain(ctx context.Context, shopDomain string) (*domain.Store, error)
	List(ctx context.Context) ([]*domain.Store, error)

	UpdatePlan(ctx context.Context, shopDomain string, plan domain.Plan) error

	// RecordUsage atomically adds n created metafields, restarting the window when it has elapsed
	RecordUsage(ctx context.Context, shopDomain string, n int, now time.Time) (*domain.Store, error)
	ResetUsage(ctx context.Context, shopDomain string, now time.Time) error
}

// SessionRepository persists offline access tokens per shop
type SessionRepository interface {
	Save(ctx context.Context, session *domain.Session) error
	// Get returns nil, nil when the shop has no session
	Get(ctx context.Context, shop string) (*domain.Session, error)
	Delete(ctx context.Context, shop string) error
}

// StateStore keeps short-lived OAuth state nonces
type StateStore interface {
	Put(ctx context.Context, state domain.OAuthState, ttl time.Duration) error
	// Consume returns the shop bound to nonce and removes it; ok is false when unknown or expired
	Consume(ctx context.Context, nonce string) (shop string, ok bool, err error)
}

// DeliveryDeduper remembers webhook delivery ids
type DeliveryDeduper interface {
	// FirstDelivery returns true the first time id is seen within ttl
	FirstDelivery(ctx context.Context, id string, ttl time.Duration) (bool, error)
	// Release forgets id so a redelivery after a failed dispatch is processed
	Release(ctx context.Context, id string) error
}

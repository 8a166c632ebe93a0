package domain

import "time"

// Plan is the billing tier of a store
type Plan string

const (
	PlanFree Plan = "free"
	PlanPaid Plan = "paid"
)

// Valid reports whether p is a known plan
func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPaid
}

// UsageWindow is how long metafield usage accumulates before the counter restarts
const UsageWindow = 30 * 24 * time.Hour

// Store is the registry record kept for every shop that installed the app
type Store struct {
	ShopDomain        string    `json:"shop_domain"`
	OwnerEmail        string    `json:"owner_email"`
	Plan              Plan      `json:"plan"`
	LastReset         time.Time `json:"last_reset"`
	MetafieldsCreated int       `json:"metafields_created"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewStore returns the record inserted on a shop's first authenticated visit
func NewStore(shopDomain, ownerEmail string, now time.Time) *Store {
	return &Store{
		ShopDomain: shopDomain,
		OwnerEmail: ownerEmail,
		Plan:       PlanFree,
		LastReset:  now.UTC(),
		CreatedAt:  now.UTC(),
	}
}

// UsageExpired reports whether the usage window has elapsed at now
func (s *Store) UsageExpired(now time.Time) bool {
	return !now.Before(s.LastReset.Add(UsageWindow))
}

// ApplyUsage returns the counter and reset time after n more metafields are created at now
func (s *Store) ApplyUsage(n int, now time.Time) (int, time.Time) {
	if s.UsageExpired(now) {
		return n, now.UTC()
	}
	return s.MetafieldsCreated + n, s.LastReset
}

// PlanTier describes a plan for the pricing page
type PlanTier struct {
	Plan           Plan   `json:"plan"`
	Name           string `json:"name"`
	MonthlyPrice   string `json:"monthly_price"`
	MetafieldLimit int    `json:"metafield_limit"` // 0 means unlimited
}

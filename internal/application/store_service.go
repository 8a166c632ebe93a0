package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// paidPlanMonthlyPrice is the list price of the paid plan in USD
var paidPlanMonthlyPrice = decimal.RequireFromString("9.99")

// subscriptionActive is the status of a billed, running app subscription
const subscriptionActive = "ACTIVE"

// StoreService manages the store registry, plans and usage quota
type StoreService struct {
	repo      ports.StoreRepository
	freeLimit int
	logger    zerolog.Logger
	now       func() time.Time
}

// NewStoreService creates a new store service
func NewStoreService(repo ports.StoreRepository, freeLimit int, logger zerolog.Logger) *StoreService {
	return &StoreService{
		repo:      repo,
		freeLimit: freeLimit,
		logger:    logger,
		now:       time.Now,
	}
}

// EnsureStore registers shopDomain on the free plan unless it is already known
func (s *StoreService) EnsureStore(ctx context.Context, shopDomain, ownerEmail string) (*domain.Store, error) {
	created, err := s.repo.InsertIfAbsent(ctx, domain.NewStore(shopDomain, ownerEmail, s.now()))
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to register store")
		return nil, err
	}
	if created {
		s.logger.Info().
			Str("shop", shopDomain).
			Str("plan", string(domain.PlanFree)).
			Msg("Store registered")
	}
	return s.GetStore(ctx, shopDomain)
}

// GetStore returns the registry record of shopDomain
func (s *StoreService) GetStore(ctx context.Context, shopDomain string) (*domain.Store, error) {
	store, err := s.repo.GetByDomain(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, &domain.ErrNotFound{Resource: "store", ID: shopDomain}
	}
	return store, nil
}

// ListStores returns every registered store
func (s *StoreService) ListStores(ctx context.Context) ([]*domain.Store, error) {
	return s.repo.List(ctx)
}

// UpdatePlan moves a store to plan
func (s *StoreService) UpdatePlan(ctx context.Context, shopDomain string, plan domain.Plan) error {
	if !plan.Valid() {
		return &domain.ErrValidation{Message: fmt.Sprintf("unknown plan %q", plan)}
	}
	if err := s.repo.UpdatePlan(ctx, shopDomain, plan); err != nil {
		return err
	}
	s.logger.Info().Str("shop", shopDomain).Str("plan", string(plan)).Msg("Store plan updated")
	return nil
}

// SyncPlan derives the plan from the installation's subscriptions and stores
// it when it changed. Any active subscription means paid.
func (s *StoreService) SyncPlan(ctx context.Context, shopDomain string, subscriptions []domain.Subscription) (*domain.Store, error) {
	plan := domain.PlanFree
	for _, sub := range subscriptions {
		if strings.EqualFold(sub.Status, subscriptionActive) {
			plan = domain.PlanPaid
			break
		}
	}

	store, err := s.GetStore(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	if store.Plan == plan {
		return store, nil
	}
	if err := s.UpdatePlan(ctx, shopDomain, plan); err != nil {
		return nil, err
	}
	store.Plan = plan
	return store, nil
}

// CheckQuota fails with ErrPlanLimit when a free store cannot create n more metafields
func (s *StoreService) CheckQuota(ctx context.Context, shopDomain string, n int) error {
	store, err := s.GetStore(ctx, shopDomain)
	if err != nil {
		return err
	}
	if store.Plan != domain.PlanFree || s.freeLimit <= 0 {
		return nil
	}
	used := store.MetafieldsCreated
	if store.UsageExpired(s.now()) {
		used = 0
	}
	if used+n > s.freeLimit {
		return &domain.ErrPlanLimit{Limit: s.freeLimit, Used: used, Requested: n}
	}
	return nil
}

// RecordUsage counts n created metafields against the store's window
func (s *StoreService) RecordUsage(ctx context.Context, shopDomain string, n int) (*domain.Store, error) {
	if n <= 0 {
		return s.GetStore(ctx, shopDomain)
	}
	store, err := s.repo.RecordUsage(ctx, shopDomain, n, s.now())
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Int("count", n).Msg("Failed to record usage")
		return nil, err
	}
	return store, nil
}

// ResetUsage clears the usage counter of a store
func (s *StoreService) ResetUsage(ctx context.Context, shopDomain string) error {
	if err := s.repo.ResetUsage(ctx, shopDomain, s.now()); err != nil {
		return err
	}
	s.logger.Info().Str("shop", shopDomain).Msg("Store usage reset")
	return nil
}

// Plans lists the plans shown on the pricing page
func (s *StoreService) Plans() []domain.PlanTier {
	return []domain.PlanTier{
		{
			Plan:           domain.PlanFree,
			Name:           "Free",
			MonthlyPrice:   decimal.Zero.StringFixed(2),
			MetafieldLimit: s.freeLimit,
		},
		{
			Plan:         domain.PlanPaid,
			Name:         "Pro",
			MonthlyPrice: paidPlanMonthlyPrice.StringFixed(2),
		},
	}
}

package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cartesian-metadata-app/internal/domain"
)

func TestEnsureStoreConcurrentFirstVisits(t *testing.T) {
	svc, repo := newStoreService(t, 50)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.EnsureStore(ctx, shop, "owner@example.com"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("ensure store: %v", err)
	}

	stores, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stores) != 1 {
		t.Fatalf("want exactly one store, got %d", len(stores))
	}
	if stores[0].Plan != domain.PlanFree || stores[0].OwnerEmail != "owner@example.com" {
		t.Fatalf("unexpected store %+v", stores[0])
	}
}

func TestEnsureStoreKeepsExistingRecord(t *testing.T) {
	svc, _ := newStoreService(t, 50)
	ctx := context.Background()

	if _, err := svc.EnsureStore(ctx, shop, "first@example.com"); err != nil {
		t.Fatal(err)
	}
	if err := svc.UpdatePlan(ctx, shop, domain.PlanPaid); err != nil {
		t.Fatal(err)
	}
	store, err := svc.EnsureStore(ctx, shop, "second@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if store.OwnerEmail != "first@example.com" || store.Plan != domain.PlanPaid {
		t.Fatalf("existing record must not change, got %+v", store)
	}
}

func TestGetStoreUnknown(t *testing.T) {
	svc, _ := newStoreService(t, 50)
	_, err := svc.GetStore(context.Background(), "missing.myshopify.com")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCheckQuota(t *testing.T) {
	svc, _ := newStoreService(t, 5)
	ctx := context.Background()
	if _, err := svc.EnsureStore(ctx, shop, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordUsage(ctx, shop, 4); err != nil {
		t.Fatal(err)
	}

	if err := svc.CheckQuota(ctx, shop, 1); err != nil {
		t.Fatalf("within quota: %v", err)
	}
	err := svc.CheckQuota(ctx, shop, 2)
	var limit *domain.ErrPlanLimit
	if !errors.As(err, &limit) {
		t.Fatalf("want ErrPlanLimit, got %v", err)
	}
	if limit.Used != 4 || limit.Limit != 5 || limit.Requested != 2 {
		t.Fatalf("unexpected limit error %+v", limit)
	}

	if err := svc.UpdatePlan(ctx, shop, domain.PlanPaid); err != nil {
		t.Fatal(err)
	}
	if err := svc.CheckQuota(ctx, shop, 1000); err != nil {
		t.Fatalf("paid plan has no quota: %v", err)
	}
}

func TestResetUsage(t *testing.T) {
	svc, _ := newStoreService(t, 5)
	ctx := context.Background()
	if _, err := svc.EnsureStore(ctx, shop, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordUsage(ctx, shop, 5); err != nil {
		t.Fatal(err)
	}
	if err := svc.ResetUsage(ctx, shop); err != nil {
		t.Fatal(err)
	}
	store, err := svc.GetStore(ctx, shop)
	if err != nil {
		t.Fatal(err)
	}
	if store.MetafieldsCreated != 0 || time.Since(store.LastReset) > time.Minute {
		t.Fatalf("usage not reset: %+v", store)
	}
}

func TestSyncPlan(t *testing.T) {
	svc, _ := newStoreService(t, 50)
	ctx := context.Background()
	if _, err := svc.EnsureStore(ctx, shop, ""); err != nil {
		t.Fatal(err)
	}

	store, err := svc.SyncPlan(ctx, shop, []domain.Subscription{
		{ID: "gid://shopify/AppSubscription/1", Name: "Pro", Status: "ACTIVE"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if store.Plan != domain.PlanPaid {
		t.Fatalf("want paid, got %s", store.Plan)
	}

	store, err = svc.SyncPlan(ctx, shop, nil)
	if err != nil {
		t.Fatal(err)
	}
	if store.Plan != domain.PlanFree {
		t.Fatalf("want free, got %s", store.Plan)
	}
	persisted, err := svc.GetStore(ctx, shop)
	if err != nil {
		t.Fatal(err)
	}
	if persisted.Plan != domain.PlanFree {
		t.Fatalf("plan not persisted: %s", persisted.Plan)
	}
}

func TestUpdatePlanRejectsUnknownPlan(t *testing.T) {
	svc, _ := newStoreService(t, 50)
	var validation *domain.ErrValidation
	if err := svc.UpdatePlan(context.Background(), shop, domain.Plan("gold")); !errors.As(err, &validation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestPlans(t *testing.T) {
	svc, _ := newStoreService(t, 50)
	plans := svc.Plans()
	if len(plans) != 2 {
		t.Fatalf("want 2 plans, got %d", len(plans))
	}
	if plans[0].MonthlyPrice != "0.00" || plans[0].MetafieldLimit != 50 {
		t.Fatalf("unexpected free plan %+v", plans[0])
	}
	if plans[1].MonthlyPrice != "9.99" || plans[1].MetafieldLimit != 0 {
		t.Fatalf("unexpected paid plan %+v", plans[1])
	}
}

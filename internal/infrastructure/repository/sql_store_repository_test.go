package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/infrastructure/repository"
)

func memRepo(t *testing.T) *repository.SQLStoreRepository {
	t.Helper()
	ctx := context.Background()
	db, err := repository.OpenSQL(ctx, "sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repository.NewSQLStoreRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	return repo
}

func TestInsertIfAbsentKeepsOneRecordPerDomain(t *testing.T) {
	repo := memRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		errs    []error
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := repo.InsertIfAbsent(ctx, domain.NewStore("demo.myshopify.com", fmt.Sprintf("owner%d@example.com", i), now))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			}
			if ok {
				created++
			}
		}(i)
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("insert errors: %v", errs)
	}
	if created != 1 {
		t.Fatalf("want exactly one insert, got %d", created)
	}
	stores, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stores) != 1 {
		t.Fatalf("want one store, got %d", len(stores))
	}
	if stores[0].Plan != domain.PlanFree || stores[0].MetafieldsCreated != 0 {
		t.Fatalf("unexpected defaults %+v", stores[0])
	}
}

func TestGetByDomainUnknownReturnsNil(t *testing.T) {
	repo := memRepo(t)
	store, err := repo.GetByDomain(context.Background(), "missing.myshopify.com")
	if err != nil {
		t.Fatal(err)
	}
	if store != nil {
		t.Fatalf("want nil, got %+v", store)
	}
}

func TestRecordUsageAccumulatesWithinWindow(t *testing.T) {
	repo := memRepo(t)
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if _, err := repo.InsertIfAbsent(ctx, domain.NewStore("demo.myshopify.com", "", start)); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.RecordUsage(ctx, "demo.myshopify.com", 3, start.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	store, err := repo.RecordUsage(ctx, "demo.myshopify.com", 4, start.Add(48*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if store.MetafieldsCreated != 7 {
		t.Fatalf("want 7, got %d", store.MetafieldsCreated)
	}
	if !store.LastReset.Equal(start) {
		t.Fatalf("window must not restart, got %s", store.LastReset)
	}
}

func TestRecordUsageRestartsExpiredWindow(t *testing.T) {
	repo := memRepo(t)
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if _, err := repo.InsertIfAbsent(ctx, domain.NewStore("demo.myshopify.com", "", start)); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.RecordUsage(ctx, "demo.myshopify.com", 40, start); err != nil {
		t.Fatal(err)
	}

	later := start.Add(domain.UsageWindow + time.Minute)
	store, err := repo.RecordUsage(ctx, "demo.myshopify.com", 2, later)
	if err != nil {
		t.Fatal(err)
	}
	if store.MetafieldsCreated != 2 {
		t.Fatalf("want counter restarted at 2, got %d", store.MetafieldsCreated)
	}
	if !store.LastReset.Equal(later) {
		t.Fatalf("want last reset %s, got %s", later, store.LastReset)
	}

	persisted, err := repo.GetByDomain(ctx, "demo.myshopify.com")
	if err != nil {
		t.Fatal(err)
	}
	if persisted.MetafieldsCreated != 2 || !persisted.LastReset.Equal(later) {
		t.Fatalf("unexpected persisted store %+v", persisted)
	}
}

func TestRecordUsageUnknownStore(t *testing.T) {
	repo := memRepo(t)
	_, err := repo.RecordUsage(context.Background(), "missing.myshopify.com", 1, time.Now())
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdatePlanAndResetUsage(t *testing.T) {
	repo := memRepo(t)
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if _, err := repo.InsertIfAbsent(ctx, domain.NewStore("demo.myshopify.com", "", start)); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.RecordUsage(ctx, "demo.myshopify.com", 9, start); err != nil {
		t.Fatal(err)
	}

	if err := repo.UpdatePlan(ctx, "demo.myshopify.com", domain.PlanPaid); err != nil {
		t.Fatal(err)
	}
	reset := start.Add(24 * time.Hour)
	if err := repo.ResetUsage(ctx, "demo.myshopify.com", reset); err != nil {
		t.Fatal(err)
	}

	store, err := repo.GetByDomain(ctx, "demo.myshopify.com")
	if err != nil {
		t.Fatal(err)
	}
	if store.Plan != domain.PlanPaid || store.MetafieldsCreated != 0 || !store.LastReset.Equal(reset) {
		t.Fatalf("unexpected store %+v", store)
	}

	var notFound *domain.ErrNotFound
	if err := repo.UpdatePlan(ctx, "missing.myshopify.com", domain.PlanPaid); !errors.As(err, &notFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

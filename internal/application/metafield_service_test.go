package application_test

import (
	"context"
	"errors"
	"testing"

	"cartesian-metadata-app/internal/application"
	"cartesian-metadata-app/internal/domain"

	"github.com/rs/zerolog"
)

func newMetafieldService(t *testing.T, catalog *fakeCatalog, freeLimit, bulkMax int) (*application.MetafieldService, *application.StoreService) {
	t.Helper()
	stores, _ := newStoreService(t, freeLimit)
	if _, err := stores.EnsureStore(context.Background(), shop, ""); err != nil {
		t.Fatal(err)
	}
	return application.NewMetafieldService(fakeProvider{catalog}, stores, "cartesian", bulkMax, nil, zerolog.Nop()), stores
}

func TestUpdateMetafieldsTypeMismatch(t *testing.T) {
	catalog := &fakeCatalog{updateErrs: []domain.FieldError{
		{Field: []string{"metafields", "1", "value"}, Message: "Value must be an integer."},
	}}
	svc, _ := newMetafieldService(t, catalog, 50, 250)

	result, err := svc.UpdateProductMetafields(context.Background(), session, "101", []domain.MetafieldEdit{
		{ID: "gid://shopify/Metafield/1", Key: "season", Value: "winter", Type: "single_line_text_field"},
		{ID: "gid://shopify/Metafield/2", Key: "count", Value: "many", Type: "number_integer"},
		{Key: "style", Value: "casual", Type: "single_line_text_field"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if result.Success {
		t.Fatal("want success=false")
	}
	if len(result.Errors) == 0 || result.Fields[1].Status != domain.FieldFailed || len(result.Fields[1].Messages) != 1 {
		t.Fatalf("want field-scoped error on edit 1, got %+v", result)
	}
	for _, i := range []int{0, 2} {
		if result.Fields[i].Status == domain.FieldFailed {
			t.Fatalf("edit %d must not be reported failed: %+v", i, result.Fields[i])
		}
		if result.Fields[i].Status != domain.FieldNotApplied {
			t.Fatalf("edit %d: want not_applied, got %s", i, result.Fields[i].Status)
		}
	}
	if catalog.lastEdits[2].Namespace != "cartesian" {
		t.Fatalf("new metafield must default to the app namespace, got %q", catalog.lastEdits[2].Namespace)
	}
}

func TestUpdateMetafieldsSuccess(t *testing.T) {
	catalog := &fakeCatalog{}
	svc, _ := newMetafieldService(t, catalog, 50, 250)

	result, err := svc.UpdateProductMetafields(context.Background(), session, "gid://shopify/Product/101", []domain.MetafieldEdit{
		{ID: "gid://shopify/Metafield/1", Key: "season", Value: "winter", Type: "single_line_text_field"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.Fields[0].Status != domain.FieldOK || len(result.Metafields) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestUpdateMetafieldsValidation(t *testing.T) {
	svc, _ := newMetafieldService(t, &fakeCatalog{}, 50, 250)
	ctx := context.Background()
	var validation *domain.ErrValidation

	if _, err := svc.UpdateProductMetafields(ctx, session, "101", nil); !errors.As(err, &validation) {
		t.Fatalf("empty edits: want ErrValidation, got %v", err)
	}
	if _, err := svc.UpdateProductMetafields(ctx, session, "101", []domain.MetafieldEdit{{Value: "x"}}); !errors.As(err, &validation) {
		t.Fatalf("keyless new field: want ErrValidation, got %v", err)
	}
}

func TestBulkCreateMetaobjectsPartialFailure(t *testing.T) {
	catalog := &fakeCatalog{metaobjectErrs: map[string][]domain.FieldError{
		"gid://shopify/Product/2": {{Field: []string{"metaobject", "handle"}, Message: "Handle has already been taken"}},
	}}
	svc, _ := newMetafieldService(t, catalog, 50, 250)

	result, err := svc.BulkCreateMetaobjects(context.Background(), session, []string{"1", "2", "3"}, map[string]string{"title": "Summer"})
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if len(result.Outcomes) != 3 {
		t.Fatalf("want 3 outcomes, got %d", len(result.Outcomes))
	}
	first, second, third := result.Outcomes[0], result.Outcomes[1], result.Outcomes[2]
	if first.Status != domain.ItemCreated || first.ItemID != "gid://shopify/Product/1" || first.ResourceID == "" {
		t.Fatalf("item 1 should be created: %+v", first)
	}
	if second.Status != domain.ItemFailed || len(second.Errors) != 1 || second.Errors[0].Message != "Handle has already been taken" {
		t.Fatalf("item 2 should fail with the user error: %+v", second)
	}
	if third.Status != domain.ItemCreated || third.ItemID != "gid://shopify/Product/3" {
		t.Fatalf("item 3 should be created: %+v", third)
	}
	if result.Summary != (domain.BatchSummary{Total: 3, Succeeded: 2, Failed: 1}) {
		t.Fatalf("unexpected summary %+v", result.Summary)
	}

	if len(catalog.created) != 2 {
		t.Fatalf("want 2 creates, got %d", len(catalog.created))
	}
	fields := catalog.created[0].Fields
	if len(fields) != 4 || fields[0].Key != "product" || fields[0].Value != "gid://shopify/Product/1" {
		t.Fatalf("unexpected lookbook fields %+v", fields)
	}
	if fields[1].Key != "title" || fields[1].Value != "Summer" || fields[2].Value != "" || fields[3].Value != "" {
		t.Fatalf("missing values must be sent empty: %+v", fields)
	}
	if catalog.created[0].Handle != "lookbook-1" || catalog.created[0].Type != domain.LookbookType {
		t.Fatalf("unexpected metaobject %+v", catalog.created[0])
	}
}

func TestBulkCreateMetaobjectsInvalidIDContinues(t *testing.T) {
	catalog := &fakeCatalog{}
	svc, _ := newMetafieldService(t, catalog, 50, 250)

	result, err := svc.BulkCreateMetaobjects(context.Background(), session, []string{"not-an-id", "5"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcomes[0].Status != domain.ItemFailed || result.Outcomes[1].Status != domain.ItemCreated {
		t.Fatalf("unexpected outcomes %+v", result.Outcomes)
	}
}

func TestBulkCreateMetaobjectsTransportErrorPerItem(t *testing.T) {
	catalog := &fakeCatalog{err: &domain.ErrUpstream{Service: "shopify", Err: errors.New("reset")}}
	svc, _ := newMetafieldService(t, catalog, 50, 250)

	result, err := svc.BulkCreateMetaobjects(context.Background(), session, []string{"1", "2"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Summary.Failed != 2 {
		t.Fatalf("want both items failed, got %+v", result.Summary)
	}
}

func TestBulkCreateMetaobjectsBound(t *testing.T) {
	catalog := &fakeCatalog{}
	svc, _ := newMetafieldService(t, catalog, 50, 2)

	_, err := svc.BulkCreateMetaobjects(context.Background(), session, []string{"1", "2", "3"}, nil)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if len(catalog.created) != 0 {
		t.Fatal("no call may be made for an oversized batch")
	}
}

func TestAddMetafieldsRecordsUsage(t *testing.T) {
	catalog := &fakeCatalog{}
	svc, stores := newMetafieldService(t, catalog, 50, 250)
	ctx := context.Background()

	result, err := svc.AddMetafields(ctx, session, "101", []domain.Metafield{
		{Namespace: "custom", Key: "season", Value: "summer", Type: "single_line_text_field"},
		{Key: "fabric", Value: "linen", Type: "single_line_text_field"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success || len(result.Metafields) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	for _, m := range catalog.lastSet {
		if m.Namespace != "cartesian" {
			t.Fatalf("namespace must be pinned, got %q", m.Namespace)
		}
	}
	store, err := stores.GetStore(ctx, shop)
	if err != nil {
		t.Fatal(err)
	}
	if store.MetafieldsCreated != 2 {
		t.Fatalf("want usage 2, got %d", store.MetafieldsCreated)
	}
}

func TestAddMetafieldsQuota(t *testing.T) {
	catalog := &fakeCatalog{}
	svc, _ := newMetafieldService(t, catalog, 1, 250)

	_, err := svc.AddMetafields(context.Background(), session, "101", []domain.Metafield{
		{Key: "a", Value: "1", Type: "number_integer"},
		{Key: "b", Value: "2", Type: "number_integer"},
	})
	var limit *domain.ErrPlanLimit
	if !errors.As(err, &limit) {
		t.Fatalf("want ErrPlanLimit, got %v", err)
	}
	if catalog.lastSet != nil {
		t.Fatal("platform must not be called over quota")
	}
}

func TestAddMetafieldsUserErrorsRecordNoUsage(t *testing.T) {
	catalog := &fakeCatalog{setErrs: []domain.FieldError{{Field: []string{"metafields", "0", "type"}, Message: "Type is invalid"}}}
	svc, stores := newMetafieldService(t, catalog, 50, 250)
	ctx := context.Background()

	result, err := svc.AddMetafields(ctx, session, "101", []domain.Metafield{{Key: "a", Value: "1", Type: "bogus"}})
	if err != nil {
		t.Fatal(err)
	}
	if result.Success || result.Fields[0].Status != domain.FieldFailed {
		t.Fatalf("unexpected result %+v", result)
	}
	store, err := stores.GetStore(ctx, shop)
	if err != nil {
		t.Fatal(err)
	}
	if store.MetafieldsCreated != 0 {
		t.Fatalf("no usage expected, got %d", store.MetafieldsCreated)
	}
}

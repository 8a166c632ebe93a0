package generation_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/infrastructure/generation"

	"github.com/rs/zerolog"
)

func newClient(srv *httptest.Server) *generation.Client {
	return generation.NewClient(srv.URL+"/upload", srv.URL+"/requests", 5*time.Second, nil, zerolog.Nop())
}

func TestUploadImagesPostsBatch(t *testing.T) {
	var got struct {
		CustomerID string                   `json:"customer_id"`
		Images     []domain.GenerationImage `json:"images"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte(`{"api_action_status":"success","request_id":"req-1"}`))
	}))
	defer srv.Close()

	images := []domain.GenerationImage{{
		ImageID:         "gid://shopify/ProductImage/1",
		ImageName:       "Linen Shirt",
		ImageData:       "aGVsbG8=",
		ProductSource:   domain.ProductSourceShopify,
		SourceProductID: "gid://shopify/Product/101",
	}}
	result, err := newClient(srv).UploadImages(context.Background(), "demo.myshopify.com", images)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.RequestID != "req-1" || result.Uploaded != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if got.CustomerID != "demo.myshopify.com" || len(got.Images) != 1 || got.Images[0].ProductSource != "shopify" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestListRequestsRejectsNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"api_action_status":"error","message":"unknown customer"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv).ListRequests(context.Background(), "demo.myshopify.com")
	var upstream *domain.ErrUpstream
	if !errors.As(err, &upstream) {
		t.Fatalf("want ErrUpstream, got %v", err)
	}
}

func TestListRequestsDecodesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"api_action_status":"success","request_data":[
			{"request_id":"r1","request_status":"completed","request_date":"2024-05-01","num_products":3,"download_link":"https://example.com/r1.csv"}
		]}`))
	}))
	defer srv.Close()

	requests, err := newClient(srv).ListRequests(context.Background(), "demo.myshopify.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(requests) != 1 || requests[0].RequestID != "r1" || requests[0].NumProducts != 3 {
		t.Fatalf("unexpected requests %+v", requests)
	}
}

func TestNon2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := newClient(srv).UploadImages(context.Background(), "demo.myshopify.com", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestFetchImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	client := newClient(srv)
	data, err := client.Fetch(context.Background(), srv.URL+"/shirt.png")
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("fetch: data=%q err=%v", data, err)
	}
	if _, err := client.Fetch(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Fatal("expected error for missing image")
	}
}

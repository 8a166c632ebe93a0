package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/infrastructure/middleware"

	"github.com/rs/zerolog"
)

type fakeAuthenticator struct {
	shop    string
	session *domain.Session
	err     error
}

func (f fakeAuthenticator) Authenticate(ctx context.Context, u *url.URL) (string, *domain.Session, error) {
	return f.shop, f.session, f.err
}

func serve(auth middleware.Authenticator) (*httptest.ResponseRecorder, *domain.Session) {
	var seen *domain.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = domain.SessionFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/app?shop=demo.myshopify.com&hmac=abc", nil)
	middleware.SessionAuthMiddleware(auth, zerolog.Nop())(next).ServeHTTP(rec, req)
	return rec, seen
}

func TestSessionAuthRejectsBadSignature(t *testing.T) {
	rec, seen := serve(fakeAuthenticator{err: &domain.ErrUnauthorized{Message: "invalid request signature"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid request signature") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if seen != nil {
		t.Fatal("next handler must not run")
	}
}

func TestSessionAuthRedirectsWithoutSession(t *testing.T) {
	rec, _ := serve(fakeAuthenticator{shop: "demo.myshopify.com"})
	if rec.Code != http.StatusFound {
		t.Fatalf("want 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/auth?shop=demo.myshopify.com" {
		t.Fatalf("unexpected redirect %q", loc)
	}
}

func TestSessionAuthAdmitsSession(t *testing.T) {
	session := &domain.Session{Shop: "demo.myshopify.com", AccessToken: "shpat_x"}
	rec, seen := serve(fakeAuthenticator{shop: session.Shop, session: session})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("want 204, got %d", rec.Code)
	}
	if seen != session {
		t.Fatalf("session not stored in context")
	}
}

func TestSessionAuthStorageFailure(t *testing.T) {
	rec, _ := serve(fakeAuthenticator{err: errors.New("mongo down")})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
}

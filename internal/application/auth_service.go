package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// stateTTL is how long an install redirect may take to come back
const stateTTL = 10 * time.Minute

// signedRequestMaxAge bounds the clock distance of a signed request's timestamp
const signedRequestMaxAge = 5 * time.Minute

// AuthService runs the install flow and authenticates embedded requests
type AuthService struct {
	app      ports.ShopifyApp
	sessions ports.SessionRepository
	states   ports.StateStore
	catalogs ports.CatalogProvider
	stores   *StoreService
	appURL   string
	scopes   []string
	logger   zerolog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	app ports.ShopifyApp,
	sessions ports.SessionRepository,
	states ports.StateStore,
	catalogs ports.CatalogProvider,
	stores *StoreService,
	appURL string,
	scopes []string,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		app:      app,
		sessions: sessions,
		states:   states,
		catalogs: catalogs,
		stores:   stores,
		appURL:   strings.TrimSuffix(appURL, "/"),
		scopes:   scopes,
		logger:   logger,
	}
}

// APIKey is the public key the embedded UI boots with
func (s *AuthService) APIKey() string {
	return s.app.APIKey()
}

// BeginInstall stores a state nonce for shop and returns the authorize URL
func (s *AuthService) BeginInstall(ctx context.Context, shop string) (string, error) {
	shop = domain.NormalizeShopDomain(shop)
	if !domain.ValidShopDomain(shop) {
		return "", &domain.ErrValidation{Message: fmt.Sprintf("invalid shop domain: %q", shop)}
	}

	state := domain.OAuthState{Nonce: uuid.NewString(), Shop: shop}
	if err := s.states.Put(ctx, state, stateTTL); err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to store OAuth state")
		return "", err
	}

	authURL := s.app.AuthorizeURL(shop, state.Nonce, s.appURL+"/auth/callback")
	s.logger.Info().Str("shop", shop).Msg("Generated OAuth authorization URL")
	return authURL, nil
}

// CompleteInstall verifies the callback, exchanges the code for an offline
// token, stores the session and registers the store on first success.
func (s *AuthService) CompleteInstall(ctx context.Context, callback *url.URL) (*domain.Session, error) {
	ok, err := s.app.VerifySignedURL(callback)
	if err != nil || !ok {
		return nil, &domain.ErrUnauthorized{Message: "invalid callback signature"}
	}

	q := callback.Query()
	shop := domain.NormalizeShopDomain(q.Get("shop"))
	code := q.Get("code")
	if !domain.ValidShopDomain(shop) || code == "" {
		return nil, &domain.ErrValidation{Message: "callback is missing shop or code"}
	}

	stateShop, ok, err := s.states.Consume(ctx, q.Get("state"))
	if err != nil {
		return nil, err
	}
	if !ok || stateShop != shop {
		s.logger.Warn().Str("shop", shop).Msg("OAuth state unknown, expired or issued for another shop")
		return nil, &domain.ErrUnauthorized{Message: "invalid oauth state"}
	}

	token, err := s.app.ExchangeToken(ctx, shop, code)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to exchange token")
		return nil, &domain.ErrUpstream{Service: "shopify", Err: err}
	}

	now := time.Now().UTC()
	session := &domain.Session{
		Shop:        shop,
		AccessToken: token,
		Scopes:      s.scopes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to save session")
		return nil, err
	}

	if _, err := s.stores.EnsureStore(ctx, shop, s.ownerEmail(ctx, session)); err != nil {
		return nil, err
	}

	s.logger.Info().Str("shop", shop).Msg("App installed")
	return session, nil
}

// Authenticate checks the signed query of an embedded request. It returns the
// shop and its session; the session is nil when the shop has not installed yet.
func (s *AuthService) Authenticate(ctx context.Context, u *url.URL) (string, *domain.Session, error) {
	ok, err := s.app.VerifySignedURL(u)
	if err != nil || !ok {
		return "", nil, &domain.ErrUnauthorized{Message: "invalid request signature"}
	}

	q := u.Query()
	ts, err := strconv.ParseInt(q.Get("timestamp"), 10, 64)
	if err != nil {
		return "", nil, &domain.ErrUnauthorized{Message: "missing request timestamp"}
	}
	if age := time.Since(time.Unix(ts, 0)); age > signedRequestMaxAge || age < -signedRequestMaxAge {
		s.logger.Warn().Str("shop", q.Get("shop")).Dur("age", age).Msg("Rejected signed request outside the replay window")
		return "", nil, &domain.ErrUnauthorized{Message: "request signature expired"}
	}

	shop := domain.NormalizeShopDomain(q.Get("shop"))
	if !domain.ValidShopDomain(shop) {
		return "", nil, &domain.ErrUnauthorized{Message: "missing or invalid shop"}
	}

	session, err := s.sessions.Get(ctx, shop)
	if err != nil {
		return "", nil, err
	}
	if session == nil || session.AccessToken == "" {
		return shop, nil, nil
	}
	return shop, session, nil
}

// EnsureStoreForSession returns the store of an installed shop, registering it
// with the owner's email when the registry has no row for it yet.
func (s *AuthService) EnsureStoreForSession(ctx context.Context, session *domain.Session) (*domain.Store, error) {
	store, err := s.stores.GetStore(ctx, session.Shop)
	if err == nil {
		return store, nil
	}
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		return nil, err
	}
	return s.stores.EnsureStore(ctx, session.Shop, s.ownerEmail(ctx, session))
}

// ownerEmail reads the shop owner's email; an empty string when the shop cannot be read
func (s *AuthService) ownerEmail(ctx context.Context, session *domain.Session) string {
	catalog, err := s.catalogs.ForSession(session)
	if err != nil {
		s.logger.Warn().Err(err).Str("shop", session.Shop).Msg("Failed to open catalog for shop owner email")
		return ""
	}
	info, err := catalog.GetShop(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("shop", session.Shop).Msg("Failed to read shop owner email")
		return ""
	}
	return info.Email
}

// RevokeSession forgets the access token of shop
func (s *AuthService) RevokeSession(ctx context.Context, shop string) error {
	if err := s.sessions.Delete(ctx, shop); err != nil {
		return err
	}
	s.logger.Info().Str("shop", shop).Msg("Session deleted")
	return nil
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"cartesian-metadata-app/internal/domain"

	"github.com/rs/zerolog"
)

// Authenticator resolves the shop and session of a signed request
type Authenticator interface {
	Authenticate(ctx context.Context, u *url.URL) (string, *domain.Session, error)
}

// SessionAuthMiddleware admits requests carrying a valid signed query for a
// shop with a stored session. A valid request from a shop without a session
// is sent to the install flow.
func SessionAuthMiddleware(auth Authenticator, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			shop, session, err := auth.Authenticate(r.Context(), r.URL)
			if err != nil {
				var unauthorized *domain.ErrUnauthorized
				if errors.As(err, &unauthorized) {
					logger.Warn().
						Str("path", r.URL.Path).
						Str("reason", unauthorized.Error()).
						Msg("Rejected unauthenticated request")
					writeError(w, http.StatusUnauthorized, unauthorized.Error())
					return
				}
				logger.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to authenticate request")
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			if session == nil {
				logger.Info().Str("shop", shop).Msg("No session for shop, redirecting to install")
				http.Redirect(w, r, "/auth?shop="+url.QueryEscape(shop), http.StatusFound)
				return
			}

			ctx := domain.WithSession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

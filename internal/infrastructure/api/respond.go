package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"cartesian-metadata-app/internal/domain"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return &domain.ErrValidation{Message: "invalid JSON body: " + err.Error()}
	}
	return nil
}

// writeServiceError maps the domain error taxonomy to a status code
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation   *domain.ErrValidation
		unauthorized *domain.ErrUnauthorized
		notFound     *domain.ErrNotFound
		planLimit    *domain.ErrPlanLimit
		upstream     *domain.ErrUpstream
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &unauthorized):
		writeError(w, http.StatusUnauthorized, unauthorized.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.Is(err, domain.ErrUnhandledTopic):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &planLimit):
		writeJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"error":     "plan_limit_exceeded",
			"message":   planLimit.Error(),
			"limit":     planLimit.Limit,
			"used":      planLimit.Used,
			"requested": planLimit.Requested,
		})
	case errors.As(err, &upstream):
		h.logger.Error().Err(err).Str("path", r.URL.Path).Str("service", upstream.Service).Msg("Upstream request failed")
		writeError(w, http.StatusInternalServerError, upstream.Service+" request failed")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

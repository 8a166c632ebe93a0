package api

import (
	"net/http"
	"net/url"
	"strconv"

	"cartesian-metadata-app/internal/domain"

	"github.com/go-chi/chi/v5"
)

// BeginInstall redirects the merchant to the permission screen
func (h *Handler) BeginInstall(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.deps.Auth.BeginInstall(r.Context(), r.URL.Query().Get("shop"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// CompleteInstall finishes the OAuth flow and returns to the app inside the admin
func (h *Handler) CompleteInstall(w http.ResponseWriter, r *http.Request) {
	session, err := h.deps.Auth.CompleteInstall(r.Context(), r.URL)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	target := "https://" + session.Shop + "/admin/apps/" + url.PathEscape(h.deps.Auth.APIKey())
	http.Redirect(w, r, target, http.StatusFound)
}

// Home returns what the embedded UI needs to boot
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	session := mustSession(r)
	store, err := h.deps.Auth.EnsureStoreForSession(r.Context(), session)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"api_key": h.deps.Auth.APIKey(),
		"shop":    session.Shop,
		"store":   store,
	})
}

// Plan syncs the plan from the installation's subscriptions and lists the tiers
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := mustSession(r)

	var subscriptions []domain.Subscription
	catalog, err := h.deps.Catalogs.ForSession(session)
	if err == nil {
		subscriptions, err = catalog.ActiveSubscriptions(ctx)
	}

	var store *domain.Store
	if err != nil {
		// show the stored plan when billing cannot be read
		h.logger.Warn().Err(err).Str("shop", session.Shop).Msg("Failed to read app subscriptions")
		store, err = h.deps.Stores.GetStore(ctx, session.Shop)
	} else {
		store, err = h.deps.Stores.SyncPlan(ctx, session.Shop, subscriptions)
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"store":         store,
		"plans":         h.deps.Stores.Plans(),
		"subscriptions": subscriptions,
	})
}

// ListProducts serves one page of the product table
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := domain.ListProductsOptions{
		After: q.Get("after"),
		Query: q.Get("query"),
	}
	if first := q.Get("first"); first != "" {
		n, err := strconv.Atoi(first)
		if err != nil {
			writeError(w, http.StatusBadRequest, "first must be an integer")
			return
		}
		opts.First = n
	}

	listing, err := h.deps.Catalog.ListProducts(r.Context(), mustSession(r), opts)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// GetProduct serves the metadata view of one product
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.deps.Catalog.GetProduct(r.Context(), mustSession(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// UpdateMetafields applies edits to a product's metafields
func (h *Handler) UpdateMetafields(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Metafields []domain.MetafieldEdit `json:"metafields"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	result, err := h.deps.Metafields.UpdateProductMetafields(r.Context(), mustSession(r), chi.URLParam(r, "id"), body.Metafields)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, mutationStatus(result.Success, http.StatusOK), result)
}

// AddMetafields creates new metafields on a product
func (h *Handler) AddMetafields(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Metafields []domain.Metafield `json:"metafields"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	result, err := h.deps.Metafields.AddMetafields(r.Context(), mustSession(r), chi.URLParam(r, "id"), body.Metafields)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, mutationStatus(result.Success, http.StatusCreated), result)
}

// CreateMetaobject creates the lookbook metaobject of one product
func (h *Handler) CreateMetaobject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	outcome, err := h.deps.Metafields.CreateMetaobject(r.Context(), mustSession(r), chi.URLParam(r, "id"), body.Fields)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, mutationStatus(outcome.Status == domain.ItemCreated, http.StatusCreated), outcome)
}

// BulkCreateMetaobjects creates lookbooks for a selection of products
func (h *Handler) BulkCreateMetaobjects(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductIDs []string          `json:"product_ids"`
		Fields     map[string]string `json:"fields"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	result, err := h.deps.Metafields.BulkCreateMetaobjects(r.Context(), mustSession(r), body.ProductIDs, body.Fields)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GenerationRequests lists the shop's generation requests
func (h *Handler) GenerationRequests(w http.ResponseWriter, r *http.Request) {
	session := mustSession(r)
	requests, err := h.deps.Generation.FetchGenerationRequests(r.Context(), session.Shop)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

// UploadForGeneration sends the selected products' images to the generation service
func (h *Handler) UploadForGeneration(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductIDs []string `json:"product_ids"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	result, err := h.deps.Generation.UploadForGeneration(r.Context(), mustSession(r), body.ProductIDs)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// mustSession returns the session stored by the auth middleware
func mustSession(r *http.Request) *domain.Session {
	session, ok := domain.SessionFromContext(r.Context())
	if !ok {
		panic("api: session route mounted without session middleware")
	}
	return session
}

// mutationStatus is ok when the platform accepted the mutation, 422 otherwise
func mutationStatus(success bool, ok int) int {
	if success {
		return ok
	}
	return http.StatusUnprocessableEntity
}

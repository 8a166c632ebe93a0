package api

import (
	"encoding/json"
	"net/http"

	"cartesian-metadata-app/internal/application"
	"cartesian-metadata-app/internal/infrastructure/metrics"
	securitymiddleware "cartesian-metadata-app/internal/infrastructure/middleware"
	"cartesian-metadata-app/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Dependencies are the services the HTTP layer calls into
type Dependencies struct {
	Auth       *application.AuthService
	Stores     *application.StoreService
	Catalog    *application.CatalogService
	Metafields *application.MetafieldService
	Generation *application.GenerationService
	Webhooks   *application.WebhookDispatcher
	Catalogs   ports.CatalogProvider
	App        ports.ShopifyApp
	Deliveries ports.DeliveryDeduper
	Metrics    *metrics.Metrics
}

// Options configures the router
type Options struct {
	CORSOrigins []string
	SwaggerFile string
}

// Handler holds the HTTP handlers of the app
type Handler struct {
	deps   Dependencies
	logger zerolog.Logger
}

// NewHandler creates the HTTP handlers
func NewHandler(deps Dependencies, logger zerolog.Logger) *Handler {
	return &Handler{deps: deps, logger: logger}
}

// NewRouter builds the chi router with public and session-gated routes
func NewRouter(deps Dependencies, opts Options, logger zerolog.Logger) http.Handler {
	h := NewHandler(deps, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(deps.Metrics.Middleware)
	r.Use(securitymiddleware.SecurityHeadersMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", deps.Metrics.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, opts.SwaggerFile)
	})

	r.Get("/auth", h.BeginInstall)
	r.Get("/auth/callback", h.CompleteInstall)
	r.Post("/webhooks", h.Webhook)

	r.Route("/app", func(r chi.Router) {
		r.Use(securitymiddleware.SessionAuthMiddleware(deps.Auth, logger))
		r.Get("/", h.Home)
		r.Get("/plan", h.Plan)
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Put("/products/{id}/metafields", h.UpdateMetafields)
		r.Post("/products/{id}/metafields", h.AddMetafields)
		r.Post("/products/{id}/metaobjects", h.CreateMetaobject)
		r.Post("/metaobjects/bulk", h.BulkCreateMetaobjects)
		r.Get("/generation/requests", h.GenerationRequests)
		r.Post("/generation/uploads", h.UploadForGeneration)
	})

	return r
}

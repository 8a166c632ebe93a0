package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cartesian-metadata-app/internal/application"
	"cartesian-metadata-app/internal/application/webhook_handlers"
	"cartesian-metadata-app/internal/config"
	"cartesian-metadata-app/internal/infrastructure/api"
	"cartesian-metadata-app/internal/infrastructure/cache"
	"cartesian-metadata-app/internal/infrastructure/generation"
	"cartesian-metadata-app/internal/infrastructure/metrics"
	"cartesian-metadata-app/internal/infrastructure/repository"
	shopifyinfra "cartesian-metadata-app/internal/infrastructure/shopify"
	"cartesian-metadata-app/internal/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.ValidateServer(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Store.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.Store.MongoDatabase)

	sessionRepo := repository.NewMongoSessionRepository(db)
	if err := sessionRepo.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create session indexes")
	}

	var storeRepo ports.StoreRepository
	switch cfg.Store.Backend {
	case config.StoreBackendSQL:
		sqlDB, err := repository.OpenSQL(ctx, cfg.Store.SQLDriver, cfg.Store.SQLDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to open store database")
		}
		defer sqlDB.Close()
		storeRepo = repository.NewSQLStoreRepository(sqlDB)
	default:
		storeRepo = repository.NewMongoStoreRepository(db)
	}
	if err := storeRepo.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate store registry")
	}

	// Connect to Redis
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Initialize infrastructure
	shopifyApp := shopifyinfra.NewApp(shopifyinfra.ClientOptions{
		APIKey:     cfg.Shopify.APIKey,
		APISecret:  cfg.Shopify.APISecret,
		Scopes:     cfg.Shopify.Scopes,
		APIVersion: cfg.Shopify.APIVersion,
		Timeout:    cfg.Shopify.Timeout,
	}, m, logger)
	catalogs := shopifyinfra.NewCatalogProvider(shopifyApp, logger)
	generationClient := generation.NewClient(cfg.Generation.UploadURL, cfg.Generation.RequestsURL, cfg.Generation.Timeout, m, logger)

	// Initialize application services
	storeService := application.NewStoreService(storeRepo, cfg.Limits.FreePlanMetafields, logger)
	authService := application.NewAuthService(
		shopifyApp,
		sessionRepo,
		cache.NewRedisStateStore(redisClient),
		catalogs,
		storeService,
		cfg.AppURL,
		cfg.Shopify.Scopes,
		logger,
	)
	metafieldService := application.NewMetafieldService(
		catalogs,
		storeService,
		cfg.Shopify.Namespace,
		cfg.Limits.BulkMaxItems,
		m,
		logger,
	)

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger, sessionRepo))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewCustomerHandler(logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewShopRedactHandler(logger))

	router := api.NewRouter(api.Dependencies{
		Auth:       authService,
		Stores:     storeService,
		Catalog:    application.NewCatalogService(catalogs, logger),
		Metafields: metafieldService,
		Generation: application.NewGenerationService(generationClient, generationClient, catalogs, logger),
		Webhooks:   webhookDispatcher,
		Catalogs:   catalogs,
		App:        shopifyApp,
		Deliveries: cache.NewRedisDeliveryDeduper(redisClient),
		Metrics:    m,
	}, api.Options{
		CORSOrigins: cfg.CORSOrigins,
		SwaggerFile: "./docs/swagger.json",
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("storeBackend", cfg.Store.Backend).Msg("Starting API server")
		logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends
const (
	StoreBackendMongo = "mongo"
	StoreBackendSQL   = "sql"
)

type Config struct {
	Port        string
	AppURL      string
	LogLevel    string
	CORSOrigins []string

	Shopify    ShopifyConfig
	Store      StoreConfig
	Redis      RedisConfig
	Generation GenerationConfig
	Limits     LimitsConfig
}

type ShopifyConfig struct {
	APIKey     string
	APISecret  string
	Scopes     []string
	APIVersion string
	Timeout    time.Duration
	Namespace  string // namespace pinned on metafields created by the app
}

type StoreConfig struct {
	Backend       string
	MongoURI      string
	MongoDatabase string
	SQLDriver     string
	SQLDSN        string
}

type RedisConfig struct {
	URL string
}

// GenerationConfig points at the external metadata-generation service
type GenerationConfig struct {
	UploadURL   string
	RequestsURL string
	Timeout     time.Duration
}

type LimitsConfig struct {
	FreePlanMetafields int
	BulkMaxItems       int
}

// Load reads configuration from .env (optional) and the environment
func Load() (*Config, error) {
	// A missing .env is fine; the environment may carry everything
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_URL", "http://localhost:8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "https://admin.shopify.com")
	v.SetDefault("SHOPIFY_SCOPES", "read_products,write_products,read_metaobjects,write_metaobjects")
	v.SetDefault("SHOPIFY_API_VERSION", "2024-10")
	v.SetDefault("SHOPIFY_TIMEOUT", "30s")
	v.SetDefault("METAFIELD_NAMESPACE", "cartesian")
	v.SetDefault("STORE_BACKEND", StoreBackendMongo)
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "cartesian")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_URL", "file:cartesian.db?_pragma=busy_timeout(5000)")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("GENERATION_TIMEOUT", "60s")
	v.SetDefault("FREE_PLAN_METAFIELD_LIMIT", 50)
	v.SetDefault("BULK_MAX_ITEMS", 250)

	cfg := &Config{
		Port:        v.GetString("PORT"),
		AppURL:      strings.TrimSuffix(v.GetString("APP_URL"), "/"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		CORSOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		Shopify: ShopifyConfig{
			APIKey:     strings.TrimSpace(v.GetString("SHOPIFY_API_KEY")),
			APISecret:  strings.TrimSpace(v.GetString("SHOPIFY_API_SECRET")),
			Scopes:     splitList(v.GetString("SHOPIFY_SCOPES")),
			APIVersion: v.GetString("SHOPIFY_API_VERSION"),
			Timeout:    v.GetDuration("SHOPIFY_TIMEOUT"),
			Namespace:  v.GetString("METAFIELD_NAMESPACE"),
		},
		Store: StoreConfig{
			Backend:       strings.ToLower(v.GetString("STORE_BACKEND")),
			MongoURI:      v.GetString("MONGODB_URI"),
			MongoDatabase: v.GetString("MONGODB_DATABASE"),
			SQLDriver:     v.GetString("DATABASE_DRIVER"),
			SQLDSN:        v.GetString("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL: v.GetString("REDIS_URL"),
		},
		Generation: GenerationConfig{
			UploadURL:   strings.TrimSpace(v.GetString("GENERATION_UPLOAD_URL")),
			RequestsURL: strings.TrimSpace(v.GetString("GENERATION_REQUESTS_URL")),
			Timeout:     v.GetDuration("GENERATION_TIMEOUT"),
		},
		Limits: LimitsConfig{
			FreePlanMetafields: v.GetInt("FREE_PLAN_METAFIELD_LIMIT"),
			BulkMaxItems:       v.GetInt("BULK_MAX_ITEMS"),
		},
	}

	if cfg.Store.Backend != StoreBackendMongo && cfg.Store.Backend != StoreBackendSQL {
		return nil, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreBackendMongo, StoreBackendSQL, cfg.Store.Backend)
	}
	if cfg.Limits.BulkMaxItems <= 0 {
		return nil, fmt.Errorf("BULK_MAX_ITEMS must be positive")
	}

	return cfg, nil
}

// ValidateServer checks the settings only the HTTP server needs
func (c *Config) ValidateServer() error {
	if c.Shopify.APIKey == "" {
		return fmt.Errorf("SHOPIFY_API_KEY is required")
	}
	if c.Shopify.APISecret == "" {
		return fmt.Errorf("SHOPIFY_API_SECRET is required")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

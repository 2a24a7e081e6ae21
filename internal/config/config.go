package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	CatalogCacheTTL time.Duration
	CartTTL         time.Duration
	ReportCacheTTL  time.Duration

	SellerName    string
	SellerAddress string
	SellerGSTIN   string
	SellerPhone   string

	InvoicePDFDir string
	WebhookURL    string
	WebhookSecret string

	WorkerConcurrency int

	RateLimitPerMinute int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CatalogCacheTTL:    parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		CartTTL:            parseDuration(k.String("CART_TTL"), "24h"),
		ReportCacheTTL:     parseDuration(k.String("REPORT_CACHE_TTL"), "10m"),
		SellerName:         valueOrDefault(k.String("SELLER_NAME"), "Billing Counter"),
		SellerAddress:      strings.TrimSpace(k.String("SELLER_ADDRESS")),
		SellerGSTIN:        strings.TrimSpace(k.String("SELLER_GSTIN")),
		SellerPhone:        strings.TrimSpace(k.String("SELLER_PHONE")),
		InvoicePDFDir:      valueOrDefault(k.String("INVOICE_PDF_DIR"), "invoices"),
		WebhookURL:         strings.TrimSpace(k.String("WEBHOOK_URL")),
		WebhookSecret:      k.String("WEBHOOK_SECRET"),
		WorkerConcurrency:  parseInt(k.String("WORKER_CONCURRENCY"), 5),
		RateLimitPerMinute: parseInt(k.String("RATE_LIMIT_PER_MINUTE"), 300),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	base := strings.TrimSpace(value)
	if base == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(base, "%d", &n); err != nil || n <= 0 {
		return fallback
	}
	return n
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the API server reads at startup.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Shopify ShopifyConfig
	Redis   RedisConfig
	Tracing TracingConfig
	Log     LogConfig
}

type AppConfig struct {
	Port string
}

type DBConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// ShopifyConfig covers both the Admin API credentials used by the catalog
// client and the app credentials used to verify session tokens.
type ShopifyConfig struct {
	ShopDomain  string
	AccessToken string
	APIVersion  string
	Timeout     time.Duration
	APIKey      string
	APISecret   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type TracingConfig struct {
	JaegerEndpoint string
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads a .env file when present and then builds the Config from the
// environment. A missing .env is not an error; a missing DATABASE_URL is.
func Load() (*Config, []string, error) {
	var warnings []string
	if err := godotenv.Load(); err != nil {
		warnings = append(warnings, fmt.Sprintf("no .env file loaded: %v", err))
	}

	dbURL, err := requiredString("DATABASE_URL")
	if err != nil {
		return nil, warnings, err
	}

	cfg := &Config{
		App: AppConfig{
			Port: stringWithDefault("APP_PORT", "8080"),
		},
		DB: DBConfig{
			URL: dbURL,
		},
		Shopify: ShopifyConfig{
			ShopDomain:  strings.TrimSpace(os.Getenv("SHOPIFY_SHOP_DOMAIN")),
			AccessToken: os.Getenv("SHOPIFY_ACCESS_TOKEN"),
			APIVersion:  stringWithDefault("SHOPIFY_API_VERSION", "2025-01"),
			APIKey:      os.Getenv("SHOPIFY_API_KEY"),
			APISecret:   os.Getenv("SHOPIFY_API_SECRET"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Tracing: TracingConfig{
			JaegerEndpoint: os.Getenv("JAEGER_ENDPOINT"),
		},
		Log: LogConfig{
			Level: stringWithDefault("LOG_LEVEL", "info"),
		},
	}

	if cfg.DB.MaxOpenConns, err = intWithDefault("DB_MAX_OPEN_CONNS", 20); err != nil {
		return nil, warnings, err
	}
	if cfg.DB.MaxIdleConns, err = intWithDefault("DB_MAX_IDLE_CONNS", 10); err != nil {
		return nil, warnings, err
	}
	if cfg.Redis.DB, err = intWithDefault("REDIS_DB", 0); err != nil {
		return nil, warnings, err
	}
	if cfg.Shopify.Timeout, err = durationWithDefault("SHOPIFY_TIMEOUT", 10*time.Second); err != nil {
		return nil, warnings, err
	}
	if cfg.Redis.CacheTTL, err = durationWithDefault("CATALOG_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, warnings, err
	}
	if cfg.Log.Pretty, err = boolWithDefault("LOG_PRETTY", false); err != nil {
		return nil, warnings, err
	}

	if cfg.Shopify.APISecret == "" {
		warnings = append(warnings, "SHOPIFY_API_SECRET is not set: every session token will be rejected")
	}
	if cfg.Shopify.ShopDomain == "" || cfg.Shopify.AccessToken == "" {
		warnings = append(warnings, "SHOPIFY_SHOP_DOMAIN or SHOPIFY_ACCESS_TOKEN is not set: catalog requests will fail")
	}

	return cfg, warnings, nil
}

func requiredString(key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return value, nil
}

func stringWithDefault(key, def string) string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

func intWithDefault(key string, def int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %w", key, err)
	}
	return n, nil
}

func durationWithDefault(key string, def time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

func boolWithDefault(key string, def bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %w", key, err)
	}
	return b, nil
}

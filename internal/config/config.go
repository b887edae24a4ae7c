package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config captures runtime configuration for the API service.
type Config struct {
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Ledger    LedgerConfig
	Pricing   PricingConfig
	Catalog   CatalogConfig
	Telemetry TelemetryConfig
	Service   ServiceConfig
}

type HTTPConfig struct {
	Port          int
	MetricsPath   string
	ShutdownGrace int
}

type DatabaseConfig struct {
	URL            string
	AutoMigrate    bool
	MigrationsPath string
}

// LedgerConfig selects where the order ledger is persisted.
type LedgerConfig struct {
	Backend      string // postgres, file or memory
	StorageKey   string
	FilePath     string
	PollInterval time.Duration
}

type PricingConfig struct {
	FreeShippingThreshold string
	FlatShippingFee       string
	TaxRate               string
}

type CatalogConfig struct {
	BaseURL string
	Timeout time.Duration
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	defaultHTTPPort       = 8080
	defaultMetricsPath    = "/metrics"
	defaultShutdownGrace  = 15
	defaultMigrationsPath = "migrations"
	defaultAutoMigrate    = true
	defaultLedgerBackend  = "postgres"
	defaultStorageKey     = "myOrders"
	defaultLedgerFile     = "data/orders"
	defaultPollInterval   = 2 * time.Second
	defaultCatalogURL     = "https://dummyjson.com"
	defaultCatalogTimeout = 10 * time.Second
	defaultServiceName    = "storefront-api"
	defaultServiceVersion = "0.1.0"
	defaultEnvironment    = "development"
	defaultLogLevel       = "info"
	defaultOTelSampleRate = 1.0
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	ledgerCfg, err := loadLedgerConfig()
	if err != nil {
		return nil, fmt.Errorf("loading ledger config: %w", err)
	}

	catalogCfg, err := loadCatalogConfig()
	if err != nil {
		return nil, fmt.Errorf("loading catalog config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	return &Config{
		HTTP:      httpCfg,
		Database:  loadDatabaseConfig(),
		Ledger:    ledgerCfg,
		Pricing:   loadPricingConfig(),
		Catalog:   catalogCfg,
		Telemetry: telCfg,
		Service:   loadServiceConfig(),
	}, nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port := defaultHTTPPort
	if value, ok := os.LookupEnv("API_HTTP_PORT"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return HTTPConfig{}, fmt.Errorf("invalid API_HTTP_PORT: %w", err)
		}
		port = parsed
	}

	shutdownGrace := defaultShutdownGrace
	if value, ok := os.LookupEnv("API_SHUTDOWN_GRACE_SECONDS"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return HTTPConfig{}, fmt.Errorf("invalid API_SHUTDOWN_GRACE_SECONDS: %w", err)
		}
		shutdownGrace = parsed
	}

	metricsPath := getEnvOrDefault("API_METRICS_PATH", defaultMetricsPath)

	return HTTPConfig{
		Port:          port,
		MetricsPath:   metricsPath,
		ShutdownGrace: shutdownGrace,
	}, nil
}

func loadDatabaseConfig() DatabaseConfig {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	}

	autoMigrate := defaultAutoMigrate
	if value, ok := os.LookupEnv("AUTO_MIGRATE"); ok {
		autoMigrate = value == "true"
	}

	migrationsPath := getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath)

	return DatabaseConfig{
		URL:            databaseURL,
		AutoMigrate:    autoMigrate,
		MigrationsPath: migrationsPath,
	}
}

func loadLedgerConfig() (LedgerConfig, error) {
	backend := getEnvOrDefault("LEDGER_BACKEND", defaultLedgerBackend)
	switch backend {
	case "postgres", "file", "memory":
	default:
		return LedgerConfig{}, fmt.Errorf("invalid LEDGER_BACKEND %q: want postgres, file or memory", backend)
	}

	pollInterval := defaultPollInterval
	if value, ok := os.LookupEnv("LEDGER_POLL_INTERVAL"); ok {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return LedgerConfig{}, fmt.Errorf("invalid LEDGER_POLL_INTERVAL: %w", err)
		}
		pollInterval = parsed
	}

	return LedgerConfig{
		Backend:      backend,
		StorageKey:   getEnvOrDefault("LEDGER_STORAGE_KEY", defaultStorageKey),
		FilePath:     getEnvOrDefault("LEDGER_FILE_PATH", defaultLedgerFile),
		PollInterval: pollInterval,
	}, nil
}

// loadPricingConfig keeps the raw strings; the pricing package parses them so
// monetary values never round-trip through floats.
func loadPricingConfig() PricingConfig {
	return PricingConfig{
		FreeShippingThreshold: getEnvOrDefault("PRICING_FREE_SHIPPING_THRESHOLD", ""),
		FlatShippingFee:       getEnvOrDefault("PRICING_FLAT_SHIPPING_FEE", ""),
		TaxRate:               getEnvOrDefault("PRICING_TAX_RATE", ""),
	}
}

func loadCatalogConfig() (CatalogConfig, error) {
	timeout := defaultCatalogTimeout
	if value, ok := os.LookupEnv("CATALOG_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return CatalogConfig{}, fmt.Errorf("invalid CATALOG_TIMEOUT: %w", err)
		}
		timeout = parsed
	}

	return CatalogConfig{
		BaseURL: getEnvOrDefault("CATALOG_BASE_URL", defaultCatalogURL),
		Timeout: timeout,
	}, nil
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	logLevel := getEnvOrDefault("LOG_LEVEL", defaultLogLevel)
	otelEndpoint := getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	enableTracing := getBoolEnv("OTEL_ENABLE_TRACING", true)
	enableMetrics := getBoolEnv("OTEL_ENABLE_METRICS", true)

	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:      logLevel,
		OTelEndpoint:  otelEndpoint,
		EnableTracing: enableTracing,
		EnableMetrics: enableMetrics,
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func buildDatabaseURL() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "storefront")
	sslMode := getEnvOrDefault("DB_SSLMODE", "disable")

	maxConns := getEnvOrDefault("DB_MAX_CONNS", "25")
	minConns := getEnvOrDefault("DB_MIN_CONNS", "5")
	maxLifetime := getEnvOrDefault("DB_MAX_CONN_LIFETIME", "5m")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s&pool_min_conns=%s&pool_max_conn_lifetime=%s",
		user, password, host, port, dbName, sslMode, maxConns, minConns, maxLifetime,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/dejobratic/storefront/internal/cart"
	"github.com/dejobratic/storefront/internal/catalog"
	"github.com/dejobratic/storefront/internal/config"
	"github.com/dejobratic/storefront/internal/database"
	idemmemory "github.com/dejobratic/storefront/internal/idempotency/memory"
	idempostgres "github.com/dejobratic/storefront/internal/idempotency/postgres"
	"github.com/dejobratic/storefront/internal/kafka"
	"github.com/dejobratic/storefront/internal/orders/adapters"
	ordersfile "github.com/dejobratic/storefront/internal/orders/adapters/file"
	httpadapter "github.com/dejobratic/storefront/internal/orders/adapters/http"
	"github.com/dejobratic/storefront/internal/orders/adapters/memory"
	orderspostgres "github.com/dejobratic/storefront/internal/orders/adapters/postgres"
	ordersapp "github.com/dejobratic/storefront/internal/orders/app"
	"github.com/dejobratic/storefront/internal/orders/ledger"
	ordersmetrics "github.com/dejobratic/storefront/internal/orders/metrics"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/dejobratic/storefront/internal/pricing"
	"github.com/dejobratic/storefront/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(telemetry.ParseLevel(cfg.Telemetry.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	meter := otel.Meter(cfg.Service.Name)

	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create http metrics", "error", err)
		os.Exit(1)
	}
	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create storage metrics", "error", err)
		os.Exit(1)
	}
	kafkaMetrics, err := kafka.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create event metrics", "error", err)
		os.Exit(1)
	}
	orderMetrics, err := ordersmetrics.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create order metrics", "error", err)
		os.Exit(1)
	}

	calc, err := buildCalculator(cfg.Pricing)
	if err != nil {
		logger.Error("invalid pricing configuration", "error", err)
		os.Exit(1)
	}

	var repo ports.Repository
	var idemStore ports.IdempotencyStore
	checkReady := func(context.Context) error { return nil }

	switch cfg.Ledger.Backend {
	case "postgres":
		pool, err := database.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if cfg.Database.AutoMigrate {
			logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
			if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
				logger.Error("failed to run migrations", "error", err)
				os.Exit(1)
			}
			logger.Info("migrations completed successfully")
		}

		pgRepo := orderspostgres.NewRepository(pool, cfg.Ledger.StorageKey)
		if err := pgRepo.Listen(ctx); err != nil {
			logger.Error("failed to listen for ledger changes", "error", err)
			os.Exit(1)
		}

		repo = pgRepo
		idemStore = idempostgres.NewStore(pool)
		checkReady = func(ctx context.Context) error { return database.CheckHealth(ctx, pool) }

	case "file":
		fileRepo := ordersfile.NewRepository(cfg.Ledger.FilePath, cfg.Ledger.StorageKey,
			ordersfile.WithPollInterval(cfg.Ledger.PollInterval))
		fileRepo.Watch(ctx)

		repo = fileRepo
		idemStore = idemmemory.NewStore()

	default:
		repo = memory.NewRepository()
		idemStore = idemmemory.NewStore()
	}

	observableRepo := adapters.NewObservableRepository(repo, dbMetrics)

	led := ledger.New(observableRepo, logger)
	if err := led.Start(ctx); err != nil {
		logger.Error("failed to start order ledger", "error", err)
		os.Exit(1)
	}

	eventBus := adapters.NewObservableEventBus(kafka.NewNoopEventBus(), kafkaMetrics)
	service := ordersapp.NewService(led, calc, eventBus, idemStore, logger, orderMetrics)

	go func() {
		changes := service.Subscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				logger.Info("order ledger changed", "orders", len(led.List()))
			}
		}
	}()

	carts := cart.NewManager()
	catalogClient := catalog.NewClient(cfg.Catalog.BaseURL, catalog.WithTimeout(cfg.Catalog.Timeout))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := checkReady(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.HandleFunc(cfg.HTTP.MetricsPath, func(w http.ResponseWriter, _ *http.Request) {
		// Metrics flow out through the OTLP exporter; this path only confirms liveness.
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("# metrics are exported via OTLP\n"))
	})

	httpadapter.NewHandler(service, carts, catalogClient).Register(mux)
	httpadapter.NewCartHandler(carts, catalogClient, calc).Register(mux)
	httpadapter.NewProductHandler(catalogClient).Register(mux)

	handler := withRecovery(withLogging(
		httpadapter.WithMetrics(httpadapter.WithCartSession(mux), httpMetrics)))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port, "ledger_backend", cfg.Ledger.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	} else {
		logger.Info("http server stopped")
	}
}

// buildCalculator applies configured pricing overrides on top of the engine
// defaults. Empty values keep the defaults.
func buildCalculator(cfg config.PricingConfig) (*pricing.Calculator, error) {
	var opts []pricing.Option

	if cfg.FreeShippingThreshold != "" {
		threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold)
		if err != nil {
			return nil, fmt.Errorf("invalid free shipping threshold: %w", err)
		}
		opts = append(opts, pricing.WithFreeShippingThreshold(threshold))
	}

	if cfg.FlatShippingFee != "" {
		fee, err := decimal.NewFromString(cfg.FlatShippingFee)
		if err != nil {
			return nil, fmt.Errorf("invalid flat shipping fee: %w", err)
		}
		opts = append(opts, pricing.WithFlatShippingFee(fee))
	}

	if cfg.TaxRate != "" {
		rate, err := decimal.NewFromString(cfg.TaxRate)
		if err != nil {
			return nil, fmt.Errorf("invalid tax rate: %w", err)
		}
		opts = append(opts, pricing.WithTaxRate(rate))
	}

	return pricing.NewCalculator(opts...), nil
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		slog.Info("http request", "method", r.Method, "path", r.URL.Path, "status", rw.status, "duration", time.Since(start))
	})
}

func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered", "error", rec)
				respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

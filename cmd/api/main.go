package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/georgemunganga/pricing-rules/internal/config"
	"github.com/georgemunganga/pricing-rules/internal/modules/auth"
	"github.com/georgemunganga/pricing-rules/internal/modules/catalog"
	"github.com/georgemunganga/pricing-rules/internal/modules/pricing"
	"github.com/georgemunganga/pricing-rules/internal/modules/tag"
	"github.com/georgemunganga/pricing-rules/internal/platform/logger"
	"github.com/georgemunganga/pricing-rules/internal/platform/tracing"
)

const serviceName = "pricing-rules"

func main() {
	cfg, warnings, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	base := logger.Init(serviceName, cfg.Log.Level, cfg.Log.Pretty)
	for _, w := range warnings {
		log.Warn().Msg(w)
	}

	shutdownTracing, err := tracing.Init(serviceName, cfg.Tracing.JaegerEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init tracing")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Error().Err(err).Msg("tracer shutdown failed")
		}
	}()

	db, err := sql.Open("postgres", cfg.DB.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to reach database")
	}
	log.Info().Msg("connected to the database")

	// ── Catalog ─────────────────────────────────────────────
	var pageCache catalog.PageCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		pageCache = catalog.NewRedisCache(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("catalog cache: redis")
	} else {
		pageCache = catalog.NewMemoryCache()
		log.Info().Msg("catalog cache: in-memory")
	}
	shopify := catalog.NewShopifyClient(cfg.Shopify, nil)
	provider := catalog.NewCachedProvider(shopify, pageCache, cfg.Redis.CacheTTL)

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logger.Middleware(base)...)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	router.Handle("/metrics", promhttp.Handler())

	authService := auth.NewService(cfg.Shopify)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(authService))

		catalog.NewHandler(catalog.NewService(provider)).RegisterRoutes(r)

		tagRepo := tag.NewPostgresRepository(db)
		tag.NewHandler(tag.NewService(tagRepo, provider)).RegisterRoutes(r)

		pricingRepo := pricing.NewPostgresRepository(db)
		pricing.NewHandler(pricing.NewService(pricingRepo, provider)).RegisterRoutes(r)
	})

	// ── Start Server ────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("pricing rules API starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/kailas-cloud/attire/internal/catalog"
	"github.com/kailas-cloud/attire/internal/config"
	"github.com/kailas-cloud/attire/internal/db"
	dbRedis "github.com/kailas-cloud/attire/internal/db/redis"
	"github.com/kailas-cloud/attire/internal/encoder"
	logpkg "github.com/kailas-cloud/attire/internal/logger"
	"github.com/kailas-cloud/attire/internal/metrics"
	"github.com/kailas-cloud/attire/internal/transport/httpapi"
	feedbackuc "github.com/kailas-cloud/attire/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/attire/internal/usecase/health"
	"github.com/kailas-cloud/attire/internal/usecase/recommend"
	"github.com/kailas-cloud/attire/internal/version"
	"github.com/kailas-cloud/attire/internal/weather"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting attire API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog", cfg.Catalog.Path),
		zap.String("weights", cfg.Model.WeightsPath),
	)

	// Register domain metrics explicitly (no init())
	metrics.RegisterRecommendMetrics()

	// Load the catalog and model weights. Both are startup-fatal: no partial
	// service without a working recommendation core.
	store, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	logger.Info("Catalog loaded", zap.Int("items", store.Len()))

	model, err := encoder.Load(cfg.Model.WeightsPath)
	if err != nil {
		logger.Fatal("Failed to load model weights", zap.Error(err))
	}

	engine := recommend.New(logger, recommend.Options{
		Weights: recommend.FusionWeights{
			Embedding: cfg.Recommend.EmbeddingWeight,
			Usage:     cfg.Recommend.UsageWeight,
			Season:    cfg.Recommend.SeasonWeight,
		},
		RetrieveFactor: cfg.Recommend.RetrieveFactor,
		RetrieveMin:    cfg.Recommend.RetrieveMin,
		ImageBaseURL:   cfg.Catalog.ImageBaseURL,
		ArticleType:    recommend.ArticleTypeStrategy(cfg.Recommend.ArticleType),
	})
	if err := engine.Load(store, model); err != nil {
		logger.Fatal("Failed to build recommendation index", zap.Error(err))
	}

	// Optional forecast cache store. An empty addrs list runs without caching.
	ctx := context.Background()
	var cacheStore db.Store
	if len(cfg.Cache.Addrs) > 0 {
		cacheStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cacheStore.Close()

		if err := cacheStore.WaitForReady(ctx, 10*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to forecast cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Weather provider chain: Open-Meteo client -> cache decorator.
	var forecasts weather.Provider = weather.NewClient(weather.ClientConfig{
		BaseURL:      cfg.Weather.BaseURL,
		ForecastDays: cfg.Weather.ForecastDays,
		Timezone:     cfg.Weather.Timezone,
		Timeout:      time.Duration(cfg.Weather.TimeoutSec) * time.Second,
	}, logger)
	if cacheStore != nil {
		forecasts = weather.NewCachedProvider(
			forecasts,
			cacheStore,
			time.Duration(cfg.Weather.CacheTTLSec)*time.Second,
			metrics.WeatherCacheTotal,
			logger,
		)
	}

	feedbackSvc := feedbackuc.NewService(cfg.Feedback.Path, logger)

	var cachePinger healthuc.CachePinger
	if cacheStore != nil {
		cachePinger = cacheStore
	}
	healthSvc := healthuc.New(engine, cachePinger)

	server := httpapi.NewServer(engine, forecasts, feedbackSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(httprate.LimitByIP(cfg.HTTP.RateLimitPerMin, time.Minute))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

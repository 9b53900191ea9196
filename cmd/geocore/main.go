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
	"go.uber.org/zap"

	"github.com/spontime/geocore/internal/config"
	"github.com/spontime/geocore/internal/db"
	dbRedis "github.com/spontime/geocore/internal/db/redis"
	"github.com/spontime/geocore/internal/domain"
	logpkg "github.com/spontime/geocore/internal/logger"
	"github.com/spontime/geocore/internal/metrics"
	clusterrepo "github.com/spontime/geocore/internal/repository/cluster"
	entityrepo "github.com/spontime/geocore/internal/repository/entity"
	interactionrepo "github.com/spontime/geocore/internal/repository/interaction"
	planrepo "github.com/spontime/geocore/internal/repository/plan"
	snapshotrepo "github.com/spontime/geocore/internal/repository/snapshot"
	"github.com/spontime/geocore/internal/scheduler"
	chiTransport "github.com/spontime/geocore/internal/transport/chi"
	clusteringuc "github.com/spontime/geocore/internal/usecase/clustering"
	healthuc "github.com/spontime/geocore/internal/usecase/health"
	historyuc "github.com/spontime/geocore/internal/usecase/history"
	recouc "github.com/spontime/geocore/internal/usecase/reco"
	searchuc "github.com/spontime/geocore/internal/usecase/search"
	"github.com/spontime/geocore/internal/version"
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

	logger.Info("Starting geocore engine",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Both supported drivers speak RESP; one store serves either.
	var store db.Store
	store, err = dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register engine metrics explicitly (no init())
	metrics.RegisterEngineMetrics()

	// Repositories over the shared keyspace
	prefix := cfg.Storage.KeyPrefix
	entities := entityrepo.New(store, prefix)
	plans := planrepo.New(store, prefix)
	interactions := interactionrepo.New(store, prefix)
	clusters := clusterrepo.New(store, prefix)
	snapshots := snapshotrepo.New(store, prefix)

	// Use case services, wired at the composition root
	scopes := make(map[domain.Scope]clusteringuc.Params, len(cfg.Clustering.Scopes))
	for name, sc := range cfg.Clustering.Scopes {
		scope := domain.Scope(name)
		if !scope.IsValid() {
			logger.Fatal("Unknown clustering scope in config", zap.String("scope", name))
		}
		scopes[scope] = clusteringuc.Params{
			EpsDegrees: sc.EpsDegrees,
			MinSamples: sc.MinSamples,
		}
	}
	clusteringSvc := clusteringuc.New(entities, clusters, scopes, logger)

	historySvc := historyuc.New(interactions, interactions, plans)
	recoSvc := recouc.New(historySvc, plans, snapshots, interactions, recouc.Config{
		BaseScore:       cfg.Reco.BaseScore,
		TagWeight:       cfg.Reco.TagWeight,
		ProximityBonus:  cfg.Reco.ProximityBonus,
		ProximityMeters: cfg.Reco.ProximityMeters,
		PoolCap:         cfg.Reco.PoolCap,
		TopN:            cfg.Reco.TopN,
		AlgoVersion:     cfg.Reco.AlgoVersion,
		Workers:         cfg.Reco.Workers,
	}, logger)

	searchSvc := searchuc.New(plans, searchuc.Defaults{
		RadiusKm:    cfg.Search.DefaultRadiusKm,
		WindowHours: cfg.Search.DefaultWindowHours,
	}, logger)

	healthSvc := healthuc.New(store)

	// Periodic batch jobs
	schedCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	sched := scheduler.New(
		clusteringSvc,
		recoSvc,
		time.Duration(cfg.Scheduler.ClusteringIntervalSec)*time.Second,
		time.Duration(cfg.Scheduler.RecoIntervalSec)*time.Second,
		logger,
	)
	go sched.Run(schedCtx)

	// HTTP shim over the computed artifacts
	server := chiTransport.NewServer(clusters, snapshots, searchSvc, clusteringSvc, recoSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
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
	stopScheduler()

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

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/learnledger/indexer/api/swagger"
	"github.com/learnledger/indexer/internal/chain"
	"github.com/learnledger/indexer/internal/handler"
	"github.com/learnledger/indexer/internal/ingest"
	"github.com/learnledger/indexer/internal/mapping"
	"github.com/learnledger/indexer/internal/repository"
	"github.com/learnledger/indexer/internal/service"
	"github.com/learnledger/indexer/internal/store"
	"github.com/learnledger/indexer/pkg/cache"
	"github.com/learnledger/indexer/pkg/config"
	"github.com/learnledger/indexer/pkg/database"
	"github.com/learnledger/indexer/pkg/logger"
	corsmiddleware "github.com/learnledger/indexer/pkg/middleware/cors"
	reqidmiddleware "github.com/learnledger/indexer/pkg/middleware/requestid"
	"github.com/learnledger/indexer/pkg/storage"
)

// @title LearnLedger Indexer API
// @version 0.1.0
// @description Read-only query API over the materialized on-chain entity graph
// @BasePath /api/v1
// @schemes http

func main() {
	mintToken := flag.String("issue-admin-token", "", "mint an admin token for the given subject and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *mintToken != "" {
		auth := service.NewAuthService(cfg.Admin.JWTSecret, cfg.Admin.Expiration, nil)
		token, expiresAt, err := auth.IssueToken(*mintToken)
		if err != nil {
			log.Fatalf("failed to issue token: %v", err)
		}
		fmt.Printf("%s\nexpires: %s\n", token, expiresAt.Format(time.RFC3339))
		return
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Sugar().Fatalw("indexer failed", "error", err)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer backend.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	var reader chain.Reader = chain.StaticReader{}
	if cfg.Chain.RPCURL != "" {
		reader = chain.NewRPCReader(cfg.Chain.RPCURL, cfg.Chain.Timeout,
			cfg.Chain.CatalogAddr, cfg.Chain.CertificateAddr, logr.Named("chain"))
	}

	strictEnums := cfg.Env != config.EnvProduction
	engine := mapping.NewEngine(reader, cfg.Fees, strictEnums, logr.Named("mapping"), metrics)

	// Resume the stream from the last committed position.
	startID := cfg.Ingest.StartID
	if cursor, err := backend.Cursor(ctx); err == nil && cursor != nil && cursor.StreamID != "" {
		startID = cursor.StreamID
	}
	src := ingest.NewStreamSource(redisClient, cfg.Ingest.StreamKey, startID, cfg.Ingest.BlockWait, logr.Named("ingest"))
	runner := ingest.NewRunner(backend, engine, src, logr.Named("ingest"))

	runnerDone := make(chan error, 1)
	go func() {
		runnerDone <- runner.Run(ctx)
	}()

	cacheService := service.NewCacheService(
		cache.NewQueryCache(redisClient, "indexer"),
		metrics, cfg.Query.CacheTTL, logr.Named("cache"),
		cfg.Query.CacheTTL > 0,
	)

	deps := handler.Deps{
		Courses:      service.NewCourseService(backend, logr.Named("courses")),
		Users:        service.NewUserService(backend, logr.Named("users")),
		Enrollments:  service.NewEnrollmentService(backend, logr.Named("enrollments")),
		Certificates: service.NewCertificateService(backend, logr.Named("certificates")),
		Activities:   service.NewActivityService(backend, logr.Named("activities")),
		Stats:        service.NewStatsService(backend, logr.Named("stats")),
		Metrics:      metrics,
		Cache:        cacheService,
		Backend:      backend,
	}

	if cfg.Admin.Enabled {
		deps.Auth = service.NewAuthService(cfg.Admin.JWTSecret, cfg.Admin.Expiration, logr.Named("auth"))
		deps.Admin = service.NewAdminService(backend, engine, cfg.Ingest.ReplayPath, logr.Named("admin"))
	}

	if cfg.Exports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			return fmt.Errorf("init export storage: %w", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exports := service.NewExportService(backend, files, signer, cfg.APIPrefix, logr.Named("exports"))
		exports.Start(ctx)
		defer exports.Stop()
		deps.Exports = exports
		if deps.Auth == nil {
			deps.Auth = service.NewAuthService(cfg.Admin.JWTSecret, cfg.Admin.Expiration, logr.Named("auth"))
		}
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	handler.Register(r, cfg, deps)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverDone := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
			return
		}
		serverDone <- nil
	}()

	select {
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	case err := <-runnerDone:
		if err != nil {
			logr.Error("ingest stopped", zap.Error(err))
		}
		stop()
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("server shutdown", zap.Error(err))
	}
	return nil
}

func openBackend(cfg *config.Config) (store.Backend, error) {
	if cfg.Ingest.StoreDriver == config.StoreMemory {
		return store.NewMemory(), nil
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, err
	}
	return repository.NewPostgres(db), nil
}

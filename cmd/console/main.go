package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-adp-console/api/swagger"
	"github.com/noah-isme/sma-adp-console/internal/catalog"
	"github.com/noah-isme/sma-adp-console/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-adp-console/internal/middleware"
	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/internal/repository"
	"github.com/noah-isme/sma-adp-console/internal/service"
	"github.com/noah-isme/sma-adp-console/internal/upstream"
	"github.com/noah-isme/sma-adp-console/pkg/cache"
	"github.com/noah-isme/sma-adp-console/pkg/config"
	"github.com/noah-isme/sma-adp-console/pkg/export"
	"github.com/noah-isme/sma-adp-console/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-adp-console/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-adp-console/pkg/middleware/requestid"
	"github.com/noah-isme/sma-adp-console/pkg/storage"
)

// @title SMA ADP Attendance Console
// @version 0.2.0
// @description List pages, bulk operations and exports for the attendance dashboard
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
		if cfg.Auth.Secret == "" || cfg.Auth.Secret == "dev_secret" {
			logr.Fatal("JWT_SECRET must be set in production")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	tokens := upstream.NewTokenSource(cfg.Upstream.TokenSecret, cfg.Upstream.TokenSubject, cfg.Upstream.TokenTTL)
	client := upstream.New(upstream.Config{
		BaseURL:      cfg.Upstream.BaseURL,
		Timeout:      cfg.Upstream.Timeout,
		MaxBodyBytes: cfg.Upstream.MaxBodyBytes,
		UserAgent:    cfg.Upstream.UserAgent,
		Tokens:       tokens,
	}, logr, metricsSvc.ObserveUpstream)
	checks["upstream"] = client.Ping

	var viewRepo service.ViewStateRepository
	if cfg.ViewState.Enabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("view state disabled: redis unavailable", zap.Error(err))
		} else {
			repo := repository.NewViewStateRepository(redisClient, cfg.ViewState.Prefix, logr)
			defer repo.Close() //nolint:errcheck
			viewRepo = repo
			checks["redis"] = repo.Ping
		}
	}
	viewState := service.NewViewStateService(viewRepo, metricsSvc, cfg.ViewState.TTL, logr, viewRepo != nil)

	fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir, nil)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL, nil)
	exportSvc := service.NewExportService(fileStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
		MaxRows:   cfg.Exports.MaxRows,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter())
	if err := exportSvc.StartCleanup(cfg.Exports.CleanupSchedule); err != nil {
		logr.Fatal("failed to schedule export cleanup", zap.Error(err))
	}
	defer exportSvc.StopCleanup()

	reconciler := service.NewReconcileService(service.ReconcileConfig{
		Workers:    cfg.Reconcile.Workers,
		BufferSize: cfg.Reconcile.BufferSize,
		Timeout:    cfg.Upstream.Timeout,
	}, logr)
	reconciler.Start(ctx)
	defer reconciler.Stop()

	registry := catalog.Default()
	sessions := service.NewSessionService(service.SessionConfig{
		Capacity:      cfg.Sessions.Capacity,
		IdleTTL:       cfg.Sessions.IdleTTL,
		ToastCapacity: cfg.Sessions.ToastCap,
		Locale:        cfg.Listing.Locale,
		Timeout:       cfg.Upstream.Timeout,
		DetailTimeout: cfg.Upstream.DetailTimeout,
		Debounce:      cfg.Listing.SearchDebounce,
		PageSize:      cfg.Listing.DefaultPageSize,
		CacheCapacity: cfg.Listing.RowCacheCapacity,
	}, service.SessionDeps{
		Catalog:    registry,
		Upstream:   client,
		Exporter:   exportSvc,
		Reconciler: reconciler,
		ViewState:  viewState,
		Metrics:    metricsSvc,
		Logger:     logr,
		Clock:      clockwork.NewRealClock(),
	})
	defer sessions.Shutdown()

	pageSvc := service.NewPageService(validator.New(), logr)
	authSvc := service.NewAuthService(service.AuthConfig{Secret: cfg.Auth.Secret, Issuer: cfg.Auth.Issuer}, logr)
	roles := make([]models.UserRole, 0, len(cfg.Auth.AllowedRoles))
	for _, role := range cfg.Auth.AllowedRoles {
		roles = append(roles, models.UserRole(strings.ToUpper(role)))
	}

	handlers := handler.Handlers{
		Pages:    handler.NewPageHandler(pageSvc),
		Sessions: handler.NewSessionHandler(sessions, registry),
		Exports:  handler.NewExportHandler(exportSvc),
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	sessionHeader := cfg.Sessions.Header
	if sessionHeader == "" {
		sessionHeader = internalmiddleware.DefaultSessionHeader
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, sessionHeader))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	handlers.RegisterPublicRoutes(api)
	handlers.RegisterSessionRoutes(api.Group("",
		internalmiddleware.JWT(authSvc),
		internalmiddleware.RequireRoles(roles...),
		internalmiddleware.Session(sessions, sessionHeader),
	))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

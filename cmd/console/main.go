package main

import (
	"context"
	"errors"
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

	_ "github.com/noah-isme/member-console/api/swagger"
	"github.com/noah-isme/member-console/internal/handler"
	internalmiddleware "github.com/noah-isme/member-console/internal/middleware"
	"github.com/noah-isme/member-console/internal/repository"
	"github.com/noah-isme/member-console/internal/service"
	"github.com/noah-isme/member-console/pkg/cache"
	"github.com/noah-isme/member-console/pkg/config"
	"github.com/noah-isme/member-console/pkg/database"
	"github.com/noah-isme/member-console/pkg/logger"
	"github.com/noah-isme/member-console/pkg/tracing"
	corsmiddleware "github.com/noah-isme/member-console/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/member-console/pkg/middleware/requestid"
)

// @title Member Console API
// @version 1.0.0
// @description Operator console over the member service
// @BasePath /api/v1
// @schemes http

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
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, cfg.Env)
	if err != nil {
		logr.Sugar().Fatalw("failed to init tracing", "error", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logr.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	metricsSvc := service.NewMetricsService()
	checks := map[string]handler.Pinger{}

	cacheSvc := service.NewCacheService(nil, metricsSvc, cfg.Catalog.CacheTTL, logr, false)
	if cfg.Catalog.CacheEnabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, true)
			checks["redis"] = cacheRepo
		}
	}

	auditSvc := service.NewAuditService(nil, cfg.Audit, metricsSvc, logr)
	if cfg.Audit.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Warn("postgres unavailable, audit trail disabled", zap.Error(err))
		} else {
			defer db.Close() //nolint:errcheck
			auditRepo := repository.NewAuditRepository(db)
			auditSvc = service.NewAuditService(auditRepo, cfg.Audit, metricsSvc, logr)
			checks["postgres"] = auditRepo
		}
	}
	auditSvc.Start(ctx)
	defer auditSvc.Stop()

	apiClient := repository.NewAPIClient(cfg.Remote, nil, metricsSvc, logr)
	memberRepo := repository.NewMemberAPIRepository(apiClient)
	packageRepo := repository.NewPackageAPIRepository(apiClient)

	directorySvc := service.NewDirectoryService(memberRepo, service.NewQueryBuilder(cfg.Directory), auditSvc, cfg.Directory, metricsSvc, logr)
	assignmentSvc := service.NewAssignmentService(directorySvc, memberRepo, auditSvc, metricsSvc, logr)
	catalogSvc := service.NewPackageCatalogService(packageRepo, cacheSvc, logr)
	subscriptionSvc := service.NewSubscriptionService(memberRepo, catalogSvc, auditSvc, cfg.Membership, metricsSvc, logr)
	exportSvc := service.NewExportService(directorySvc, nil, nil, logr)

	go directorySvc.RunJanitor(ctx, cfg.Directory.JanitorInterval)

	directoryHandler := handler.NewDirectoryHandler(directorySvc, exportSvc)
	selectionHandler := handler.NewSelectionHandler(assignmentSvc)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionSvc)
	packageHandler := handler.NewPackageHandler(catalogSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(internalmiddleware.Tracing())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, cfg.CORS.MaxAge))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.Actor())
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	views := api.Group("/directory/views")
	views.POST("", directoryHandler.Open)
	views.GET("/:viewId", directoryHandler.Get)
	views.DELETE("/:viewId", directoryHandler.Close)
	views.GET("/:viewId/members", directoryHandler.Members)
	views.POST("/:viewId/members", directoryHandler.CreateMember)
	views.POST("/:viewId/members/more", directoryHandler.More)
	views.GET("/:viewId/members/rank", directoryHandler.Rank)
	views.PATCH("/:viewId/members/:id", directoryHandler.UpdateMember)
	views.DELETE("/:viewId/members/:id", directoryHandler.DeleteMember)
	views.POST("/:viewId/refresh", directoryHandler.Refresh)
	views.GET("/:viewId/export", directoryHandler.Export)

	views.DELETE("/:viewId/selection", selectionHandler.Clear)
	views.POST("/:viewId/selection/toggle", selectionHandler.Toggle)
	views.POST("/:viewId/selection/all", selectionHandler.SelectAll)
	views.GET("/:viewId/selection/status", selectionHandler.Status)
	views.POST("/:viewId/selection/assign", selectionHandler.Assign)

	members := api.Group("/members")
	members.GET("/:id/subscriptions", subscriptionHandler.Details)
	members.POST("/:id/subscriptions", subscriptionHandler.AddPackage)
	members.DELETE("/:id/subscriptions/session", subscriptionHandler.CloseSession)
	members.POST("/:id/membership/register", subscriptionHandler.Register)
	members.POST("/:id/membership/premium", subscriptionHandler.ActivatePremium)
	members.POST("/:id/membership/renewal", subscriptionHandler.Renew)
	members.GET("/:id/audit", auditHandler.Member)

	api.GET("/packages", packageHandler.List)
	api.DELETE("/packages/cache", packageHandler.Invalidate)
	api.GET("/metrics/summary", metricsHandler.Summary)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "remote", cfg.Remote.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

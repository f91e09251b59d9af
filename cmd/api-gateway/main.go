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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/gac-api/api/swagger"
	"github.com/noah-isme/gac-api/internal/handler"
	internalmiddleware "github.com/noah-isme/gac-api/internal/middleware"
	"github.com/noah-isme/gac-api/internal/models"
	"github.com/noah-isme/gac-api/internal/repository"
	"github.com/noah-isme/gac-api/internal/service"
	"github.com/noah-isme/gac-api/pkg/cache"
	"github.com/noah-isme/gac-api/pkg/config"
	"github.com/noah-isme/gac-api/pkg/database"
	"github.com/noah-isme/gac-api/pkg/export"
	"github.com/noah-isme/gac-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/gac-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/gac-api/pkg/middleware/requestid"
	"github.com/noah-isme/gac-api/pkg/storage"
)

// @title GAC API
// @version 1.0.0
// @description Complementary activity hour accounting service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		redisClient = nil
	}

	objectStore, err := storage.NewMinIO(cfg.Storage)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to object storage", "error", err)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	})
	submissionSvc := service.NewSubmissionService(submissionRepo, catalogRepo, userRepo, objectStore, auditRepo, metricsSvc, validate, logr, service.SubmissionServiceConfig{
		MaxFileSize:   cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:  cfg.Uploads.AllowedMIMEs,
		StoragePrefix: cfg.Storage.Prefix,
		DownloadTTL:   cfg.Storage.DownloadTTL,
		MaxTotalHours: cfg.Credits.MaxTotalHours,
	})
	ledgerSvc := service.NewLedgerService(submissionRepo, logr, cfg.Credits.MaxTotalHours)
	catalogSvc := service.NewCatalogService(catalogRepo, cacheRepo, metricsSvc, validate, logr, cfg.Catalog.CacheTTL)
	userSvc := service.NewUserService(userRepo, auditRepo, validate, logr)
	exportSvc := service.NewExportService(submissionRepo, submissionRepo, userRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	authHandler := handler.NewAuthHandler(authSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	creditHandler := handler.NewCreditHandler(ledgerSvc, exportSvc)
	userHandler := handler.NewUserHandler(userSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))

	secured.POST("/auth/logout", authHandler.Logout)
	secured.POST("/auth/change-password", authHandler.ChangePassword)

	anyRole := internalmiddleware.RequireRoles(models.RoleStudent, models.RoleProfessor, models.RoleAdmin)
	staff := internalmiddleware.RequireRoles(models.RoleProfessor, models.RoleAdmin)
	staffOrSelf := internalmiddleware.RBAC(string(models.RoleProfessor), string(models.RoleAdmin), internalmiddleware.SelfGrant)
	adminOnly := internalmiddleware.RequireRoles(models.RoleAdmin)

	secured.GET("/dimensions", anyRole, catalogHandler.ListDimensions)
	secured.POST("/dimensions", adminOnly, catalogHandler.CreateDimension)
	secured.GET("/activities", anyRole, catalogHandler.ListActivities)
	secured.POST("/activities", adminOnly, catalogHandler.CreateActivity)
	secured.GET("/proof-modes", anyRole, catalogHandler.ListProofModes)

	secured.POST("/submissions", internalmiddleware.RequireRoles(models.RoleStudent), submissionHandler.Create)
	secured.GET("/submissions", anyRole, submissionHandler.List)
	secured.GET("/submissions/:id", anyRole, submissionHandler.Get)
	secured.PATCH("/submissions/:id/review", staff, submissionHandler.Review)
	secured.DELETE("/submissions/:id", anyRole, submissionHandler.Delete)

	secured.GET("/me/hours", anyRole, creditHandler.MySummary)
	secured.GET("/students/:id/hours", staffOrSelf, creditHandler.Summary)
	secured.GET("/students/:id/statement", staffOrSelf, creditHandler.Statement)

	secured.POST("/users", adminOnly, userHandler.Create)
	secured.GET("/users", staff, userHandler.List)
	secured.GET("/users/:id", internalmiddleware.RBAC(string(models.RoleProfessor), string(models.RoleAdmin), internalmiddleware.SelfGrant), userHandler.Get)
	secured.PATCH("/users/:id", adminOnly, userHandler.Update)
	secured.DELETE("/users/:id", adminOnly, userHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Sugar().Infow("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
	if err := cacheRepo.Close(); err != nil {
		logr.Sugar().Warnw("failed to close redis", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}

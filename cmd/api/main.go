package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/freightdesk-api/api/swagger"
	"github.com/noah-isme/freightdesk-api/internal/handler"
	"github.com/noah-isme/freightdesk-api/internal/migrations"
	"github.com/noah-isme/freightdesk-api/internal/models"
	"github.com/noah-isme/freightdesk-api/internal/repository"
	"github.com/noah-isme/freightdesk-api/internal/router"
	"github.com/noah-isme/freightdesk-api/internal/service"
	"github.com/noah-isme/freightdesk-api/pkg/cache"
	"github.com/noah-isme/freightdesk-api/pkg/config"
	"github.com/noah-isme/freightdesk-api/pkg/database"
	"github.com/noah-isme/freightdesk-api/pkg/export"
	"github.com/noah-isme/freightdesk-api/pkg/jobs"
	"github.com/noah-isme/freightdesk-api/pkg/logger"
	"github.com/noah-isme/freightdesk-api/pkg/mailer"
	"github.com/noah-isme/freightdesk-api/pkg/storage"
)

// @title Freightdesk API
// @version 1.0.0
// @description Quotations, requests for payment and their approval workflow
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		runner, err := migrations.NewRunner(db, logr)
		if err != nil {
			return err
		}
		if err := runner.Run(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if cfg.Bootstrap.AdminEmail != "" {
			if _, err := runner.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName); err != nil {
				return err
			}
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.MasterData.CacheTTL, logr, redisClient != nil)

	queue := jobs.NewQueue("notifications", jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: 256,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()
	metrics.TrackQueueDepth(queue.Len)

	var sender mailer.Sender
	if cfg.Notifications.Enabled {
		sender = mailer.NewSMTPMailer(cfg.Notifications)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	clientRepo := repository.NewClientRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	containerRepo := repository.NewContainerSizeRepository(db)
	truckRepo := repository.NewTruckSizeRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	rfpRepo := repository.NewRFPRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)

	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, auditRepo, validate, logr)

	masterDeps := service.MasterDataDeps{
		Validator: validate,
		Cache:     cacheSvc,
		CacheTTL:  cfg.MasterData.CacheTTL,
		Audit:     auditRepo,
		Logger:    logr,
	}
	clientSvc := service.NewClientService(clientRepo, masterDeps)
	categorySvc := service.NewCategoryService(categoryRepo, masterDeps)
	containerSvc := service.NewContainerSizeService(containerRepo, masterDeps)
	truckSvc := service.NewTruckSizeService(truckRepo, masterDeps)

	pdf := export.NewPDFExporter()
	txDeps := service.TransactionDeps{
		Clients:   clientRepo,
		Validator: validate,
		Cache:     cacheSvc,
		Audit:     auditRepo,
		Renderer:  pdf,
		Logger:    logr,
	}
	quotationSvc := service.NewQuotationService(quotationRepo, txDeps)
	rfpSvc := service.NewRFPService(rfpRepo, txDeps)

	notifier := service.NewNotificationService(queue, sender, userRepo, logr)
	approvalSvc := service.NewApprovalService(service.ApprovalServiceParams{
		Repo:       approvalRepo,
		Quotations: quotationRepo,
		RFPs:       rfpRepo,
		Cache:      cacheSvc,
		Metrics:    metrics,
		Notifier:   notifier,
		Audit:      auditRepo,
		Logger:     logr,
		Config: service.ApprovalConfig{
			ApproverRoles:   approverRoles(cfg.Approvals.ApproverRoles),
			OverrideEnabled: cfg.Approvals.OverrideEnabled,
			StatsCacheTTL:   cfg.Approvals.StatsCacheTTL,
		},
	})

	fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return fmt.Errorf("export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(approvalSvc, fileStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: 24 * time.Hour,
	}, logr, export.NewCSVExporter(), pdf)
	go exportSvc.RunCleanup(ctx, cfg.Exports.CleanupInterval)

	engine := router.New(router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		LoginLimit:     cfg.RateLimit.LoginLimit,
		LoginPeriod:    cfg.RateLimit.LoginPeriod,
		Logger:         logr,
		Tokens:         authSvc,
		Audit:          auditRepo,
		Metrics:        metrics,
	}, router.Handlers{
		Auth:           handler.NewAuthHandler(authSvc, approvalSvc),
		Users:          handler.NewUserHandler(userSvc),
		Clients:        handler.NewClientHandler(clientSvc),
		Categories:     handler.NewCategoryHandler(categorySvc),
		ContainerSizes: handler.NewContainerSizeHandler(containerSvc),
		TruckSizes:     handler.NewTruckSizeHandler(truckSvc),
		Quotations:     handler.NewQuotationHandler(quotationSvc, approvalSvc),
		RFPs:           handler.NewRFPHandler(rfpSvc, approvalSvc),
		Approvals:      handler.NewApprovalHandler(approvalSvc),
		Exports:        handler.NewExportHandler(exportSvc),
		Metrics:        handler.NewMetricsHandler(metrics, db),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func approverRoles(raw []string) []models.UserRole {
	roles := make([]models.UserRole, 0, len(raw))
	for _, r := range raw {
		roles = append(roles, models.UserRole(r))
	}
	return roles
}

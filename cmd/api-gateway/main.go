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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edupath/placement-api/api/swagger"
	"github.com/edupath/placement-api/internal/handler"
	"github.com/edupath/placement-api/internal/middleware"
	"github.com/edupath/placement-api/internal/repository"
	"github.com/edupath/placement-api/internal/service"
	"github.com/edupath/placement-api/pkg/cache"
	"github.com/edupath/placement-api/pkg/clock"
	"github.com/edupath/placement-api/pkg/config"
	"github.com/edupath/placement-api/pkg/database"
	"github.com/edupath/placement-api/pkg/jobs"
	"github.com/edupath/placement-api/pkg/logger"
	corsmiddleware "github.com/edupath/placement-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edupath/placement-api/pkg/middleware/requestid"
)

// @title Placement Agency API
// @version 1.0.0
// @description Workflow engine for study-abroad placement: leads, students, applications, billing and commissions
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
		logr.Sugar().Warnw("redis unavailable, settings cache disabled", "error", err)
		redisClient = nil
	}

	clk := clock.System{}

	leadRepo := repository.NewLeadRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	contractRepo := repository.NewContractRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)

	cacheSvc := service.NewCacheService(redisClient)
	metricsSvc := service.NewMetricsService()

	settingsSvc := service.NewSettingsService(settingsRepo, cacheSvc, cfg.Engine, auditRepo, logr)
	authSvc := service.NewAuthService(staffRepo, cfg.JWT, auditRepo, clk, logr)
	staffSvc := service.NewStaffService(staffRepo, auditRepo, logr)
	leadSvc := service.NewLeadService(leadRepo, notificationRepo, auditRepo, metricsSvc, clk, logr)
	studentSvc := service.NewStudentService(studentRepo, settingsSvc, auditRepo, metricsSvc, clk, logr)
	applicationSvc := service.NewApplicationService(applicationRepo, studentRepo, notificationRepo, auditRepo, metricsSvc, clk, logr)
	commissionSvc := service.NewCommissionService(commissionRepo, auditRepo, metricsSvc, clk, logr)
	billingSvc := service.NewBillingService(invoiceRepo, studentRepo, contractRepo, commissionRepo, settingsSvc, notificationRepo, auditRepo, metricsSvc, clk, logr)
	ledgerSvc := service.NewLedgerService(ledgerRepo, logr)
	contractSvc := service.NewContractService(contractRepo, studentRepo, settingsSvc, auditRepo, clk, logr)
	documentSvc := service.NewDocumentService(documentRepo, studentRepo, notificationRepo, auditRepo, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, clk, logr)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, logr)
	exportSvc := service.NewExportService(ledgerRepo, commissionRepo, studentRepo, staffRepo, logr)
	idleScanSvc := service.NewIdleScanService(leadRepo, applicationRepo, studentRepo, notificationRepo, cfg.IdleScan, clk, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	registry := handler.Registry{
		Auth:          handler.NewAuthHandler(authSvc, staffSvc),
		Lead:          handler.NewLeadHandler(leadSvc),
		Student:       handler.NewStudentHandler(studentSvc),
		Application:   handler.NewApplicationHandler(applicationSvc),
		Billing:       handler.NewBillingHandler(billingSvc, ledgerSvc),
		Commission:    handler.NewCommissionHandler(commissionSvc),
		Document:      handler.NewDocumentHandler(documentSvc),
		Contract:      handler.NewContractHandler(contractSvc),
		Settings:      handler.NewSettingsHandler(settingsSvc),
		Notification:  handler.NewNotificationHandler(notificationSvc),
		Staff:         handler.NewStaffHandler(staffSvc),
		Appointment:   handler.NewAppointmentHandler(appointmentSvc),
		Export:        handler.NewExportHandler(exportSvc),
		Audit:         handler.NewAuditHandler(auditRepo),
		Metrics:       handler.NewMetricsHandler(metricsSvc),
		ExportEnabled: cfg.Exports.Enabled,
	}
	handler.RegisterRoutes(r, cfg.APIPrefix, authSvc, auditRepo, registry)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := jobs.NewScheduler(jobs.SchedulerConfig{Logger: logr})
	if cfg.IdleScan.Enabled {
		scheduler.Register("idle_scan", cfg.IdleScan.Interval, func(ctx context.Context) error {
			alerts, err := idleScanSvc.RunOnce(ctx)
			if err != nil {
				return err
			}
			logr.Sugar().Infow("idle scan complete", "alerts", alerts)
			return nil
		})
		scheduler.Register("contract_expiry", cfg.IdleScan.Interval, func(ctx context.Context) error {
			expired, err := contractSvc.ExpireOverdue(ctx)
			if err != nil {
				return err
			}
			if expired > 0 {
				logr.Sugar().Infow("contracts expired", "count", expired)
			}
			return nil
		})
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

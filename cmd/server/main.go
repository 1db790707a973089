package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/dealdesk/dealdesk/internal/application/service"
	"github.com/dealdesk/dealdesk/internal/config"
	"github.com/dealdesk/dealdesk/internal/infrastructure/notify"
	"github.com/dealdesk/dealdesk/internal/infrastructure/persistence/repository"
	"github.com/dealdesk/dealdesk/internal/infrastructure/persistence/sqlite"
	"github.com/dealdesk/dealdesk/internal/infrastructure/worker"
	httpserver "github.com/dealdesk/dealdesk/internal/interfaces/http"
	"github.com/dealdesk/dealdesk/pkg/database"
	"github.com/dealdesk/dealdesk/pkg/utils"
)

func main() {
	// .env is optional, real deployments configure through the environment
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting DealDesk agreement lifecycle service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	txDB := sqlite.NewDB(db.DB, logger)
	agreementRepo := repository.NewAgreementRepository(db.DB, logger)
	historyRepo := repository.NewStageHistoryRepository(db.DB, logger)
	approvalRepo := repository.NewApprovalRepository(db.DB, logger)
	configRepo := repository.NewApprovalConfigRepository(db.DB, logger)
	slaRepo := repository.NewSLAConfigRepository(db.DB, logger)
	leadRepo := repository.NewLeadRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)
	notificationRepo := repository.NewNotificationRepository(db.DB, logger)
	revisionRepo := repository.NewRevisionRepository(db.DB, logger)

	// Services
	kvLogger := utils.NewKVLogger(logger)
	notifier := notify.NewInAppNotifier(notificationRepo, logger)
	resolver := service.NewApproverResolver(userRepo, kvLogger)
	approvalSvc := service.NewApprovalService(approvalRepo, userRepo, resolver, txDB, kvLogger)
	agreementSvc := service.NewAgreementService(
		agreementRepo, historyRepo, approvalRepo, configRepo, leadRepo,
		approvalSvc, txDB, kvLogger,
	)
	flowSvc := service.NewApprovalConfigService(configRepo, agreementRepo, txDB, kvLogger)
	historySvc := service.NewStageHistoryService(historyRepo, kvLogger)
	leadSvc := service.NewLeadService(leadRepo, userRepo, kvLogger)
	revisionSvc := service.NewRevisionService(revisionRepo, leadRepo, approvalSvc, txDB, kvLogger)
	slaSvc := service.NewSLAService(
		agreementRepo, historyRepo, slaRepo, leadRepo, userRepo,
		agreementSvc, notifier, kvLogger,
	)

	// Background workers
	workerManager := worker.NewWorkerManager(logger)
	workerManager.Register(worker.NewSLAWorker(worker.SLAWorkerConfig{
		ScanInterval: cfg.Scheduler.SLAScanInterval,
		ScanTimeout:  cfg.Scheduler.SLAScanTimeout,
	}, slaSvc, logger))
	workerManager.Register(worker.NewExpiryWorker(worker.ExpiryWorkerConfig{
		CheckInterval: cfg.Scheduler.ExpiryCheckInterval,
		CheckTimeout:  cfg.Scheduler.ExpiryCheckTimeout,
	}, slaSvc, logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	// HTTP server
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, agreementSvc, approvalSvc, flowSvc, historySvc, leadSvc, revisionSvc, kvLogger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	cancel()

	if err := workerManager.StopAll(); err != nil {
		logger.Error("Worker shutdown failed", zap.Error(err))
	}
	if err := server.Stop(); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

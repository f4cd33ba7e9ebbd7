package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/coop-admin/internal/api/http"
	"github.com/spec-kit/coop-admin/internal/api/http/handlers"
	"github.com/spec-kit/coop-admin/internal/audit"
	"github.com/spec-kit/coop-admin/internal/auth"
	"github.com/spec-kit/coop-admin/internal/config"
	"github.com/spec-kit/coop-admin/internal/events"
	"github.com/spec-kit/coop-admin/internal/observability"
	"github.com/spec-kit/coop-admin/internal/persistence"
	"github.com/spec-kit/coop-admin/internal/repository"
	"github.com/spec-kit/coop-admin/internal/service"
	"github.com/spec-kit/coop-admin/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	recordRepo := repository.NewChangeRecordRepository(pool)
	branchRepo := repository.NewBranchRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	voucherRepo := repository.NewVoucherRepository(pool)
	adminRepo := repository.NewAdminUserRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	recorder := audit.NewRecorder(recordRepo, logger, metrics)
	worker.StartAuditRecorder(recorder, dispatcher)

	auditService := service.NewAuditService(service.AuditDependencies{
		RecordRepo: recordRepo,
		Cache:      redis,
		CacheTTL:   cfg.Audit.FeedTotalTTL(),
		Logger:     logger,
	})
	branchService := service.NewBranchService(service.BranchDependencies{
		BranchRepo: branchRepo,
		Dispatcher: dispatcher,
	})
	customerService := service.NewCustomerService(service.CustomerDependencies{
		CustomerRepo: customerRepo,
		BranchRepo:   branchRepo,
		Dispatcher:   dispatcher,
	})
	voucherService := service.NewVoucherService(service.VoucherDependencies{
		VoucherRepo: voucherRepo,
		BranchRepo:  branchRepo,
		Dispatcher:  dispatcher,
	})
	authService := service.NewAuthService(*cfg, adminRepo)

	if err := authService.EnsureBootstrapAdmin(ctx, cfg.Bootstrap); err != nil {
		logger.Fatal("failed to bootstrap admin user", zap.Error(err))
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), adminRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Audit:          handlers.NewAuditHandler(auditService),
		Branches:       handlers.NewBranchesHandler(branchService),
		Customers:      handlers.NewCustomersHandler(customerService),
		Vouchers:       handlers.NewVouchersHandler(voucherService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/converter-service/internal/api/http"
	"github.com/spec-kit/converter-service/internal/api/http/handlers"
	"github.com/spec-kit/converter-service/internal/config"
	"github.com/spec-kit/converter-service/internal/entitlement"
	"github.com/spec-kit/converter-service/internal/events"
	"github.com/spec-kit/converter-service/internal/observability"
	"github.com/spec-kit/converter-service/internal/persistence"
	"github.com/spec-kit/converter-service/internal/provider"
	"github.com/spec-kit/converter-service/internal/repository"
	"github.com/spec-kit/converter-service/internal/service"
	"github.com/spec-kit/converter-service/internal/worker"
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

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	var licenseRepo repository.LicenseRepository
	if pg.Enabled() {
		licenseRepo = repository.NewLicenseRepository(pg.PoolHandle())
	}
	statusCache := repository.NewLicenseStatusCache(redis.Client, cfg.Dodo.StatusCacheTTL())

	tokens := entitlement.NewTokenManager(cfg.Entitlement.SigningSecret, cfg.Entitlement.TokenTTL())
	dodo := provider.NewDodoClient(cfg.Dodo, logger, metrics)

	conversionService := service.NewConversionService(logger, metrics)
	licenseService := service.NewLicenseService(*cfg, service.LicenseDependencies{
		Provider:    dodo,
		Licenses:    licenseRepo,
		StatusCache: statusCache,
		Tokens:      tokens,
		Dispatcher:  dispatcher,
	}, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	reconciliationService := service.NewReconciliationService(dodo, licenseRepo, statusCache, dispatcher, logger)

	worker.StartNotificationWorker(notificationService)
	reconcileCron, err := worker.StartReconciliationWorker(cfg.License.ReconcileCron, reconciliationService, logger)
	if err != nil {
		logger.Fatal("failed to schedule reconciliation", zap.Error(err))
	}

	limiter := httptransport.NewRateLimiter(cfg.RateLimit.LicenseRPS, cfg.RateLimit.LicenseBurst)
	limiter.StartJanitor(ctx, time.Minute, 10*time.Minute)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Convert:     handlers.NewConvertHandler(conversionService),
		License:     handlers.NewLicenseHandler(licenseService),
		Entitlement: handlers.NewEntitlementHandler(),
		Pricing:     handlers.NewPricingHandler(),
		Middleware:  entitlement.NewMiddleware(tokens),
		Limiter:     limiter,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if reconcileCron != nil {
		reconcileCron.Stop()
	}
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

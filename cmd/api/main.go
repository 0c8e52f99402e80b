package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/alert-ticket-service/internal/api/http"
	"github.com/spec-kit/alert-ticket-service/internal/api/http/handlers"
	"github.com/spec-kit/alert-ticket-service/internal/auth"
	"github.com/spec-kit/alert-ticket-service/internal/config"
	"github.com/spec-kit/alert-ticket-service/internal/events"
	"github.com/spec-kit/alert-ticket-service/internal/lifecycle"
	"github.com/spec-kit/alert-ticket-service/internal/observability"
	"github.com/spec-kit/alert-ticket-service/internal/persistence"
	"github.com/spec-kit/alert-ticket-service/internal/repository"
	"github.com/spec-kit/alert-ticket-service/internal/service"
	"github.com/spec-kit/alert-ticket-service/internal/sla"
	"github.com/spec-kit/alert-ticket-service/internal/worker"
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

	var store repository.Store
	if pool := pg.PoolHandle(); pool != nil {
		store = repository.NewPgStore(pool)
	} else {
		logger.Warn("running on in-memory store; tickets will not survive restarts")
		store = repository.NewMemoryStore()
	}

	policy := sla.NewPolicy(cfg.SLA.Thresholds())
	engine := lifecycle.NewEngine(store, policy, lifecycle.SystemClock{})
	dispatcher := events.NewInMemoryDispatcher()

	ticketService := service.NewTicketService(service.TicketDependencies{
		Engine:     engine,
		Store:      store,
		Dispatcher: dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, redis.Client, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	worker.StartSLAWorker(ctx, ticketService, cfg.SLA.SweepInterval(), logger)

	authService := auth.NewService(cfg.Auth)
	authMiddleware := auth.NewMiddleware(authService.TokenManager())

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuthMiddleware: authMiddleware,
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

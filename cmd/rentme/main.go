package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"vehiclerental/internal/app/commands"
	"vehiclerental/internal/app/handlers"
	"vehiclerental/internal/app/middleware"
	"vehiclerental/internal/app/queries"
	bookingsvc "vehiclerental/internal/app/services/booking"
	"vehiclerental/internal/infra/config"
	"vehiclerental/internal/infra/fixtures"
	ginserver "vehiclerental/internal/infra/http/gin"
	"vehiclerental/internal/infra/obs"
	infraoutbox "vehiclerental/internal/infra/outbox"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWithFile(".env")
	if err != nil {
		obs.NewLogger("dev", "info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	deps, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("dependencies init failed", "error", err)
		os.Exit(1)
	}
	defer deps.close(logger)

	fixturesPath := cfg.CatalogFixtures
	if fixturesPath == "" {
		fixturesPath = defaultCatalogFixturesPath()
	}
	if catalog, err := fixtures.LoadFile(ctx, fixturesPath, cfg.Currency, deps.catalog); err != nil {
		logger.Warn("catalog fixtures load failed", "error", err, "path", fixturesPath)
	} else {
		logger.Info("catalog fixtures imported", "types", len(catalog.Types), "vehicles", len(catalog.Vehicles))
	}

	service := &bookingsvc.Service{
		UoW:         deps.uow,
		Locks:       deps.locks,
		MaxAttempts: cfg.BookingMaxAttempts,
		Logger:      logger,
	}

	commandBus := commands.NewInMemoryBus()
	handlers.RegisterCommands(commandBus, service)
	queryBus := queries.NewInMemoryBus()
	handlers.RegisterQueries(queryBus, deps.uow)

	cmds := middleware.ChainCommands(commandBus,
		middleware.Idempotency(deps.idempotency, nil, logger),
		middleware.Validation(middleware.SelfValidator{}),
		middleware.OutboxFlush(deps.outbox),
	)
	qs := middleware.ChainQueries(queryBus, middleware.QueryValidation(middleware.SelfValidator{}))

	if cfg.OutboxEnabled {
		worker := &infraoutbox.Worker{
			Store:       deps.outboxStore,
			Producer:    deps.producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Source:      "vehiclerental/bookings",
			Backoff:     cfg.RetryBackoff,
			Wake:        deps.wake,
			Logger:      logger,
		}
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: deps.ready,
	}, ginserver.Handlers{
		Booking: ginserver.BookingHandler{Commands: cmds, Queries: qs},
		Catalog: ginserver.CatalogHandler{Queries: qs},
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver, "locks", cfg.LockDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

func defaultCatalogFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "catalog.json"),
		filepath.Join("..", "..", "data", "catalog.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}

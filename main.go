package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appcatalog "github.com/Zhima-Mochi/vending-machine/internal/application/catalog"
	appmonitor "github.com/Zhima-Mochi/vending-machine/internal/application/monitor"
	apppurchase "github.com/Zhima-Mochi/vending-machine/internal/application/purchase"
	appsession "github.com/Zhima-Mochi/vending-machine/internal/application/session"
	"github.com/Zhima-Mochi/vending-machine/internal/config"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/id"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/vending-machine/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/seed"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/vending-machine/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/vending-machine/internal/presentation/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	baseLogger := logging.MustNewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		File:    cfg.LogFile,
		Level:   cfg.LogLevel,
	})
	zap.ReplaceGlobals(baseLogger)
	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	logger := zaplogger.Wrap(baseLogger)
	defer func() { _ = zaplogger.Sync(logger) }()

	counters, histograms := infraobs.Instruments(prometrics.New(nil, "", ""))
	tel := infraobs.New(oteltrace.New(cfg.ServiceName), logger, counters, histograms)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inventory, closeInventory, err := openInventory(ctx, cfg, logger)
	if err != nil {
		systemLogger.Fatal("inventory_open_failed", zap.Error(err))
	}
	defer closeInventory()

	sessions := memory.NewSessionRegistry(id.NewTokenGenerator())

	// In-memory event bus carrying purchase events to the stock monitor
	bus := outbox.NewBus(logger, tel)
	bus.Start(ctx)

	monitor := appmonitor.New(workerpresentation.NewSubscriber(bus, logger), tel, appmonitor.Thresholds{
		ProductStock: cfg.LowStockThreshold,
		ChangeStock:  cfg.LowChangeThreshold,
	})
	monitor.Start()

	reaper := appsession.NewReaper(sessions, cfg.SessionTTL, cfg.SessionReapInterval, tel)
	go reaper.Run(ctx)

	handler := httppresentation.NewHandler(httppresentation.UseCases{
		Select:  apppurchase.NewSelectProductUseCase(inventory, sessions, tel),
		Insert:  apppurchase.NewInsertMoneyUseCase(inventory, sessions, tel),
		Confirm: apppurchase.NewConfirmPurchaseUseCase(inventory, sessions, bus, tel),
	}, appcatalog.NewService(inventory, logger), cfg.CORSAllowedOrigins, tel)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		systemLogger.Warn("event_bus_drain_incomplete", zap.Error(err))
	}
}

// openInventory picks Postgres when DATABASE_URL is set and the in-memory store otherwise.
func openInventory(ctx context.Context, cfg config.Config, logger observability.Logger) (appcatalog.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		store := memory.NewInventoryStore()
		if cfg.Seed {
			if err := store.Seed(ctx, seed.Products(), seed.Till()); err != nil {
				return nil, nil, err
			}
		}
		logger.Info("inventory_ready", observability.F("store", "memory"), observability.F("seeded", cfg.Seed))
		return store, func() {}, nil
	}

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	store := postgres.NewInventoryStore(pool)
	seeded := false
	if cfg.Seed {
		if seeded, err = store.Seed(ctx, seed.Products(), seed.Till()); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	logger.Info("inventory_ready", observability.F("store", "postgres"), observability.F("seeded", seeded))
	return store, pool.Close, nil
}

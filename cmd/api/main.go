package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/logitrack/logitrack-backend/api/routes"
	"github.com/logitrack/logitrack-backend/internal/admins"
	"github.com/logitrack/logitrack-backend/internal/attempts"
	"github.com/logitrack/logitrack-backend/internal/bins"
	"github.com/logitrack/logitrack-backend/internal/bulk"
	"github.com/logitrack/logitrack-backend/internal/cod"
	"github.com/logitrack/logitrack-backend/internal/couriers"
	"github.com/logitrack/logitrack-backend/internal/dashboard"
	"github.com/logitrack/logitrack-backend/internal/logistics"
	"github.com/logitrack/logitrack-backend/internal/pickups"
	"github.com/logitrack/logitrack-backend/internal/runsheets"
	"github.com/logitrack/logitrack-backend/internal/shipments"
	"github.com/logitrack/logitrack-backend/pkg/config"
	"github.com/logitrack/logitrack-backend/pkg/db"
	"github.com/logitrack/logitrack-backend/pkg/logger"
	"github.com/logitrack/logitrack-backend/pkg/migrate"
	"github.com/logitrack/logitrack-backend/pkg/outbox"
	"github.com/logitrack/logitrack-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	deps, err := buildDeps(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	closeErr = multierr.Append(closeErr, redisClient.Close())
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if closeErr != nil {
		logg.Error(logCtx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(logCtx, "shutdown complete")
}

func buildDeps(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Deps, error) {
	gdb := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gdb), logg)

	shipmentRepo := shipments.NewRepository(gdb)
	courierRepo := couriers.NewRepository(gdb)
	binRepo := bins.NewRepository(gdb)

	adminsSvc, err := admins.NewService(admins.NewRepository(gdb), cfg.JWT)
	if err != nil {
		return routes.Deps{}, err
	}
	couriersSvc, err := couriers.NewService(courierRepo, dbClient)
	if err != nil {
		return routes.Deps{}, err
	}
	binsSvc, err := bins.NewService(binRepo, dbClient)
	if err != nil {
		return routes.Deps{}, err
	}
	shipmentsSvc, err := shipments.NewService(shipmentRepo, dbClient, outboxSvc)
	if err != nil {
		return routes.Deps{}, err
	}
	logisticsSvc, err := logistics.NewService(shipmentRepo, binRepo, courierRepo, dbClient, outboxSvc)
	if err != nil {
		return routes.Deps{}, err
	}
	runsheetsSvc, err := runsheets.NewService(runsheets.NewRepository(gdb), shipmentRepo, courierRepo, dbClient, outboxSvc)
	if err != nil {
		return routes.Deps{}, err
	}
	attemptsSvc, err := attempts.NewService(attempts.NewRepository(gdb), shipmentRepo, dbClient, outboxSvc)
	if err != nil {
		return routes.Deps{}, err
	}
	codSvc, err := cod.NewService(cod.NewRepository(gdb), dbClient, outboxSvc)
	if err != nil {
		return routes.Deps{}, err
	}
	pickupsSvc, err := pickups.NewService(pickups.NewRepository(gdb), courierRepo, dbClient, outboxSvc)
	if err != nil {
		return routes.Deps{}, err
	}
	dashboardSvc, err := dashboard.NewService(gdb)
	if err != nil {
		return routes.Deps{}, err
	}
	bulkSvc, err := bulk.NewService(shipmentsSvc, zerolog.New(os.Stdout).With().Timestamp().Str("service", "api").Logger())
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Config:           cfg,
		Logger:           logg,
		DB:               dbClient,
		Redis:            redisClient,
		IdempotencyStore: redisClient,
		Admins:           adminsSvc,
		Couriers:         couriersSvc,
		Bins:             binsSvc,
		Shipments:        shipmentsSvc,
		Logistics:        logisticsSvc,
		RunSheets:        runsheetsSvc,
		Attempts:         attemptsSvc,
		COD:              codSvc,
		Pickups:          pickupsSvc,
		Dashboard:        dashboardSvc,
		Bulk:             bulkSvc,
	}, nil
}

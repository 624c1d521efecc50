package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventrea/internal/bus"
	"eventrea/internal/config"
	"eventrea/internal/events"
	"eventrea/internal/http-server/router"
	"eventrea/internal/lib/logger"
	"eventrea/internal/lib/logger/sl"
	"eventrea/internal/storage/mongo"
	"eventrea/internal/storage/postgres"
	"eventrea/internal/storage/sqlite"
)

type store interface {
	events.Store
	Migrate(ctx context.Context) error
	Close() error
}

func main() {
	cfg := config.MustLoad()

	log := logger.Setup(cfg.Env, os.Stdout)

	log.Info("starting events service", slog.String("env", cfg.Env), slog.String("storage", cfg.Storage.Driver))
	log.Debug("debug messages are enabled")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	storage, err := openStore(ctx, &cfg.Storage)
	if err == nil {
		err = storage.Migrate(ctx)
	}
	cancel()
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	services := bus.Services{}
	svc := events.NewService(log, storage, events.WithMaxAttempts(cfg.Slug.MaxAttempts))
	events.Register(services, svc, log)

	log.Info("starting bus server", slog.String("address", cfg.Bus.Address), slog.String("path", cfg.Bus.Path))

	srv := &http.Server{
		Addr:        cfg.Bus.Address,
		Handler:     router.EventsService(log, services, cfg.Bus.Path),
		ReadTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout: cfg.HTTPServer.IdleTimeout,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT, os.Interrupt)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", sl.Err(err))
			stop <- syscall.SIGTERM
		}
	}()

	sign := <-stop

	log.Info("events service stopping", slog.String("signal", sign.String()))

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = srv.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server", sl.Err(err))
	}

	log.Info("events service stopped")

	if err = storage.Close(); err != nil {
		log.Error("failed to close storage", sl.Err(err))
	}

	log.Info("storage closed")
}

func openStore(ctx context.Context, cfg *config.Storage) (store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.InitDB(&cfg.Postgres)
	case config.DriverSQLite:
		return sqlite.InitDB(cfg.SQLite.Path)
	case config.DriverMongo:
		return mongo.InitDB(ctx, &cfg.Mongo)
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

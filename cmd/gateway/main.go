package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventrea/internal/bus"
	"eventrea/internal/config"
	"eventrea/internal/gateway"
	"eventrea/internal/http-server/router"
	"eventrea/internal/lib/logger"
	"eventrea/internal/lib/logger/sl"
	"eventrea/internal/lib/session"
)

func main() {
	cfg := config.MustLoad()

	log := logger.Setup(cfg.Env, os.Stdout)

	log.Info("starting gateway", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	sessions, err := session.New(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		log.Error("failed to init sessions", sl.Err(err))
		os.Exit(1)
	}

	client := bus.NewClient(log, cfg.Bus.URL)

	handler := router.Gateway(log, gateway.New(client, cfg.Bus.RequestTimeout), sessions, cfg.Session.CookieName)

	log.Info("starting server", slog.String("address", cfg.HTTPServer.Address), slog.String("bus", cfg.Bus.URL))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout + cfg.Bus.RequestTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
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

	log.Info("gateway stopping", slog.String("signal", sign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = srv.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server", sl.Err(err))
	}

	if err = client.Close(); err != nil {
		log.Error("failed to close bus client", sl.Err(err))
	}

	log.Info("gateway stopped")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"animehome/backend/internal/database"
	"animehome/backend/pkg/config"
	"animehome/backend/pkg/di"
	"animehome/backend/pkg/logger"
	"animehome/backend/pkg/observability"
	"animehome/backend/pkg/router"
	"animehome/backend/pkg/secrets"

	"go.opentelemetry.io/otel"
)

func main() {
	cfg := config.New()

	// Initialize structured logger
	log := logger.New(logger.ConfigFromEnv(cfg.Logging.Level, cfg.Logging.Format))
	logger.SetGlobal(log)

	log.Info("Starting application", "version", os.Getenv("APP_VERSION"), "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdown, err := observability.SetupTracing(ctx, cfg.Tracing.ServiceName, os.Stdout)
		if err != nil {
			log.LogError(err, "Failed to initialize tracing")
			os.Exit(1)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.LogError(err, "Failed to flush traces")
			}
		}()
	}

	if err := secrets.Init(log, secrets.ConfigFromApp(cfg)); err != nil {
		log.LogError(err, "Failed to initialize secrets manager")
		os.Exit(1)
	}

	// Initialize database
	db, err := config.NewDB(cfg)
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	container, err := di.New(ctx, db, cfg, di.Options{
		Logger: log,
		Tracer: otel.Tracer("animehome/relay"),
	})
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}
	defer container.Close()

	container.Health.Start(ctx, time.Minute)

	r := router.New(container)
	r.SetupRoutes()

	// WriteTimeout stays unset: chat responses stream for as long as the model produces text.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	// In-flight relays finish their save under a detached context; give them the persist window.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout+cfg.Relay.PersistTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	log.Info("Server exited gracefully")
}

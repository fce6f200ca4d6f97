package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wolfman30/careflow/cmd/mainconfig"
	"github.com/wolfman30/careflow/internal/app/bootstrap"
	appconfig "github.com/wolfman30/careflow/internal/config"
	"github.com/wolfman30/careflow/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting careflow API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	handler, cleanup, err := setup(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return
	}
	logger.Info("server stopped")
}

// setup builds the HTTP handler and returns a cleanup func for the
// connections it opened.
func setup(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (http.Handler, func(), error) {
	if cfg.IsProduction() && cfg.AdminJWTSecret == "" {
		return nil, nil, errors.New("ADMIN_JWT_SECRET is required in production")
	}

	stores, err := bootstrap.BuildStores(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, err
	}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	cleanup := func() {
		stores.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	var awsCfg *aws.Config
	if mainconfig.NeedsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		awsCfg = &loaded
	}

	email, err := bootstrap.BuildEmailSender(cfg, awsCfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return bootstrap.NewHandler(bootstrap.Deps{
		Config:   cfg,
		Logger:   logger,
		Stores:   stores,
		Email:    email,
		Uploads:  bootstrap.BuildUploads(cfg, awsCfg, logger),
		Redis:    redisClient,
		Registry: newRegistry(),
	}), cleanup, nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

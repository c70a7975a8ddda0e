package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tkubota31/express-messagely/internal/grpcserver"
	"github.com/tkubota31/express-messagely/internal/repository"
	"github.com/tkubota31/express-messagely/pkg/config"
	"github.com/tkubota31/express-messagely/pkg/di"
	"github.com/tkubota31/express-messagely/pkg/logger"
	"github.com/tkubota31/express-messagely/pkg/observability"
	"github.com/tkubota31/express-messagely/pkg/router"
	"github.com/tkubota31/express-messagely/pkg/secrets"

	"github.com/joho/godotenv"
)

const insecureDefaultSecret = "default-jwt-secret-do-not-use-in-production"

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	if envErr != nil {
		log.Debug("No .env file found")
	}
	log.Info("Starting application", "version", cfg.Server.Version, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Resolve the signing secret from Vault or the environment
	secretManager, err := secrets.NewVaultManager(secrets.VaultConfig{
		Enabled:     cfg.Vault.Enabled,
		Address:     cfg.Vault.Address,
		Token:       cfg.Vault.Token,
		Namespace:   cfg.Vault.Namespace,
		SecretsPath: cfg.Vault.SecretsPath,
		MaxRetries:  3,
	}, log)
	if err != nil {
		log.LogError(err, "Failed to initialize secrets manager")
		os.Exit(1)
	}
	defer secretManager.Close()

	cfg.JWT.Secret = secretManager.GetSecretWithDefault(ctx, "jwt_secret", cfg.JWT.Secret)
	if cfg.IsProduction() && cfg.JWT.Secret == insecureDefaultSecret {
		log.Error("Refusing to start in production with the default JWT secret")
		os.Exit(1)
	}
	if pw, err := secretManager.GetSecret(ctx, "db_password"); err == nil {
		cfg.Database.Password = pw
	}

	shutdownTracing, err := observability.SetupTracing(cfg.Observability.ServiceName, cfg.Observability.TracingEnabled)
	if err != nil {
		log.LogError(err, "Failed to initialize tracing")
		os.Exit(1)
	}
	shutdownMetrics, err := observability.SetupMetrics(cfg.Observability.ServiceName, cfg.Observability.MetricsEnabled)
	if err != nil {
		log.LogError(err, "Failed to initialize metrics")
		os.Exit(1)
	}

	// Initialize database
	db, err := config.NewDB(cfg)
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	if err := repository.AutoMigrate(db); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	container, err := di.New(cfg, db, log)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}
	defer container.Close()
	container.Start(ctx)

	r := router.New(container)
	r.AddOpenAPIValidation(cfg.Observability.OpenAPISchema)
	r.SetupRoutes()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	serveErr := make(chan error, 2)
	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var grpcSrv *grpcserver.Server
	if cfg.GRPC.Enabled {
		grpcSrv = grpcserver.New(container.Health, log)
		go func() {
			if err := grpcSrv.ListenAndServe(cfg.GRPC.Port); err != nil {
				serveErr <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serveErr:
		log.LogError(err, "Server failed")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}
	if grpcSrv != nil {
		grpcSrv.Stop()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.LogError(err, "Failed to flush traces")
	}
	if err := shutdownMetrics(shutdownCtx); err != nil {
		log.LogError(err, "Failed to stop metrics")
	}

	log.Info("Server exited gracefully")
}

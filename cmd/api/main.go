package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/vidrobox-backend/api/routes"
	"github.com/angelmondragon/vidrobox-backend/internal/auth"
	"github.com/angelmondragon/vidrobox-backend/internal/budgets"
	"github.com/angelmondragon/vidrobox-backend/internal/customers"
	"github.com/angelmondragon/vidrobox-backend/internal/notifications"
	"github.com/angelmondragon/vidrobox-backend/internal/orders"
	"github.com/angelmondragon/vidrobox-backend/pkg/auth/session"
	"github.com/angelmondragon/vidrobox-backend/pkg/config"
	"github.com/angelmondragon/vidrobox-backend/pkg/db"
	"github.com/angelmondragon/vidrobox-backend/pkg/email"
	"github.com/angelmondragon/vidrobox-backend/pkg/fetch"
	"github.com/angelmondragon/vidrobox-backend/pkg/instance"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
	"github.com/angelmondragon/vidrobox-backend/pkg/metrics"
	"github.com/angelmondragon/vidrobox-backend/pkg/migrate"
	"github.com/angelmondragon/vidrobox-backend/pkg/pdf"
	"github.com/angelmondragon/vidrobox-backend/pkg/redis"
	"github.com/angelmondragon/vidrobox-backend/pkg/storage"
	"github.com/angelmondragon/vidrobox-backend/pkg/storage/gcs"
	"github.com/angelmondragon/vidrobox-backend/pkg/storage/s3"
)

const shutdownTimeout = 30 * time.Second

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
		Env:         cfg.App.Env,
		Instance:    instance.GetID(),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return fmt.Errorf("create session manager: %w", err)
	}

	uploader, err := newUploader(ctx, cfg, logg)
	if err != nil {
		return err
	}

	var sender email.Sender
	if cfg.Email.Enabled() {
		client, err := email.NewClient(cfg.Email)
		if err != nil {
			return fmt.Errorf("create email client: %w", err)
		}
		sender = client
	} else {
		logg.Warn(ctx, "email api key not set, notifications will be skipped")
	}
	dispatcher, err := notifications.NewDispatcher(sender, notifications.Config{
		CompanyName:   cfg.Budgets.CompanyName,
		PublicBaseURL: cfg.App.PublicBaseURL,
		AdminAddress:  cfg.Email.AdminAddress,
		ReviewURL:     cfg.Email.ReviewURL,
		Location:      cfg.App.Location(),
	}, logg)
	if err != nil {
		return fmt.Errorf("create notification dispatcher: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	authService, err := auth.NewService(auth.ServiceParams{
		AdminRepo:      auth.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return fmt.Errorf("create auth service: %w", err)
	}

	customerService, err := customers.NewService(customers.NewRepository(dbClient.DB()))
	if err != nil {
		return fmt.Errorf("create customers service: %w", err)
	}

	orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, customerService, dispatcher, logg)
	if err != nil {
		return fmt.Errorf("create orders service: %w", err)
	}

	budgetService, err := budgets.NewService(budgets.ServiceParams{
		Repo:      budgets.NewRepository(dbClient.DB()),
		Tx:        dbClient,
		Customers: customerService,
		Orders:    orderService,
		Renderer:  pdf.NewRenderer(cfg.Budgets.CompanyName, cfg.Budgets.QuoteValidityDays, cfg.Budgets.PhotoMaxWidth),
		Uploader:  uploader,
		Fetcher:   fetch.NewClient(cfg.Budgets.AttachmentMaxBytes, cfg.Budgets.AttachmentTimeout),
		Notifier:  dispatcher,
		Metrics:   metrics.NewBudgetMetrics(registry),
		Logger:    logg,
		KeyPrefix: cfg.Storage.KeyPrefix,
	})
	if err != nil {
		return fmt.Errorf("create budgets service: %w", err)
	}

	handler := routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, registry, metrics.NewHTTPMetrics(registry), routes.Services{
		Auth:      authService,
		Orders:    orderService,
		Customers: customerService,
		Budgets:   budgetService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"addr":    addr,
		"storage": cfg.Storage.Provider,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(logCtx, "graceful shutdown failed", err)
	}
	budgetService.Wait()
	logg.Info(logCtx, "api server stopped")
	return nil
}

func newUploader(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Uploader, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Provider)) {
	case "gcs":
		client, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap gcs: %w", err)
		}
		return client, nil
	case "s3":
		client, err := s3.NewClient(ctx, cfg.S3, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap s3: %w", err)
		}
		return client, nil
	}
	return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
}

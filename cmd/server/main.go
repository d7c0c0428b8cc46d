// Package main provides the entry point for the price suggestion API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/machinery-pricer/internal/api"
	"github.com/yourusername/machinery-pricer/internal/cache"
	"github.com/yourusername/machinery-pricer/internal/config"
	"github.com/yourusername/machinery-pricer/internal/database"
	"github.com/yourusername/machinery-pricer/internal/datasource"
	"github.com/yourusername/machinery-pricer/internal/health"
	"github.com/yourusername/machinery-pricer/internal/logger"
	"github.com/yourusername/machinery-pricer/internal/metrics"
	"github.com/yourusername/machinery-pricer/internal/repository"
	"github.com/yourusername/machinery-pricer/internal/scheduler"
	"github.com/yourusername/machinery-pricer/internal/service"
	"github.com/yourusername/machinery-pricer/internal/tracing"
)

// Build information - set via ldflags
var Version = "dev"

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env file: %v", err)
	}

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load AWS secrets if enabled
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(context.Background(), cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
	}).Info("Machinery pricer starting")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, appLog); err != nil {
		appLog.WithError(err).Fatal("Machinery pricer stopped with error")
	}
	appLog.Info("Machinery pricer stopped")
}

func run(ctx context.Context, cfg *config.Config, appLog *logrus.Logger) error {
	metrics.InitRegistry()

	if err := tracing.Initialize(tracing.Config{
		ServiceName:    cfg.App.Name,
		ServiceVersion: Version,
		Enabled:        cfg.Tracing.Enabled,
		DaemonAddr:     cfg.Tracing.DaemonAddr,
	}, appLog); err != nil {
		return err
	}

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	appLog.Info("Database connection established")

	store, err := cache.NewStore(cfg)
	if err != nil {
		return err
	}
	dependencies := map[string]health.Pinger{"database": health.PingerFunc(db.HealthCheck)}
	if redisStore, ok := store.(*cache.RedisStore); ok {
		dependencies["redis"] = redisStore
		defer redisStore.Close()
	}

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to create repositories: %w", err)
	}

	prices := service.NewPriceService(repos.Historical, repos.Live, store, cfg.Estimator, appLog)

	httpCfg := datasource.DefaultHTTPClientConfig()
	if cfg.Import.DownloadRate > 0 {
		httpCfg.RateLimit = cfg.Import.DownloadRate
	}
	httpClient := datasource.NewRateLimitedHTTPClient(httpCfg, appLog)
	defer httpClient.Close()

	factory := datasource.NewFactory(httpClient,
		datasource.SpreadsheetOptions{Sheet: cfg.Import.Sheet, DefaultSource: cfg.Import.DefaultSource},
		int64(cfg.Server.MaxUploadMB)<<20, appLog)
	imports := service.NewImportService(repos.Historical, factory, store, service.ImportServiceConfig{
		BatchSize:     cfg.Import.BatchSize,
		DefaultSource: cfg.Import.DefaultSource,
		InboxDir:      cfg.Import.InboxDir,
	}, appLog)

	var sched *scheduler.Scheduler
	if cfg.Import.InboxDir != "" && cfg.Import.InboxSchedule != "" {
		sched = scheduler.NewScheduler(imports, appLog)
		if err := sched.ScheduleInboxImport(cfg.Import.InboxSchedule); err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
	}

	var healthServer *health.Server
	if cfg.Metrics.Enabled {
		healthServer = health.NewServer(health.Config{
			ServiceName:    cfg.App.Name,
			Version:        Version,
			Port:           strconv.Itoa(cfg.Metrics.Port),
			Logger:         appLog,
			Dependencies:   dependencies,
			MetricsPath:    cfg.Metrics.Path,
			MetricsHandler: metrics.Handler(),
		})
		if err := healthServer.Start(ctx); err != nil {
			return err
		}
	}

	mode := gin.DebugMode
	if cfg.IsProduction() {
		mode = gin.ReleaseMode
	}
	router := api.NewRouter(api.RouterConfig{
		Mode:           mode,
		MaxUploadMB:    cfg.Server.MaxUploadMB,
		RequestTimeout: cfg.RequestTimeout(),
	}, prices, imports, appLog)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      tracing.Handler(cfg.App.Name, router),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.WithField("port", cfg.Server.Port).Info("API server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	if healthServer != nil {
		healthServer.SetReady(true)
	}

	select {
	case <-ctx.Done():
		appLog.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
	}

	if healthServer != nil {
		healthServer.SetReady(false)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			appLog.WithError(err).Warn("Scheduler did not stop cleanly")
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"financas/internal/auth"
	"financas/internal/config"
	"financas/internal/exporter"
	apphttp "financas/internal/http"
	"financas/internal/repository/sqlstore"
	"financas/internal/service"
	"financas/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	configureLogger(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := sqlstore.Migrate(cfg.Database.Driver, cfg.Database.DSN); err != nil {
		logger.Fatalf("migrate database: %v", err)
	}

	userRepo := sqlstore.NewUserRepository(db)
	repos := service.LedgerRepositories{
		Spaces:       sqlstore.NewSpaceRepository(db),
		Categories:   sqlstore.NewCategoryRepository(db),
		Tags:         sqlstore.NewTagRepository(db),
		Reserves:     sqlstore.NewReserveRepository(db),
		Transactions: sqlstore.NewTransactionRepository(db),
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	if err != nil {
		logger.Fatalf("setup tokens: %v", err)
	}

	services := apphttp.Services{
		Users:    service.NewUserService(userRepo, cfg.Auth.RegisterPassword),
		Spaces:   service.NewSpaceService(repos.Spaces, userRepo),
		Ledger:   service.NewLedgerService(repos),
		Sessions: auth.NewSessionResolver(tokens),
		Tokens:   tokens,
	}

	var manager exporter.Manager
	if cfg.Storage.Bucket != "" {
		storageSvc, err := buildStorage(ctx, cfg, logger)
		if err != nil {
			logger.Fatalf("setup storage: %v", err)
		}
		exportService := service.NewExportService(sqlstore.NewExportRepository(db), repos)

		manager = exporter.NewManager(exporter.Config{
			WorkDir:       cfg.Export.DataDir,
			MaxConcurrent: cfg.Export.MaxConcurrent,
			Bucket:        cfg.Storage.Bucket,
			KeyPrefix:     cfg.Storage.KeyPrefix,
			Logger:        logger,
		}, exportService, storageSvc)

		if err := manager.Start(ctx); err != nil {
			logger.Fatalf("start export manager: %v", err)
		}
		if err := manager.Resume(ctx); err != nil {
			logger.Warnf("resume exports: %v", err)
		}

		services.Exports = exportService
		services.ExportManager = manager
		services.Storage = storageSvc
	} else {
		logger.Info("storage bucket not configured, exports disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	handler := apphttp.NewHandler(services, apphttp.Options{
		Bucket:       cfg.Storage.Bucket,
		CookieSecure: cfg.Auth.CookieSecure,
		SignInPath:   cfg.Auth.SignInPath,
	}, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if manager != nil {
		manager.Shutdown()
	}

	logger.Info("bye")
}

func configureLogger(logger *logrus.Logger, cfg config.Config) {
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}

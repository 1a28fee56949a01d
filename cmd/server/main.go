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

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/labstack/echo/v4"
	sloggorm "github.com/orandin/slog-gorm"
	"github.com/sethvargo/go-retry"
	otellib "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormtracing "gorm.io/plugin/opentelemetry/tracing"

	"github.com/openoj/judge-api/cmd/server/internal/jobs"
	servermiddleware "github.com/openoj/judge-api/cmd/server/internal/middleware"
	"github.com/openoj/judge-api/internal/migrations"
	"github.com/openoj/judge-api/cmd/server/internal/routes"
	routesv1 "github.com/openoj/judge-api/cmd/server/internal/routes/v1"
	"github.com/openoj/judge-api/internal/codestore"
	"github.com/openoj/judge-api/internal/config"
	"github.com/openoj/judge-api/internal/logger"
	"github.com/openoj/judge-api/internal/otel"
	"github.com/openoj/judge-api/internal/queue"
)

const name string = "github.com/openoj/judge-api/cmd/server"

var tracer = otellib.Tracer(name)

type server struct {
	router       *echo.Echo
	config       *config.Config
	db           *gorm.DB
	otelShutdown func(context.Context) error
}

func initServer(ctx context.Context) (*server, error) {
	server := new(server)

	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize server config: %w", err)
	}
	server.config = cfg

	shutdownOTel, err := otel.SetupOTelSDK(ctx, cfg.Logging.UseOTLP)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OTEL SDK: %w", err)
	}
	defer func() {
		// Something failed to initialize, make sure everything gets flushed to the server
		if server.otelShutdown == nil {
			otelShutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				time.Second*time.Duration(cfg.GracefulShutdownSecs),
			)
			defer cancel()

			if err = shutdownOTel(otelShutdownCtx); err != nil {
				logger.Logger.Error("failed to flush otel data", "error", err)
			}
		}
	}()

	ctx, span := tracer.Start(ctx, "initServer")
	defer span.End()

	logger.LogLevel.Set(slog.Level(cfg.Logging.App.Level))
	gormLogger := slog.New(logger.Handler)

	sg := sloggorm.New(
		sloggorm.WithHandler(gormLogger.Handler()),
		sloggorm.SetLogLevel(sloggorm.DefaultLogType, slog.Level(cfg.Logging.Gorm.Level)),
	)
	if cfg.Logging.Gorm.TraceQueries {
		sg = sloggorm.New(
			sloggorm.WithHandler(gormLogger.Handler()),
			sloggorm.WithTraceAll(),
			sloggorm.SetLogLevel(sloggorm.DefaultLogType, slog.Level(cfg.Logging.Gorm.Level)),
		)
	}

	span.AddEvent("initialized gorm logging")

	db, err := gorm.Open(
		postgres.Open(cfg.PostgresDSN()),
		&gorm.Config{Logger: sg, TranslateError: true},
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize database")
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to acquire underlying database connection")
		return nil, fmt.Errorf("failed to acquire underlying database connection: %w", err)
	}

	// Configure db connection pool
	sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConnections)
	sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConnections)
	sqlDB.SetConnMaxLifetime(cfg.Postgres.ConnectionTTL)

	span.AddEvent("initialized database connection")

	err = db.Use(gormtracing.NewPlugin())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to add otel plugin to gorm")
		return nil, fmt.Errorf("failed to add otel plugin to gorm: %w", err)
	}

	span.AddEvent("added the otel plugin to gorm")

	err = migrations.Up(ctx, db)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to perform database migrations")
		return nil, fmt.Errorf("failed to perform database migrations: %w", err)
	}

	span.AddEvent("migrated database to latest version")

	store, err := buildCodeStore(ctx, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct code store")
		return nil, fmt.Errorf("failed to construct code store: %w", err)
	}

	span.AddEvent("initialized code store")

	backoff := func() retry.Backoff {
		b := retry.NewFibonacci(time.Millisecond * 25)
		b = retry.WithMaxRetries(3, b)
		return b
	}
	v1Handler := routesv1.NewHandler(
		db,
		cfg,
		codestore.NewRetryStoreBackoff(store, backoff),
	)
	middlewareHandler := servermiddleware.Handler{DB: db}

	e, err := routes.BuildEcho(logger.Logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "error building router")
		return nil, fmt.Errorf("error building router: %w", err)
	}

	span.AddEvent("created echo router")

	v1Handler.AddRoutes(e, &middlewareHandler)

	server.otelShutdown = shutdownOTel
	server.router = e
	server.db = db

	return server, nil
}

func buildCodeStore(ctx context.Context, cfg *config.Config) (codestore.Store, error) {
	switch cfg.CodeStore.Backend {
	case "s3":
		if cfg.S3 == nil {
			return nil, errors.New("s3 code store selected but s3 is not configured")
		}

		return codestore.NewMinioStore(
			cfg.S3.Endpoint,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.SSLEnabled,
			cfg.S3.BucketName,
		)
	case "azure":
		azureCred, err := azblob.NewSharedKeyCredential(
			cfg.Azure.StorageAccount.Name,
			cfg.Azure.StorageAccount.Key,
		)
		if err != nil {
			return nil, err
		}

		azureClient, err := azblob.NewClientWithSharedKeyCredential(
			cfg.Azure.StorageAccount.Containers.URL,
			azureCred,
			nil,
		)
		if err != nil {
			return nil, err
		}

		if cfg.Azure.Dev {
			if err = setupContainers(ctx, azureClient, cfg.Azure.StorageAccount.Containers); err != nil {
				return nil, fmt.Errorf("error setting up containers for dev environment: %w", err)
			}
		}

		return codestore.NewAzureStoreFromClient(
			azureClient,
			cfg.Azure.StorageAccount.Containers.Code,
		), nil
	default:
		return nil, fmt.Errorf("unknown code store backend: %s", cfg.CodeStore.Backend)
	}
}

func (s *server) Start(ctx context.Context) error {
	qr, err := queue.NewAzureQueuer(
		s.config.Azure.StorageAccount.Name,
		s.config.Azure.StorageAccount.Key,
		s.config.Azure.StorageAccount.Queues.URL,
		s.config.Azure.StorageAccount.Queues.Results,
	)
	if err != nil {
		return err
	}

	// TODO: make this shutdown gracefully
	go jobs.MonitorResultsQueue(ctx, s.db, qr)

	logger.Logger.Info("Starting services...")

	err = s.router.Start(s.config.ListenAddress)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *server) Shutdown() error {
	var errs error

	ctx, cancelTimeout := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(s.config.GracefulShutdownSecs),
	)
	defer cancelTimeout()

	if err := s.router.Shutdown(ctx); err != nil {
		errs = errors.Join(errs, err)
	}

	if s.otelShutdown != nil {
		errs = errors.Join(errs, s.otelShutdown(ctx))
	}

	return errs
}

func main() {
	ctx, cancelSignal := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)

	logger.InitSlog()

	server, err := initServer(ctx)
	if err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	errch := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Got shutdown signal!")
		errch <- server.Shutdown()
		close(errch)
	}()

	if err := server.Start(ctx); err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	if err := <-errch; err != nil {
		logger.Logger.Error("Error shutting down server", "error", err)
	}

	cancelSignal()
}

func setupContainers(
	ctx context.Context,
	azureClient *azblob.Client,
	containers *config.AzureStorageAccountContainerConfig,
) error {
	pager := azureClient.NewListContainersPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return err
		}

		for _, c := range page.ContainerItems {
			_, err = azureClient.DeleteContainer(ctx, *c.Name, nil)
			if err != nil {
				return err
			}
		}
	}

	_, err := azureClient.CreateContainer(ctx, containers.Code, nil)
	if err != nil {
		return err
	}

	return nil
}

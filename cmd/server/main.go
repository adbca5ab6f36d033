package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/pertepiece/backend/internal/config"
	"github.com/pertepiece/backend/internal/database"
	"github.com/pertepiece/backend/internal/events"
	"github.com/pertepiece/backend/internal/handlers"
	"github.com/pertepiece/backend/internal/logging"
	"github.com/pertepiece/backend/internal/middleware"
	"github.com/pertepiece/backend/internal/repository"
	"github.com/pertepiece/backend/internal/routes"
	"github.com/pertepiece/backend/internal/services"
	"github.com/pertepiece/backend/internal/storage"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdoutHandler := logging.Setup(cfg.IsDevelopment())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdoutHandler, pgLogHandler)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cleanupDone)

	// Object storage for declaration photos
	objects, err := storage.NewMinioStorage(storage.MinioConfig{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Bucket:    cfg.StorageBucket,
		UseSSL:    cfg.StorageUseSSL,
		PublicURL: cfg.StoragePublicURL,
	})
	if err != nil {
		slog.Error("object storage init failed", "error", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := objects.EnsureBucket(ctx); err != nil {
		slog.Warn("object storage bucket not ready", "bucket", cfg.StorageBucket, "error", err)
	}
	cancel()

	// Event publisher
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		rabbit, err := events.NewRabbitPublisher(cfg.RabbitMQURL)
		if err != nil {
			slog.Warn("rabbitmq unavailable, events disabled", "error", err)
		} else {
			publisher = rabbit
		}
	}

	// Services
	authService := services.NewAuthService(repository.NewAccountRepository(db), cfg, publisher)
	declarationStore := services.NewDeclarationStore(
		repository.NewDeclarationRepository(db), objects, publisher, cfg.StorageBucket,
	)
	mapService := services.NewMapService(services.NewGeocoder())
	reportService := services.NewReportService()

	// Handlers
	h := routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		Declarations: handlers.NewDeclarationHandler(declarationStore),
		Admin:        handlers.NewAdminHandler(declarationStore, mapService, reportService),
		Health:       handlers.NewHealthHandler(func() error { return database.Ping(db) }),
		Legal:        handlers.NewLegalHandler("PertePiece", cfg.SupportEmail),
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    8 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, authService, h)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	publisher.Close()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

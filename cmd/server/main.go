package main

import (
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

	"github.com/ahmetcoskunkizilkaya/course-platform/internal/config"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/database"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/logging"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/oauth"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/routes"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/services"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/store"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdout := logging.Setup(cfg.Env)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err.Error())
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err.Error())
		os.Exit(1)
	}
	if cfg.SeedRoles {
		if err := database.SeedRoles(db, models.RoleUser, models.RoleAdmin); err != nil {
			slog.Error("role seeding failed", "error", err.Error())
			os.Exit(1)
		}
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, pgLogHandler)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cleanupDone)

	// Services
	tokens, err := services.NewTokenService(cfg)
	if err != nil {
		slog.Error("token service setup failed", "error", err.Error())
		os.Exit(1)
	}
	st := store.New(db)
	authService := services.NewAuthService(st, services.NewPasswordHasher(cfg.HashRounds), tokens)
	userService := services.NewUserService(st)

	providers := oauth.FromConfig(cfg)
	slog.Info("login providers configured", "providers", providers.Names())

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, providers, cfg)
	userHandler := handlers.NewUserHandler(userService)
	healthHandler := handlers.NewHealthHandler(db, providers)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Env,
		}); err != nil {
			slog.Error("sentry init failed", "error", err.Error())
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, tokens, authHandler, userHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err.Error())
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err.Error())
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	// The database is about to close; log to stdout only from here on.
	slog.SetDefault(slog.New(stdout))
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err.Error())
	}

	slog.Info("server stopped")
}

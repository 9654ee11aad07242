package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/dashboard"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/modes"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/narration"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/progress"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/records"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/session"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/settings"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// System log handler (ERROR+ async batch)
	dbLogHandler := logging.NewDBHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout),
		dbLogHandler,
	)))

	// Core services
	src := records.NewStore(database.DB)
	policy := progress.Policy{
		WindowDays: cfg.ProgressWindowDays,
		TaskWeight: cfg.ProgressTaskWeight,
		MoodScale:  progress.DefaultPolicy().MoodScale,
	}
	aggregator := progress.NewAggregator(src, policy, cfg.AggregateConcurrency, slog.Default())
	dashboardService := dashboard.NewService(src, aggregator, slog.Default())

	synth := narration.HostSynthesizer(cfg.TTSCommand, slog.Default())
	if synth == nil {
		slog.Info("no speech synthesizer on host, narration disabled", "command", cfg.TTSCommand)
	}
	registry := session.NewRegistry(session.Options{
		KV: func(key string) settings.KV {
			return records.NewSettingsKV(database.DB, key)
		},
		Synth:  synth,
		Router: modes.NewRouter(),
		Narration: narration.Options{
			Rate:  cfg.NarrationRate,
			Pitch: cfg.NarrationPitch,
			Pause: cfg.NarrationPause,
		},
		Logger:      slog.Default(),
		IdleTimeout: cfg.SessionIdleTimeout,
		MaxSessions: cfg.SessionMax,
	})
	sessions := handlers.Sessions{
		Registry: registry,
		Ambient: settings.StaticAmbient{
			HighContrast:  cfg.AmbientHighContrast,
			ReducedMotion: cfg.AmbientReducedMotion,
		},
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
		BodyLimit:    1 * 1024 * 1024,
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
	app.Use(middleware.SecurityHeaders())

	// Routes
	routes.Setup(app, cfg, src, routes.Handlers{
		Health:    handlers.NewHealthHandler(registry),
		Me:        handlers.NewMeHandler(dashboardService, sessions, time.Now),
		Narration: handlers.NewNarrationHandler(sessions),
		Settings:  handlers.NewSettingsHandler(sessions),
		Records:   handlers.NewRecordHandler(dashboardService, sessions, time.Now),
		Care:      handlers.NewCareHandler(dashboardService, time.Now),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
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
	if err := registry.CloseAll(); err != nil {
		slog.Error("session shutdown error", "error", err)
	}

	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
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

	return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: message})
}

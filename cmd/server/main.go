package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sawitsmart/backend/internal/config"
	"github.com/sawitsmart/backend/internal/delivery/http"
	"github.com/sawitsmart/backend/internal/hub"
	"github.com/sawitsmart/backend/internal/log"
	"github.com/sawitsmart/backend/internal/observability"
	"github.com/sawitsmart/backend/internal/repository/postgres"
	"github.com/sawitsmart/backend/internal/sensor"
	"github.com/sawitsmart/backend/internal/service"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	// Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log.Init(cfg.LogLevel, cfg.Env)
	if envErr != nil {
		log.Info("no .env file found, using system environment")
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Database connection
	dataRepo := connectRepository(rootCtx, cfg.DatabaseURL)

	// Metrics
	metrics, err := observability.NewSensorMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	// Live feed
	feed := hub.New("feed")
	feed.OnCount = metrics.SetFeedClients
	go feed.Run(rootCtx)

	// Dependency Injection: Services
	engine, err := sensor.NewEngine(cfg.Sensor, sensor.MultiSink(metrics, service.AlertSink(cfg.RobotID)))
	if err != nil {
		log.Error("invalid sensor configuration", "error", err)
		os.Exit(1)
	}
	plotSvc := service.NewPlotService(service.DefaultSites, nil, metrics)
	robotSvc := service.NewRobotService(cfg.RobotID, cfg.RobotStart, nil)
	scanSvc := service.NewScanService(plotSvc, robotSvc, engine, dataRepo, feed, metrics)
	simulator := service.NewSimulator(plotSvc, robotSvc, scanSvc, dataRepo, feed, cfg.RobotTick, cfg.TelemetryTick)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "SawITSmart API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	http.SetupRoutes(app, http.Deps{
		Plots:   plotSvc,
		Robot:   robotSvc,
		Scans:   scanSvc,
		Repo:    dataRepo,
		Feed:    feed,
		Palette: http.DefaultPalette,
	}, metrics.Handler())

	simDone := make(chan struct{})
	go func() {
		defer close(simDone)
		simulator.Run(rootCtx)
	}()

	// Graceful shutdown
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	stop()
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Warn("server forced to shutdown", "error", err)
	}
	// Run must return before the waits below so no tick adds to them.
	<-simDone
	simulator.WaitBackground()
	scanSvc.WaitBackground()
	log.Info("server exited gracefully")
}

// connectRepository falls back to the in-memory repository when PostgreSQL
// is not configured or unreachable.
func connectRepository(ctx context.Context, databaseURL string) service.DataRepository {
	if databaseURL == "" {
		log.Warn("DATABASE_URL not set, running with in-memory storage")
		return postgres.NewMockRepository()
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connCtx, databaseURL)
	if err != nil {
		log.Warn("could not connect to database, running with in-memory storage", "error", err)
		return postgres.NewMockRepository()
	}

	repo := postgres.NewPostgresRepository(pool)
	if err := repo.Health(connCtx); err != nil {
		log.Warn("database unreachable, running with in-memory storage", "error", err)
		pool.Close()
		return postgres.NewMockRepository()
	}
	if err := repo.EnsureSchema(connCtx); err != nil {
		log.Warn("failed to apply schema, running with in-memory storage", "error", err)
		pool.Close()
		return postgres.NewMockRepository()
	}

	log.Info("connected to PostgreSQL")
	return repo
}

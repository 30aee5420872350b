package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dentiq/therawizard/internal/config"
	"github.com/dentiq/therawizard/internal/domain/condition"
	"github.com/dentiq/therawizard/internal/domain/lookup"
	"github.com/dentiq/therawizard/internal/domain/transfer"
	"github.com/dentiq/therawizard/internal/domain/wizard"
	"github.com/dentiq/therawizard/internal/platform/cache"
	"github.com/dentiq/therawizard/internal/platform/db"
	"github.com/dentiq/therawizard/internal/platform/middleware"
	"github.com/dentiq/therawizard/internal/platform/telemetry"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "therawizard-server",
		Short: "Therapeutic Wizard knowledge-base API server",
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// connect opens the pool. A missing URL is tolerated: the server starts with
// no pool and every store-backed endpoint fails until it is configured.
func connect(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	if cfg.DatabaseURL == "" {
		logger.Warn().Msg("DATABASE_URL not set; starting without a store connection")
		return nil
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	return pool
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Database
	ctx := context.Background()
	pool := connect(ctx, cfg, logger)
	if pool != nil {
		defer pool.Close()
		logger.Info().Msg("connected to database")
	}

	// Metrics
	metrics := telemetry.New("therawizard")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))
	if cfg.MetricsEnabled {
		e.Use(metrics.Middleware())
		e.GET("/metrics", metrics.Handler())
	}

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Domain wiring
	lookupRepo := lookup.NewRepoPG(pool)
	conditionRepo := condition.NewRepoPG(pool)
	slot := cache.NewSlot[[]condition.Condition](cfg.CacheTTL())

	conditionSvc := condition.NewService(conditionRepo, lookupRepo, slot, metrics, logger)
	transferSvc := transfer.NewService(transfer.NewRepoPG(pool), slot, logger)
	wizardSvc := wizard.NewService(conditionSvc)

	apiV1 := e.Group("/api/v1")
	lookup.NewHandler(lookupRepo, lookup.NewSyncer(lookupRepo, logger)).RegisterRoutes(apiV1)
	condition.NewHandler(conditionSvc).RegisterRoutes(apiV1)
	wizard.NewHandler(wizardSvc).RegisterRoutes(apiV1)
	transfer.NewHandler(transferSvc).RegisterRoutes(apiV1)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	return nil
}

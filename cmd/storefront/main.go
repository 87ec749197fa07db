package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/productapi"
	"storefront/internal/promo"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/view"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

const sessionSweepInterval = 10 * time.Minute

func main() {
	app := &cli.App{
		Name:  "storefront",
		Usage: "server-rendered storefront over the product service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply or roll back the database schema",
				Subcommands: []*cli.Command{
					{Name: "up", Usage: "apply all pending migrations", Action: migrateUp},
					{Name: "down", Usage: "roll back all migrations", Action: migrateDown},
				},
			},
			{
				Name:   "ping",
				Usage:  "check the database connection",
				Action: ping,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, config.NewLogger(cfg.Logger), nil
}

func migrateUp(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	return database.MigrateUp(cfg.Database.ConnectionString(), logger)
}

func migrateDown(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	return database.MigrateDown(cfg.Database.ConnectionString(), logger)
}

func ping(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, 10*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	var version string
	if err := pool.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query server version: %w", err)
	}
	fmt.Println(version)
	return nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	logger.Info().Msg("starting storefront")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	if err := database.MigrateUp(cfg.Database.ConnectionString(), logger); err != nil {
		return err
	}

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(pool, logger)
	var cartRepo repository.CartRepository
	if cfg.Cart.Persist {
		cartRepo = repository.NewCartRepository(pool, logger)
		logger.Info().Msg("cart persistence enabled")
	}

	catalog := productapi.NewClient(cfg.ProductAPI.BaseURL, cfg.ProductAPI.Timeout, logger)

	// Promo lists come from S3 when enabled, with the local directory as fallback
	var primary promo.Source
	if cfg.S3.Enabled {
		s3Source, err := promo.NewS3Source(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 source, falling back to local file system only")
		} else {
			primary = s3Source
		}
	} else {
		logger.Info().Msg("using local file system for promo files (S3 disabled)")
	}
	source := promo.NewFallbackSource(primary, promo.FileSource{Dir: cfg.Promo.Dir}, cfg.S3.Prefix, logger)

	validator, err := promo.Load(ctx, source, cfg.Promo.Files, cfg.Promo.MinMatch, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize promo validator: %w", err)
	}

	// Initialize services
	orderService := service.NewOrderService(orderRepo, catalog, validator, logger)

	sessions := session.NewManager(session.Deps{
		Catalog:     catalog,
		Orders:      orderService,
		Carts:       cartRepo,
		CookieName:  cfg.Auth.SessionCookie,
		IdleTimeout: cfg.Auth.SessionIdleTimeout,
	}, logger)

	go sessions.Run(ctx, sessionSweepInterval)

	renderer, err := view.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	// Initialize pages and router
	pages := handler.NewPages(catalog, orderService, logger)
	layout := handler.NewLayout(sessions, renderer, logger)
	mux := router.New(pages, layout, sessions, router.Config{AdminKey: cfg.Auth.AdminKey}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

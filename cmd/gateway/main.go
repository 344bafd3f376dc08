// DeliWer Commerce Gateway - local commerce session layer for the
// trade-in storefront. Holds the cart, mirrors it to the platform in the
// background, and hands off to hosted checkout.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deliwer-commerce/internal/auth"
	"deliwer-commerce/internal/availability"
	"deliwer-commerce/internal/cart"
	"deliwer-commerce/internal/checkout"
	"deliwer-commerce/internal/clientinfo"
	"deliwer-commerce/internal/config"
	"deliwer-commerce/internal/handler"
	"deliwer-commerce/internal/middleware"
	"deliwer-commerce/internal/model"
	"deliwer-commerce/internal/shopify"
	"deliwer-commerce/internal/storage"
	cartsync "deliwer-commerce/internal/sync"
)

const availabilityTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("store_url", cfg.Store.StoreURL),
		slog.String("data_dir", cfg.DataDir),
	)

	// Platform client
	platformClient, err := shopify.New(shopify.Config{
		StoreURL:        cfg.Store.StoreURL,
		StorefrontToken: cfg.Store.StorefrontToken,
	})
	if err != nil {
		return fmt.Errorf("creating platform client: %w", err)
	}

	// Local persistence and session services
	records, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening data directory: %w", err)
	}

	store := cart.New(records, logger)
	authSvc := auth.New(platformClient, records, logger)

	agent := cartsync.New(store, platformClient, authSvc, logger, cartsync.Options{
		Debounce: cfg.SyncDebounce,
	})
	defer agent.Close()

	checker := availability.New(store, platformClient, logger, availabilityTimeout)

	initiator := checkout.New(store, platformClient, logger, checkout.Config{
		FallbackURL:     cfg.Store.FallbackProductURL,
		SourceTag:       cfg.Store.TradeInSourceTag,
		ExtraAttributes: attributesFromConfig(cfg.Store.CheckoutAttributes),
	})

	// Create handler and routes
	h := handler.New(store, agent, checker, initiator, authSvc, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → request id → logging → client gate
	// Recovery must be outermost to catch panics from the inner layers
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
		clientinfo.Middleware(cfg.MinClientVersion, logger),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Push any pending cart state before going down
		agent.Flush()

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// attributesFromConfig converts the configured checkout attribute map to
// ordered wire attributes.
func attributesFromConfig(m map[string]string) []model.Attribute {
	if len(m) == 0 {
		return nil
	}
	attrs := make([]model.Attribute, 0, len(m))
	for k, v := range m {
		attrs = append(attrs, model.Attribute{Key: k, Value: v})
	}
	return attrs
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

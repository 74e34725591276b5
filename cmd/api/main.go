package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clarityos-backend/infrastructure/config"
	"clarityos-backend/infrastructure/di"
	"clarityos-backend/interfaces/http/rest"
	"clarityos-backend/interfaces/http/rest/handlers"
	"clarityos-backend/interfaces/http/rest/middleware"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize dependency container
	container, err := di.InitializeContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer container.Close()

	// Create handlers
	discoveryHandler := handlers.NewDiscoveryHandler(container.Engine, container.TurnLimiter, container.Logger)
	statementHandler := handlers.NewStatementHandler(container.Engine, container.Catalog, container.Logger)
	migrationHandler := handlers.NewMigrationHandler(container.Migration, container.Logger)

	// Create router
	router := rest.NewRouter(
		discoveryHandler,
		statementHandler,
		migrationHandler,
		middleware.ScopeConfig{
			JWTSecret: cfg.SupabaseJWTSecret,
			Issuer:    cfg.JWTIssuer,
		},
		container.Registry,
		container.LocalStore.Ping,
		cfg.EnableCORS,
		container.Logger,
	)

	// Setup routes
	handler := router.Setup()

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		container.Logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	container.Logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Server shutdown error", zap.Error(err))
	}

	// Clean up resources
	if err := container.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}

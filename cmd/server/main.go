package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"annotator-readmill/internal/config"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// Wiring
	container, err := config.NewContainer(config.NewConfig())
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}

	if err := container.Start(context.Background()); err != nil {
		container.Logger.Error("Failed to start sync", err)
		os.Exit(1)
	}

	// start server
	server := &http.Server{
		Addr:    ":" + container.Config.GetServerPort(),
		Handler: container.Router(),
	}

	// Run server
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()
	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		container.Logger.Warn("Server shutdown incomplete", "error", err)
	}
	if err := container.Close(); err != nil {
		container.Logger.Warn("Failed to release resources", "error", err)
	}

	container.Logger.Info("Server exited")
}

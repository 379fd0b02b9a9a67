// Command devapi runs the in-memory Smile & Gift development backend.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smilegift/internal/config"
	"smilegift/internal/devapi"
	"smilegift/internal/observability"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.ConfigureLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	repo := devapi.NewMemoryRepository()
	if cfg.DevAPISeedUsers > 0 {
		res, err := devapi.Seed(context.Background(), repo, devapi.SeedOptions{Users: cfg.DevAPISeedUsers})
		if err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		observability.GlobalLogger.Info("seeded development data",
			"users", len(res.Users), "posts", res.Posts, "gifts", res.Gifts,
			"password", devapi.SeedPassword)
		for _, u := range res.Users {
			observability.GlobalLogger.Info("seeded account", "email", u.Email, "username", u.Username)
		}
	}

	srv := devapi.NewServer(devapi.Config{JWTSecret: cfg.DevAPIJWTSecret}, repo)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Dev API starting on port %s...", cfg.DevAPIPort)
	if err := srv.Start(":" + cfg.DevAPIPort); err != nil {
		log.Fatal(err)
	}
}

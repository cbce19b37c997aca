package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kosaka-studio/mediarepo/internal/app"
	"github.com/kosaka-studio/mediarepo/internal/shared/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	log.Println("🚀 Starting mediarepo")
	log.Printf("📍 Environment: %s", cfg.Environment)

	log.Println("📦 Initializing database connection and applying migrations...")
	catalog, err := app.New(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to wire catalog module: %v", err)
	}
	log.Println("✅ Catalog module wired and ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-quit
	log.Println("🛑 Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("🔒 Closing catalog module...")
	if err := catalog.Close(); err != nil {
		log.Printf("❌ Error closing catalog module: %v", err)
	}

	<-ctx.Done()
	log.Println("✅ Server stopped gracefully")
}

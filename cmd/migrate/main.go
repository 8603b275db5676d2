package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/Rrens/kb-assistant/internal/config"
	"github.com/Rrens/kb-assistant/internal/repository"
)

// migrate applies the leave store schema for the configured driver. Mongo
// only gets its indexes.
func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Migrating %s leave store...\n", cfg.LeaveStore.Driver)

	cfg.LeaveStore.AutoMigrateOnStart = true
	store, err := repository.OpenLeaveStore(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	fmt.Println("Leave store schema is up to date")
}

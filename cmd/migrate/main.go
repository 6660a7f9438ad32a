package main

import (
	"context"
	"log"
	"os"

	"github.com/safar/go-storefront/internal/config"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/migrations"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down]")
	}
	direction := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	applied, err := database.RunMigrations(ctx, db, migrations.FS, direction)
	for _, name := range applied {
		log.Printf("Applied %s", name)
	}
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Printf("Migrations %s completed (%d files)", direction, len(applied))
}

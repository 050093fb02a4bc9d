package main

import (
	"log"

	"github.com/razour08/tgbot-verify/internal/config"
	"github.com/razour08/tgbot-verify/internal/database"
)

// Standalone schema migration runner, for deploys where the API process
// should not touch the schema itself.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations applied successfully")
}

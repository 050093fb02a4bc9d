package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// One-off maintenance tool: removes redemption codes that can never be
// redeemed again (expired or fully used) together with their redemption
// records. Runs against the live database, so it talks plain SQL instead
// of going through the API process.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	fmt.Println("Connected to database")

	// Step 1: Delete redemption records of dead codes
	result, err := db.Exec(`
		DELETE FROM redemption_records
		WHERE code_id IN (
			SELECT id FROM redemption_codes
			WHERE (expires_at IS NOT NULL AND expires_at < NOW())
			   OR current_uses >= max_uses
		)
	`)
	if err != nil {
		log.Fatal("Failed to delete redemption records:", err)
	}
	records, _ := result.RowsAffected()

	// Step 2: Delete the dead codes themselves
	result, err = db.Exec(`
		DELETE FROM redemption_codes
		WHERE (expires_at IS NOT NULL AND expires_at < NOW())
		   OR current_uses >= max_uses
	`)
	if err != nil {
		log.Fatal("Failed to delete codes:", err)
	}
	codes, _ := result.RowsAffected()

	fmt.Printf("Removed %d dead codes and %d redemption records\n", codes, records)
}

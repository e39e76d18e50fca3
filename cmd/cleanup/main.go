package main

import (
	"log"
	"os"
	"time"

	"github.com/yourusername/learndocs-api/internal/config"
	pgRepo "github.com/yourusername/learndocs-api/internal/repository/postgres"
	"github.com/yourusername/learndocs-api/pkg/database"
)

// Sweeps rows the API only cleans up opportunistically: verification
// codes past their TTL and reset tokens past their expiry. Meant to be
// run from cron.
func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	codeRepo := pgRepo.NewVerificationCodeRepo(db)
	codeTTL := 5 * time.Minute
	if err := codeRepo.DeleteExpired(time.Now().Add(-codeTTL)); err != nil {
		log.Fatalf("Failed to delete expired verification codes: %v", err)
	}
	log.Println("Expired verification codes removed")

	result := db.Exec(
		`UPDATE users SET reset_password_token = '', reset_password_expires = NULL
		 WHERE reset_password_token <> '' AND reset_password_expires < ?`, time.Now())
	if result.Error != nil {
		log.Fatalf("Failed to clear expired reset tokens: %v", result.Error)
	}
	log.Printf("Cleared %d expired reset tokens", result.RowsAffected)
}

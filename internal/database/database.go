package database

import (
	"fmt"
	"log"
	"os"
	"strings"

	"social-pulse/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the shared connection handle. Connect must run before anything
// touches it.
var DB *gorm.DB

// dsnFromEnv assembles the PostgreSQL DSN from DB_* environment variables.
// Password is omitted entirely when unset so local trust auth keeps working.
func dsnFromEnv() string {
	parts := []string{
		"host=" + envOr("DB_HOST", "localhost"),
		"port=" + envOr("DB_PORT", "5432"),
		"user=" + envOr("DB_USER", "postgres"),
	}
	if pw := os.Getenv("DB_PASSWORD"); pw != "" {
		parts = append(parts, "password="+pw)
	}
	parts = append(parts,
		"dbname="+envOr("DB_NAME", "social_pulse"),
		"sslmode="+envOr("DB_SSLMODE", "disable"),
	)
	return strings.Join(parts, " ")
}

// Connect opens the PostgreSQL connection described by the environment and
// stores it in DB.
func Connect() error {
	db, err := gorm.Open(postgres.Open(dsnFromEnv()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = db
	log.Println("Successfully connected to database")
	return nil
}

// Migrate applies the schema for every registered model.
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database connection not established")
	}

	if err := models.AutoMigrate(DB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// Close releases the underlying connection pool.
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

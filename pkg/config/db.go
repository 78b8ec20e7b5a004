package config

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB creates a new database connection using configuration settings
func NewDB(cfg *Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	// Configure GORM
	gormConfig := &gorm.Config{TranslateError: true}

	// Set logging level based on application environment
	if cfg.Server.Env == "development" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	} else {
		gormConfig.Logger = logger.Default.LogMode(logger.Error)
	}

	// Add retry mechanism
	var db *gorm.DB
	retries := 5
	delay := 5 * time.Second

	for i := 0; i < retries; i++ {
		db, err = gorm.Open(dialector, gormConfig)
		if err == nil {
			break
		}

		fmt.Printf("Failed to connect to database. Retrying in %v...\n", delay)
		time.Sleep(delay)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d retries: %w", retries, err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	if cfg.Database.Driver == "sqlite" {
		// sqlite serialises writers; one connection avoids SQLITE_BUSY under concurrent relays
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	return db, nil
}

// Dialector picks the gorm driver for the configured database.
func Dialector(cfg *Config) (gorm.Dialector, error) {
	switch cfg.Database.Driver {
	case "postgres", "":
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Name,
			cfg.Database.SSLMode,
		)
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.Database.Path + "?_foreign_keys=on"), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// TestConnection checks if the database connection is working
func TestConnection(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

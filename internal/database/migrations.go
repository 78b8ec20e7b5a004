package database

import (
	"log/slog"

	"animehome/backend/internal/models"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

const conversationIndex = "CREATE INDEX IF NOT EXISTS idx_messages_character_created ON messages (character_id, created_at)"

// GetMigrator returns the schema migrator for the character and message tables.
func GetMigrator(db *gorm.DB) *gormigrate.Gormigrate {
	migrator := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "0",
			Migrate: func(txn *gorm.DB) error {
				return txn.AutoMigrate(&models.Character{}, &models.Message{})
			},
		},
		{
			// Conversation listing filters by character and sorts by creation time.
			ID: "1",
			Migrate: func(txn *gorm.DB) error {
				return txn.Exec(conversationIndex).Error
			},
			Rollback: func(txn *gorm.DB) error {
				return txn.Exec("DROP INDEX IF EXISTS idx_messages_character_created").Error
			},
		},
	})

	migrator.InitSchema(func(txn *gorm.DB) error {
		// Runs on a clean database instead of replaying every migration.
		slog.Info("clean database detected, running full schema initialization")

		dbType := txn.Dialector.Name()
		if dbType == "sqlite" || dbType == "sqlite3" {
			if err := txn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
				slog.Error("error enabling foreign keys for SQLite", "error", err)
			}
		}

		if err := txn.AutoMigrate(&models.Character{}, &models.Message{}); err != nil {
			return err
		}
		return txn.Exec(conversationIndex).Error
	})

	return migrator
}

// Migrate brings the schema up to date.
func Migrate(db *gorm.DB) error {
	return GetMigrator(db).Migrate()
}

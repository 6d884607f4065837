package database

import (
	"log"
	"log/slog"

	"medai-backend/internal/database/versions/migration_0"
	"medai-backend/internal/database/versions/migration_1"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func GetMigrator(db *gorm.DB) *gormigrate.Gormigrate {
	migrator := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID:      "0",
			Migrate: migration_0.Migration,
		},
		{
			ID:       "1",
			Migrate:  migration_1.Migration,
			Rollback: migration_1.Rollback,
		},
	})

	migrator.InitSchema(func(txn *gorm.DB) error {
		// Run by the migrator when no previous migration is detected. Creates the
		// latest schema directly and seeds it, instead of replaying every migration.

		log.Println("clean database detected, running full schema initialization")

		dbType := txn.Dialector.Name()
		if dbType == "sqlite" || dbType == "sqlite3" {
			// Sqlite does not enable foreign key constraints by default.
			if err := txn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
				slog.Error("error enabling foreign keys for SQLite", "error", err)
			}
		}

		if err := txn.AutoMigrate(
			&Model{}, &ModelMetric{}, &ConfusionCell{}, &FederatedRound{}, &Hospital{}, &DeploymentProfile{},
		); err != nil {
			return err
		}

		return migration_1.Migration(txn)
	})

	return migrator
}

package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const InMemory = "file::memory:"

// Open connects to a postgres url (postgres:// or postgresql://) or a sqlite
// path, then runs the migrations. The in-memory sqlite default is pinned to a
// single connection so every query sees the same database.
func Open(databaseURL string) (*gorm.DB, error) {
	if databaseURL == "" {
		databaseURL = InMemory
	}

	var dialector gorm.Dialector
	isPostgres := strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://")
	if isPostgres {
		dialector = postgres.Open(databaseURL)
	} else {
		dialector = sqlite.Open(databaseURL)
	}

	log.Println("Connecting to database...")
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	if !isPostgres && strings.Contains(databaseURL, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("unable to access sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := GetMigrator(db).Migrate(); err != nil {
		return nil, fmt.Errorf("unable to migrate database: %w", err)
	}

	log.Println("Database ready.")
	return db, nil
}

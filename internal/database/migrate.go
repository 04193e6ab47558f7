package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// SchemaVersion is the version of the newest file under schema/.
const SchemaVersion = 1

//go:embed schema/*.sql
var schemaFiles embed.FS

// migrateSchema brings the table layout up to SchemaVersion. Data migrations
// live in the migration package; this only owns DDL.
func migrateSchema(db *sql.DB) error {
	src, err := iofs.New(schemaFiles, "schema")
	if err != nil {
		return fmt.Errorf("loading schema files: %w", err)
	}
	defer src.Close()

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("creating schema driver: %w", err)
	}

	// m.Close is not called: it would close db through the driver.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("creating schema migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating schema: %w", err)
	}

	return nil
}

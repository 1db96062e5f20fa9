package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var schemaFiles embed.FS

// RunMigrations applies every pending schema change in migrations/ to the
// ledger database at dbPath. A database that is already current is left
// as it is.
func RunMigrations(dbPath string) error {
	// migrate closes the handle it is given, so the repository's own
	// pool is never passed in here.
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open ledger schema connection: %w", err)
	}
	defer conn.Close()

	target, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("bind schema target: %w", err)
	}
	changes, err := iofs.New(schemaFiles, "migrations")
	if err != nil {
		return fmt.Errorf("read embedded schema changes: %w", err)
	}

	runner, err := migrate.NewWithInstance("iofs", changes, "sqlite", target)
	if err != nil {
		return fmt.Errorf("prepare schema runner: %w", err)
	}
	defer runner.Close()

	switch err := runner.Up(); {
	case err == nil, errors.Is(err, migrate.ErrNoChange):
		return nil
	default:
		return fmt.Errorf("apply schema changes: %w", err)
	}
}

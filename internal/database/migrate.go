// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var embedMigrations embed.FS

// dialect returns the goose dialect and migration directory for a driver.
func dialect(driver string) (string, string, error) {
	switch driver {
	case "", DriverSQLite:
		return "sqlite3", "migrations/sqlite", nil
	case DriverPostgres:
		return "postgres", "migrations/postgres", nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func setup(driver string) (string, error) {
	name, dir, err := dialect(driver)
	if err != nil {
		return "", err
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(name); err != nil {
		return "", err
	}
	return dir, nil
}

// RunMigrations runs all pending goose migrations.
func RunMigrations(db *sql.DB, driver string) error {
	dir, err := setup(driver)
	if err != nil {
		return err
	}
	return goose.Up(db, dir)
}

// MigrateDown rolls back the last migration.
func MigrateDown(db *sql.DB, driver string) error {
	dir, err := setup(driver)
	if err != nil {
		return err
	}
	return goose.Down(db, dir)
}

// MigrateReset rolls back all migrations.
func MigrateReset(db *sql.DB, driver string) error {
	dir, err := setup(driver)
	if err != nil {
		return err
	}
	return goose.Reset(db, dir)
}

// MigrationVersion returns the currently applied migration version.
func MigrationVersion(db *sql.DB, driver string) (int64, error) {
	if _, err := setup(driver); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db)
}

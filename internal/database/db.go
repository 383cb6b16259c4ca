// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver registered as "pgx"
	"github.com/vinovest/sqlx"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// Supported values for the database driver setting.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open creates a new SQLite connection with optimized settings and applies migrations.
func Open(dsn string) (*sqlx.DB, error) {
	return OpenDriver(DriverSQLite, dsn)
}

// OpenDriver opens a connection for the given driver and applies pending migrations.
func OpenDriver(driver, dsn string) (*sqlx.DB, error) {
	conn, err := Connect(driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(conn.DB, driver); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

// Connect opens a connection without touching the schema.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case "", DriverSQLite:
		return openSQLite(dsn)
	case DriverPostgres:
		return openPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func openSQLite(dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		dsn = "./data/app.db"
	}

	inMemory := isInMemory(dsn)

	// Create directory for file-based databases
	if !inMemory {
		dir := filepath.Dir(strings.TrimPrefix(dsn, "file:"))
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}

	dsn = addDefaultParams(dsn)

	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Every connection to :memory: is a separate database.
	if inMemory {
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(5)
	}
	conn.SetConnMaxLifetime(time.Hour)

	if err := configureSQLite(context.Background(), conn, inMemory); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

func openPostgres(dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres driver requires a DSN")
	}

	conn, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(20)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

func isInMemory(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// addDefaultParams adds recommended SQLite parameters if not already present.
func addDefaultParams(dsn string) string {
	defaults := []struct{ key, param string }{
		{"_txlock", "_txlock=immediate"},
		{"_time_format", "_time_format=sqlite"},
		{"busy_timeout", "_pragma=busy_timeout(5000)"},
		{"foreign_keys", "_pragma=foreign_keys(1)"},
	}

	for _, d := range defaults {
		if !strings.Contains(dsn, d.key) {
			separator := "?"
			if strings.Contains(dsn, "?") {
				separator = "&"
			}
			dsn += separator + d.param
		}
	}

	return dsn
}

// configureSQLite sets PRAGMAs for optimal performance.
func configureSQLite(ctx context.Context, db *sqlx.DB, inMemory bool) error {
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA cache_size = 2000",
	}
	if !inMemory {
		pragmas = append(pragmas,
			"PRAGMA journal_mode = WAL",
			"PRAGMA mmap_size = 134217728",
			"PRAGMA journal_size_limit = 27103364",
		)
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return err
		}
	}

	return nil
}

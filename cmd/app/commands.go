// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/oliverandrich/bitsybay/internal/config"
	"codeberg.org/oliverandrich/bitsybay/internal/database"
	"codeberg.org/oliverandrich/bitsybay/internal/repository"
	"codeberg.org/oliverandrich/bitsybay/internal/server"
	"codeberg.org/oliverandrich/bitsybay/internal/services/attempts"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// withDB runs fn with a migrated database connection.
func withDB(cmd *cli.Command, fn func(cfg *config.Config, db *sqlx.DB) error) error {
	cfg := config.NewFromCLI(cmd)
	server.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	db, err := database.OpenDriver(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	return fn(cfg, db)
}

// withConn is withDB without applying migrations.
func withConn(cmd *cli.Command, fn func(cfg *config.Config, db *sqlx.DB) error) error {
	cfg := config.NewFromCLI(cmd)
	server.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	db, err := database.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	return fn(cfg, db)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return withConn(cmd, func(cfg *config.Config, db *sqlx.DB) error {
						return database.RunMigrations(db.DB, cfg.Database.Driver)
					})
				},
			},
			{
				Name:  "down",
				Usage: "Roll back the last migration",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return withConn(cmd, func(cfg *config.Config, db *sqlx.DB) error {
						return database.MigrateDown(db.DB, cfg.Database.Driver)
					})
				},
			},
			{
				Name:  "reset",
				Usage: "Roll back all migrations",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return withConn(cmd, func(cfg *config.Config, db *sqlx.DB) error {
						return database.MigrateReset(db.DB, cfg.Database.Driver)
					})
				},
			},
			{
				Name:  "status",
				Usage: "Print the applied schema version",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return withConn(cmd, func(cfg *config.Config, db *sqlx.DB) error {
						v, err := database.MigrationVersion(db.DB, cfg.Database.Driver)
						if err != nil {
							return err
						}
						_, err = fmt.Fprintf(cmd.Root().Writer, "schema version %d\n", v)
						return err
					})
				},
			},
		},
	}
}

func accountsCommand() *cli.Command {
	return &cli.Command{
		Name:  "accounts",
		Usage: "Administer accounts",
		Commands: []*cli.Command{
			{
				Name:  "grant-quota",
				Usage: "Add a quota bonus to an account",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "account", Usage: "Account ID", Required: true},
					&cli.Int64Flag{Name: "mb", Usage: "Bonus in MB (default: quota-bonus-mb)"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withDB(cmd, func(cfg *config.Config, db *sqlx.DB) error {
						accounts, err := server.NewAccountService(&cfg.Accounts, repository.New(db), nil)
						if err != nil {
							return err
						}

						id, bonus := cmd.Int64("account"), cmd.Int64("mb")
						if bonus == 0 {
							bonus = int64(cfg.Accounts.QuotaBonusMB)
						}

						n, err := accounts.GrantQuotaBonus(ctx, id, bonus)
						if err != nil {
							return err
						}
						if n == 0 {
							return fmt.Errorf("account %d: %w", id, repository.ErrNotFound)
						}
						_, err = fmt.Fprintf(cmd.Root().Writer, "granted %d MB to account %d\n", bonus, id)
						return err
					})
				},
			},
			{
				Name:  "stats",
				Usage: "Print account totals",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withDB(cmd, func(cfg *config.Config, db *sqlx.DB) error {
						accounts, err := server.NewAccountService(&cfg.Accounts, repository.New(db), nil)
						if err != nil {
							return err
						}
						stats, err := accounts.Stats(ctx)
						if err != nil {
							return err
						}
						_, err = fmt.Fprintf(cmd.Root().Writer, "users %d\nsellers %d\n", stats.Users, stats.Sellers)
						return err
					})
				},
			},
		},
	}
}

func attemptsCommand() *cli.Command {
	return &cli.Command{
		Name:  "attempts",
		Usage: "Maintain the login attempt ledger",
		Commands: []*cli.Command{
			{
				Name:  "prune",
				Usage: "Delete the attempts of a login and every attempt older than --days",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "login", Usage: "Login identifier", Required: true},
					&cli.IntFlag{Name: "days", Usage: "Maximum age in days (default: attempt-retention-days)"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withDB(cmd, func(cfg *config.Config, db *sqlx.DB) error {
						days := int(cmd.Int("days"))
						if days == 0 {
							days = cfg.Accounts.AttemptRetentionDays
						}
						if days < 0 {
							return errors.New("--days must not be negative")
						}

						n, err := attempts.NewLedger(repository.New(db)).Prune(ctx, cmd.String("login"), days)
						if err != nil {
							return err
						}
						_, err = fmt.Fprintf(cmd.Root().Writer, "pruned %d attempts\n", n)
						return err
					})
				},
			},
		},
	}
}

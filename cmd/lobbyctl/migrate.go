package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/ezhulati/texaslobbyorg-sub001/migrations"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

func newMigrateCmd(e *env) *cobra.Command {
	c := cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect schema migrations",
	}
	c.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrations(e, cmd, func(db *sql.DB) error {
					return goose.UpContext(cmd.Context(), db, ".")
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrations(e, cmd, func(db *sql.DB) error {
					return goose.DownContext(cmd.Context(), db, ".")
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show which migrations have been applied",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrations(e, cmd, func(db *sql.DB) error {
					return goose.StatusContext(cmd.Context(), db, ".")
				})
			},
		},
	)
	return &c
}

// withMigrations opens a database/sql handle for goose, which does not
// speak pgx pools, and points it at the embedded migration files.
func withMigrations(e *env, cmd *cobra.Command, fn func(*sql.DB) error) error {
	cfg, err := e.config()
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(log.New(cmd.OutOrStdout(), "", 0))
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return fn(db)
}

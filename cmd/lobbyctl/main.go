// Command lobbyctl runs maintenance tasks against the directory database:
// migrations, suspension sweeps, watchlist emails, slug backfills and the
// first admin account.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/config"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/database"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd(&env{})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env holds what the subcommands share. Connections are opened on first use
// so that --help and argument errors never touch the database.
type env struct {
	logger *slog.Logger
	cfg    *config.Config
	db     *database.DB
}

func (e *env) config() (*config.Config, error) {
	if e.cfg != nil {
		return e.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	e.cfg = cfg
	return cfg, nil
}

func (e *env) database() (*database.DB, error) {
	if e.db != nil {
		return e.db, nil
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	db, err := database.NewConnection(&cfg.Database, e.logger)
	if err != nil {
		return nil, err
	}
	e.db = db
	return db, nil
}

func (e *env) close() {
	if e.db != nil {
		e.db.Close()
		e.db = nil
	}
}

func NewRootCmd(e *env) *cobra.Command {
	var (
		logLevel = "info"
		debug    bool
	)
	c := cobra.Command{
		Use:           "lobbyctl",
		Short:         "Maintenance tasks for the TexasLobby.org directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var lvl slog.Level
			if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
				return err
			}
			if debug {
				lvl = slog.LevelDebug
			}
			e.logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			e.close()
		},
	}
	c.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "log level (debug, info, warn, error)")
	c.PersistentFlags().BoolVar(&debug, "debug", debug, "shorthand for --log-level=debug")
	c.AddCommand(
		newMigrateCmd(e),
		newSuspensionsCmd(e),
		newBillsCmd(e),
		newLobbyistsCmd(e),
		newAdminCmd(e),
	)
	return &c
}

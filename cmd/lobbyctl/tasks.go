package main

import (
	"fmt"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/auth"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/background"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/repositories"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/services"
	"github.com/spf13/cobra"
)

func newSuspensionsCmd(e *env) *cobra.Command {
	c := cobra.Command{
		Use:   "suspensions",
		Short: "Manage account suspensions",
	}
	c.AddCommand(&cobra.Command{
		Use:   "expire",
		Short: "Lift suspensions whose expiry has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := e.database()
			if err != nil {
				return err
			}
			m := background.NewSuspensionExpiryManager(repositories.NewSuspensionRepository(db), e.logger, time.Hour)
			released := m.RunOnce(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "released %d user(s)\n", released)
			return nil
		},
	})
	return &c
}

func newBillsCmd(e *env) *cobra.Command {
	var since time.Duration
	c := cobra.Command{
		Use:   "bills",
		Short: "Bill watchlist tasks",
	}
	notify := cobra.Command{
		Use:   "notify-watchers",
		Short: "Email watchers about bills that changed since they were last told",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := e.database()
			if err != nil {
				return err
			}
			cfg, err := e.config()
			if err != nil {
				return err
			}
			emailService, err := services.NewEmailService(cmd.Context(), cfg.Email, e.logger)
			if err != nil {
				return err
			}

			svc := services.NewBillService(repositories.NewBillRepository(db), emailService, e.logger)
			res, err := svc.NotifyWatchers(cmd.Context(), time.Now().Add(-since))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d, failed %d\n", res.Sent, res.Failed)
			return nil
		},
	}
	notify.Flags().DurationVar(&since, "since", 7*24*time.Hour, "only consider bills updated within this window")
	c.AddCommand(&notify)
	return &c
}

func newLobbyistsCmd(e *env) *cobra.Command {
	c := cobra.Command{
		Use:   "lobbyists",
		Short: "Profile maintenance",
	}
	c.AddCommand(&cobra.Command{
		Use:   "backfill-slugs",
		Short: "Assign URL slugs to profiles that have none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := e.database()
			if err != nil {
				return err
			}
			res, err := services.BackfillSlugs(cmd.Context(), repositories.NewLobbyistRepository(db), e.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d, skipped %d\n", res.Updated, res.Skipped)
			return nil
		},
	})
	return &c
}

func newAdminCmd(e *env) *cobra.Command {
	var email, password string
	c := cobra.Command{
		Use:   "admin",
		Short: "Admin account tasks",
	}
	bootstrap := cobra.Command{
		Use:   "bootstrap",
		Short: "Create the first admin account",
		Long:  "Create the first admin account. Credentials default to ADMIN_EMAIL and ADMIN_PASSWORD.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := e.config()
			if err != nil {
				return err
			}
			if email == "" {
				email = cfg.Auth.AdminEmail
			}
			if password == "" {
				password = cfg.Auth.AdminPassword
			}

			db, err := e.database()
			if err != nil {
				return err
			}
			users := repositories.NewUserRepository(db)
			tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry, cfg.Auth.RefreshTokenExpiry, users)

			created, err := services.NewAuthService(users, tokens, e.logger).EnsureAdmin(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s\n", email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", email)
			}
			return nil
		},
	}
	bootstrap.Flags().StringVar(&email, "email", "", "admin email")
	bootstrap.Flags().StringVar(&password, "password", "", "admin password")
	c.AddCommand(&bootstrap)
	return &c
}

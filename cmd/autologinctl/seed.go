package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const (
	seedEmail          = "seed@test.local"
	defaultSeedTimeout = 30 * time.Second
)

// usersTable mirrors the columns UserRepository reads. Only for local
// databases that have no host users table yet.
const usersTable = `
CREATE TABLE IF NOT EXISTS users (
    id         UUID        PRIMARY KEY DEFAULT gen_random_uuid(),
    email      TEXT        NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a local test user and print a login link for it",
		Long: `Installs the endpoint, upserts ` + seedEmail + ` into the users table
and prints a login link for it. Idempotent; refuses to run outside ENV=local.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runSeed(ctx, cmd)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(ctx context.Context, cmd *cobra.Command) error {
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.cfg.Env != "local" {
		return fmt.Errorf("seed only runs with ENV=local, got %q", e.cfg.Env)
	}

	if _, _, err := e.install.Install(ctx); err != nil {
		return err
	}

	if _, err := e.pool.Exec(ctx, usersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	var userID string
	err = e.pool.QueryRow(ctx, `
		INSERT INTO users (email)
		VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
		RETURNING id::text`,
		seedEmail,
	).Scan(&userID)
	if err != nil {
		return fmt.Errorf("upsert seed user: %w", err)
	}
	cmd.Printf("Seed user: %s (%s)\n", seedEmail, userID)

	links, closeStore, err := e.links(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	link, err := links.Issue(ctx, userID, "/", 0)
	if err != nil {
		return err
	}
	cmd.Printf("Login link: %s\n", link)
	return nil
}

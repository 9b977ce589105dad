package main

import (
	"time"

	"github.com/spf13/cobra"
)

type issueConfig struct {
	userID   string
	redirect string
	ttl      time.Duration
	send     bool
}

// NewIssueCmd creates the issue subcommand.
func NewIssueCmd() *cobra.Command {
	cfg := &issueConfig{}

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a login link for a user",
		Long: `Prints the login link for --user and --redirect, creating it if needed.
Issuing again for the same pair returns the same link and extends its expiry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIssue(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.userID, "user", "", "user id the link logs in as")
	cmd.Flags().StringVar(&cfg.redirect, "redirect", "/", "path to land on after login")
	cmd.Flags().DurationVar(&cfg.ttl, "ttl", 0, "link lifetime (default LINK_TTL)")
	cmd.Flags().BoolVar(&cfg.send, "email", false, "also email the link to the user")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runIssue(cmd *cobra.Command, cfg *issueConfig) error {
	ctx := cmd.Context()

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	links, closeStore, err := e.links(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	issue := links.Issue
	if cfg.send {
		issue = links.Send
	}
	link, err := issue(ctx, cfg.userID, cfg.redirect, cfg.ttl)
	if err != nil {
		return err
	}

	cmd.Println(link)
	return nil
}

package main

import (
	"errors"

	"github.com/lewebsimple/autologin/internal/domain"
	"github.com/spf13/cobra"
)

// NewInstallCmd creates the install subcommand.
func NewInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Generate the deployment endpoint if none exists",
		Long: `Creates the option store table and generates a random endpoint.
Running it again keeps the existing endpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			settings, created, err := e.install.Install(cmd.Context())
			if err != nil {
				return err
			}
			if created {
				cmd.Printf("Installed endpoint %s\n", settings.Endpoint)
			} else {
				cmd.Printf("Already installed, endpoint %s\n", settings.Endpoint)
			}
			return nil
		},
	}
}

// NewUninstallCmd creates the uninstall subcommand.
func NewUninstallCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Delete the deployment endpoint",
		Long: `Deletes the stored endpoint. Every outstanding login link stops
working, and the next install generates a new endpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to uninstall without --yes")
			}

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.install.Uninstall(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Uninstalled")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm that outstanding links will be invalidated")

	return cmd
}

// NewEndpointCmd creates the endpoint subcommand.
func NewEndpointCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "endpoint",
		Short: "Print the deployment endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			settings, err := e.install.Settings(cmd.Context())
			if errors.Is(err, domain.ErrNotInstalled) {
				return errors.New("not installed, run autologinctl install")
			}
			if err != nil {
				return err
			}
			cmd.Println(settings.Endpoint)
			return nil
		},
	}
}

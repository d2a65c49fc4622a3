package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/AtRiskMedia/cmi-charts/internal/application/startup"
	"github.com/AtRiskMedia/cmi-charts/pkg/config"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cmi-charts",
		Short:         "Forecast chart dashboard and model run converter",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newAddUserCommand())

	return rootCmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard and the background conversion jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return startup.Initialize(cfg)
}

func newAddUserCommand() *cobra.Command {
	var mail, password string

	cmd := &cobra.Command{
		Use:   "add-user",
		Short: "Register a user allowed to see private forecasts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mail == "" || password == "" {
				return errors.New("both --mail and --password are required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return startup.AddUser(cfg, mail, password)
		},
	}

	cmd.Flags().StringVarP(&mail, "mail", "m", "", "User mail address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "User password")
	return cmd
}

package main

import (
	"os"

	"tourbook_backend/internal/app"

	"github.com/spf13/cobra"
)

// NewRootCmd - без подкоманды запускает сервер, как serve
func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "tourbook",
		Short: "Tourbook API server",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if configPath != "" {
				return os.Setenv("CONFIG_PATH", configPath)
			}
			return nil
		},
		RunE: runServe,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (overrides CONFIG_PATH)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(*cobra.Command, []string) error {
			return app.Migrate()
		},
	}
}

func runServe(*cobra.Command, []string) error {
	app.Run()
	return nil
}

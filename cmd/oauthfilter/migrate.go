package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rhuss/oauthfilter/pkg/config"
	"github.com/rhuss/oauthfilter/pkg/storage/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply PostgreSQL schema migrations",
	Long: `Apply PostgreSQL schema migrations.

Reads the DSN from storage.postgres.dsn (or dsn_file, or
OAUTHFILTER_POSTGRES_DSN) and applies all pending migrations. Running it
again is a no-op.

Example:
  OAUTHFILTER_STORAGE=postgres OAUTHFILTER_POSTGRES_DSN=postgres://... oauthfilter migrate`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if cfg.Storage.Type != "postgres" {
			return fmt.Errorf("migrate requires storage.type \"postgres\", got %q", cfg.Storage.Type)
		}

		store, err := postgres.New(cmd.Context(), postgres.Config{
			DSN:      cfg.Storage.Postgres.DSN,
			MaxConns: cfg.Storage.Postgres.MaxConns,
		})
		if err != nil {
			return err
		}
		defer store.Close()

		applied, err := store.Migrate(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", applied)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mall-parking/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the PostgreSQL schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cfg.StoreDriver != config.StorePostgres {
			return errors.New("migrate needs store_driver=postgres")
		}

		store, err := openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

package cmds

import (
	"github.com/spf13/cobra"

	"github.com/openoj/judge-api/internal/migrations"
	"github.com/openoj/judge-api/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Bring the schema to the latest version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, _, err := openDB()
		if err != nil {
			return err
		}

		if err := migrations.Up(cmd.Context(), db); err != nil {
			return err
		}

		logger.Logger.Info("migrated up")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Tear the schema all the way down",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, _, err := openDB()
		if err != nil {
			return err
		}

		if err := migrations.Down(cmd.Context(), db); err != nil {
			return err
		}

		logger.Logger.Info("migrated down")
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}

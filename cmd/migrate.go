package cmd

import (
	"fmt"
	"lingo_edu_backend/pkg/database"
	"lingo_edu_backend/pkg/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the database schema, seed the level ladder and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger.InitLogger(cfg)
		defer logger.Sync()

		db, err := database.InitDB(&cfg.Database)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Log.Info("Database migration finished, exiting")
		return nil
	},
}

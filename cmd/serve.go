package cmd

import (
	"lingo_edu_backend/internal/app"
	"lingo_edu_backend/pkg/logger"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		migrate, _ := cmd.Flags().GetBool("migrate")
		return runServe(cmd, migrate)
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "Run database migrations on startup even in release mode")
}

func runServe(cmd *cobra.Command, migrate bool) error {
	cfg, dir, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.ForceMigrate = migrate

	application, err := app.NewApp(cfg, dir)
	if err != nil {
		return err
	}
	defer logger.Sync()

	return application.Run(cmd.Context())
}

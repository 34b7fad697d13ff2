package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradepost/web/internal/config"
	"github.com/tradepost/web/internal/db"
	"github.com/tradepost/web/internal/logger"
)

// NewMigrateCommand creates the `migrate` command, which applies pending
// migrations and exits.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _ := config.Load()
			log := logger.New(cfg.LogLevel, cfg.LogFormat)

			version, err := db.Migrate(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("database migration failed: %w", err)
			}
			log.Info().Uint("version", version).Msg("database is up to date")
			return nil
		},
	}
}

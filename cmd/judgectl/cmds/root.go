package cmds

import (
	"context"
	"fmt"
	"log/slog"

	sloggorm "github.com/orandin/slog-gorm"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/openoj/judge-api/internal/config"
	"github.com/openoj/judge-api/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "judgectl",
	Short: "Admin tooling for the judge API",
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openDB connects using the same config the server reads.
func openDB() (*gorm.DB, *config.Config, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	gormLogger := slog.New(logger.Handler)
	sg := sloggorm.New(
		sloggorm.WithHandler(gormLogger.Handler()),
		sloggorm.SetLogLevel(sloggorm.DefaultLogType, slog.Level(cfg.Logging.Gorm.Level)),
	)

	db, err := gorm.Open(
		postgres.Open(cfg.PostgresDSN()),
		&gorm.Config{Logger: sg, TranslateError: true},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, cfg, nil
}

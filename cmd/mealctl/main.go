// Command mealctl scrapes recipes into a running API and imports supplier price lists.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"mealminder/internal/config"
	"mealminder/internal/db"
	applog "mealminder/internal/log"
)

var (
	loadConfigFunc   = config.Load
	openDatabaseFunc = func(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
		database, err := db.Configure(cfg)
		if err != nil {
			return nil, err
		}
		return database.WithContext(ctx), nil
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		applog.Error(ctx, "mealctl failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "mealctl",
		Short:         "Command-line companion for the mealminder API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applog.SetLevel(logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newScrapeCmd(), newImportPricesCmd())
	return root
}

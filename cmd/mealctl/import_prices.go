package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mealminder/internal/catalog"
	applog "mealminder/internal/log"
	"mealminder/internal/pricelist"
)

func newImportPricesCmd() *cobra.Command {
	var supplierID uint

	cmd := &cobra.Command{
		Use:   "import-prices <file>",
		Short: "Upsert a supplier's products from a CSV or PDF price list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if supplierID == 0 {
				return errors.New("--supplier must be a positive id")
			}
			ctx := cmd.Context()
			path := args[0]

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read price list: %w", err)
			}
			entries, err := pricelist.Parse(path, data)
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}

			cfg, err := loadConfigFunc()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			database, err := openDatabaseFunc(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}

			result, err := catalog.Import(ctx, database, supplierID, entries)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			applog.Info(ctx, "price list imported",
				"supplier", supplierID,
				"created", result.Created,
				"updated", result.Updated,
				"unchanged", result.Unchanged,
			)

			fmt.Fprintf(cmd.OutOrStdout(), "created %d, updated %d, unchanged %d\n",
				result.Created, result.Updated, result.Unchanged)
			return nil
		},
	}

	cmd.Flags().UintVar(&supplierID, "supplier", 0, "id of the supplier the price list belongs to")
	return cmd
}

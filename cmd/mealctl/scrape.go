package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mealminder/internal/client"
	applog "mealminder/internal/log"
	"mealminder/internal/scraper"
)

func newScrapeCmd() *cobra.Command {
	var (
		apiURL  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scrape <url>",
		Short: "Extract the recipe on a web page and save it through the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			draft, err := scraper.NewFetcher(timeout).Fetch(ctx, args[0])
			if err != nil {
				return fmt.Errorf("scrape %s: %w", args[0], err)
			}
			applog.Debug(ctx, "recipe extracted", "name", draft.Name, "ingredients", len(draft.Ingredients))

			api := client.NewClient(client.Config{BaseURL: apiURL, Timeout: timeout})
			saved, err := api.CreateRecipe(ctx, draft)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "saved recipe #%d %q\n", saved.ID, saved.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api", "http://localhost:8080", "base URL of the mealminder API")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "timeout for each HTTP request")
	return cmd
}

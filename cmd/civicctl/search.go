package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	civicdex "github.com/kailas-cloud/civicdex/pkg/sdk"
)

var (
	searchLimit    int
	searchCategory string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search civic documents",
	Long: `Loads live documents and ranks them by keyword overlap with the query.
Title matches weigh most, then category, authority and content.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchCategory, "category", "c", "", "only documents in this category")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	return withLoadedClient(cmd, func(ctx context.Context, c civicClient) error {
		results, err := c.Search(ctx, civicdex.Query{Text: args[0], Category: searchCategory, Limit: searchLimit})
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if jsonOutput {
			return outputJSON(cmd, results)
		}
		outputResults(cmd, results)
		return nil
	})
}

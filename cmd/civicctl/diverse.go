package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	civicdex "github.com/kailas-cloud/civicdex/pkg/sdk"
)

var diverseTarget int

var diverseCmd = &cobra.Command{
	Use:   "diverse category=query...",
	Short: "Select top documents per category",
	Long: `Runs one search per category=query pair and keeps the best documents
of each category, in the order the categories were given.

  civicctl diverse "construction=new building" "business=restaurant license"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDiverse,
}

func init() {
	diverseCmd.Flags().IntVarP(&diverseTarget, "per-category", "k", 5, "documents kept per category")
	rootCmd.AddCommand(diverseCmd)
}

func parsePairs(args []string) ([]civicdex.Pair, error) {
	pairs := make([]civicdex.Pair, 0, len(args))
	for _, a := range args {
		cat, text, ok := strings.Cut(a, "=")
		if !ok || strings.TrimSpace(cat) == "" {
			return nil, fmt.Errorf("invalid pair %q: want category=query", a)
		}
		pairs = append(pairs, civicdex.Pair{Text: text, Category: cat})
	}
	return pairs, nil
}

func runDiverse(cmd *cobra.Command, args []string) error {
	pairs, err := parsePairs(args)
	if err != nil {
		return err
	}
	return withLoadedClient(cmd, func(ctx context.Context, c civicClient) error {
		results, err := c.SelectDiverse(ctx, pairs, diverseTarget)
		if err != nil {
			return fmt.Errorf("diverse selection failed: %w", err)
		}
		if jsonOutput {
			return outputJSON(cmd, results)
		}
		outputResults(cmd, results)
		return nil
	})
}

package main

import (
	"context"
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize loaded documents",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured upstream sources",
	Args:  cobra.NoArgs,
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(statsCmd, sourcesCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	return withLoadedClient(cmd, func(_ context.Context, c civicClient) error {
		st := c.Stats()
		if jsonOutput {
			return outputJSON(cmd, st)
		}
		cmd.Printf("%s %d\n", boldCyan("Documents:"), st.Total)
		if st.Earliest != nil && st.Latest != nil {
			cmd.Printf("%s %s .. %s\n", boldCyan("Dates:"),
				st.Earliest.Format("2006-01-02"), st.Latest.Format("2006-01-02"))
		}
		printCounts(cmd, "By category:", st.ByCategory)
		printCounts(cmd, "By source:", st.BySource)
		printCounts(cmd, "By type:", st.ByType)
		return nil
	})
}

func printCounts(cmd *cobra.Command, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	cmd.Println(boldCyan(title))
	for _, k := range slices.Sorted(maps.Keys(counts)) {
		cmd.Printf("  %-32s %d\n", k, counts[k])
	}
}

func runSources(cmd *cobra.Command, _ []string) error {
	c, err := newClient(cmd.Context())
	if err != nil {
		return err
	}
	defer c.Close()

	sources := c.Sources()
	if jsonOutput {
		return outputJSON(cmd, sources)
	}
	for _, s := range sources {
		cmd.Printf("  %-48s %s\n", boldCyan(s.Name), faint(s.Endpoint))
	}
	return nil
}

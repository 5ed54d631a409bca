package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	civicdex "github.com/kailas-cloud/civicdex/pkg/sdk"
)

var (
	boldCyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
	boldGreen = color.New(color.FgGreen, color.Bold).SprintFunc()
	faint     = color.New(color.Faint).SprintFunc()
)

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputResults(cmd *cobra.Command, results []civicdex.SearchResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}
	for i := range results {
		d := &results[i].Document
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, boldCyan(d.Title), results[i].Score)
		cmd.Printf("      %s · %s · %s\n", d.Category, d.DocumentType, d.Authority)
		if d.EffectiveDate != nil {
			cmd.Printf("      %s\n", faint(d.EffectiveDate.Format("2006-01-02")))
		}
		if len(results[i].MatchedTerms) > 0 {
			cmd.Printf("      matched: %s\n", strings.Join(results[i].MatchedTerms, ", "))
		}
		if d.URL != "" {
			cmd.Printf("      %s\n", faint(d.URL))
		}
		cmd.Println()
	}
}

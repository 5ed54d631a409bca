package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	civicdex "github.com/kailas-cloud/civicdex/pkg/sdk"
)

var (
	askNoContext bool
	askMaxDocs   int
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from civic documents",
	Long: `Finds the documents closest to the question and answers with a
template picked by the kind of question (process, requirements, timing,
location, cost).`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askNoContext, "no-context", false, "answer without searching documents")
	askCmd.Flags().IntVar(&askMaxDocs, "max-docs", 3, "documents consulted for the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	return withLoadedClient(cmd, func(ctx context.Context, c civicClient) error {
		ans, err := c.Ask(ctx, args[0], civicdex.AskOptions{WithoutContext: askNoContext, MaxContextDocs: askMaxDocs})
		if err != nil {
			return fmt.Errorf("ask failed: %w", err)
		}
		if jsonOutput {
			return outputJSON(cmd, ans)
		}
		cmd.Println(boldGreen("Answer:"))
		cmd.Println(ans.Text)
		cmd.Println()
		cmd.Printf("%s intent=%s confidence=%.2f searched=%d\n",
			faint("·"), ans.Intent, ans.Confidence, ans.TotalDocumentsSearched)
		if len(ans.Sources) > 0 {
			cmd.Println()
			cmd.Println(boldGreen("Sources:"))
			outputResults(cmd, ans.Sources)
		}
		return nil
	})
}

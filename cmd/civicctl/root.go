package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	civicdex "github.com/kailas-cloud/civicdex/pkg/sdk"
)

// civicClient is the slice of the SDK the commands use.
type civicClient interface {
	Load(ctx context.Context) (civicdex.IngestReport, error)
	Search(ctx context.Context, q civicdex.Query) ([]civicdex.SearchResult, error)
	SelectDiverse(ctx context.Context, pairs []civicdex.Pair, perCategoryTarget int) ([]civicdex.SearchResult, error)
	Ask(ctx context.Context, question string, opts civicdex.AskOptions) (civicdex.Answer, error)
	Stats() civicdex.Stats
	Sources() []civicdex.SourceInfo
	Close()
}

var (
	jsonOutput     bool
	verbose        bool
	appToken       string
	datasets       []string
	noOpenData     bool
	noClerk        bool
	limitPerSource int
	timeout        time.Duration
)

// newClient is replaced in tests.
var newClient = func(ctx context.Context) (civicClient, error) {
	opts := []civicdex.Option{
		civicdex.WithMemoryCache(15 * time.Minute),
		civicdex.WithLimitPerSource(limitPerSource),
	}
	if noOpenData {
		opts = append(opts, civicdex.WithoutOpenData())
	} else {
		opts = append(opts, civicdex.WithOpenData("", appToken, datasets...))
	}
	if noClerk {
		opts = append(opts, civicdex.WithoutClerk())
	}
	if verbose {
		opts = append(opts, civicdex.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	}
	return civicdex.New(ctx, opts...)
}

var rootCmd = &cobra.Command{
	Use:   "civicctl",
	Short: "Search Chicago civic records",
	Long: `civicctl loads recent permits, licenses, inspections, violations and
City Council legislation from Chicago's public APIs and searches them
by keyword overlap.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if jsonOutput {
			color.NoColor = true
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&jsonOutput, "json", false, "output results as JSON")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log SDK operations to stderr")
	pf.StringVar(&appToken, "app-token", os.Getenv("CHICAGO_APP_TOKEN"), "open data portal app token")
	pf.StringSliceVar(&datasets, "dataset", nil, "open data datasets to load (default: all)")
	pf.BoolVar(&noOpenData, "no-open-data", false, "skip the open data portal")
	pf.BoolVar(&noClerk, "no-clerk", false, "skip City Clerk legislation")
	pf.IntVar(&limitPerSource, "per-source", 50, "records fetched per source")
	pf.DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline")
}

// withLoadedClient builds a client, loads documents and runs fn. Partial
// source failures are reported on stderr and do not stop fn.
func withLoadedClient(cmd *cobra.Command, fn func(ctx context.Context, c civicClient) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	c, err := newClient(ctx)
	if err != nil {
		return fmt.Errorf("init client: %w", err)
	}
	defer c.Close()

	report, err := c.Load(ctx)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	warn := color.New(color.FgYellow).SprintFunc()
	for _, s := range report.Sources {
		if !s.OK {
			cmd.PrintErrln(warn(fmt.Sprintf("warning: source %s failed: %v", s.Name, s.Err)))
		}
	}
	return fn(ctx, c)
}

package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"drivetrain.fyi/forecourt/internal/cli"
)

func runStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "stats does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel, _, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	stats, err := pool.QueryPipelineStats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query pipeline stats: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(stats); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	countRows := [][]string{
		{"scrape_runs", fmt.Sprintf("%d", stats.ScrapeRuns)},
		{"page_snapshots", fmt.Sprintf("%d", stats.PageSnapshots)},
		{"candidates", fmt.Sprintf("%d", stats.Candidates)},
		{"candidates_pending", fmt.Sprintf("%d", stats.CandidatesPending)},
		{"sync_events", fmt.Sprintf("%d", stats.SyncEvents)},
		{"last_fetched_at", formatUTCTimestampPtr(stats.LastFetchedAt)},
		{"last_synced_at", formatUTCTimestampPtr(stats.LastSyncedAt)},
	}
	if err := writeTable([]string{"metric", "value"}, countRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render stats table: %v\n", err)
		return 1
	}

	decisions := []string{"created", "updated", "skipped", "error"}
	decisionRows := make([][]string, 0, len(decisions))
	for _, decision := range decisions {
		decisionRows = append(decisionRows, []string{
			decision,
			fmt.Sprintf("%d", stats.SyncDecisions[decision]),
		})
	}

	fmt.Println()
	if err := writeTable([]string{"sync_decision", "count"}, decisionRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render decision table: %v\n", err)
		return 1
	}

	return 0
}

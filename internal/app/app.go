package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "scrape":
		return runScrape(args[1:])
	case "extract":
		return runExtract(args[1:])
	case "sync":
		return runSync(args[1:])
	case "stats":
		return runStats(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "forecourt CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  forecourt <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health   Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  scrape   Fetch dealer pages and store readable snapshots")
	fmt.Fprintln(os.Stderr, "  extract  Run pending snapshots through the extraction service")
	fmt.Fprintln(os.Stderr, "  sync     Match pending candidates against the content store and upsert")
	fmt.Fprintln(os.Stderr, "  stats    Print pipeline counters")
	fmt.Fprintln(os.Stderr, "  serve    Start Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"forecourt <command> -h\" for command-specific flags.")
}

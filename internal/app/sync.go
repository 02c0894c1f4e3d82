package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"drivetrain.fyi/forecourt/internal/cli"
	"drivetrain.fyi/forecourt/internal/cms"
	"drivetrain.fyi/forecourt/internal/logging"
	"drivetrain.fyi/forecourt/internal/syncer"
)

func runSync(args []string) int {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Minute, "Command timeout")
	limit := fs.Int("limit", 100, "Maximum pending candidates to sync")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *limit < 1 {
		fmt.Fprintln(os.Stderr, "--limit must be >= 1")
		return 2
	}

	ctx, cancel, cfg, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	store := cms.NewClient(cfg.CMSBaseURL, cfg.CMSAPIToken)
	service := syncer.NewService(store, pool, logger, cfg.SyncRatePerSec, cfg.SyncBurst)

	result, err := service.SyncPending(ctx, *limit)
	if err != nil {
		logger.Error().Err(err).Msg("sync batch failed")
		fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
		return 1
	}

	fmt.Printf("processed=%d created=%d updated=%d skipped=%d errors=%d\n",
		result.Processed, result.Created, result.Updated, result.Skipped, result.Errors)
	return 0
}

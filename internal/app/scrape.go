package app

import (
	"crypto/sha256"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"drivetrain.fyi/forecourt/internal/cli"
	"drivetrain.fyi/forecourt/internal/db"
	"drivetrain.fyi/forecourt/internal/globaltime"
	"drivetrain.fyi/forecourt/internal/langdetect"
	"drivetrain.fyi/forecourt/internal/logging"
	"drivetrain.fyi/forecourt/internal/scrape"
)

func runScrape(args []string) int {
	fs := flag.NewFlagSet("scrape", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 60*time.Second, "Command timeout")
	fetchTimeout := fs.Duration("fetch-timeout", scrape.DefaultFetchTimeout, "Per-page HTTP timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "scrape requires at least one page URL argument")
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

	urls := fs.Args()
	run, err := pool.InsertScrapeRun(ctx, urls[0], nil, globaltime.UTC())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to record scrape run: %v\n", err)
		return 1
	}

	fetched := 0
	var firstErr error
	for _, pageURL := range urls {
		page, err := scrape.FetchPage(ctx, pageURL, scrape.FetchOptions{
			Timeout:   *fetchTimeout,
			UserAgent: cfg.ScrapeUserAgent,
		})
		if err != nil {
			logger.Error().Err(err).Str("url", pageURL).Msg("page fetch failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		hash := sha256.Sum256([]byte(page.Text))
		language := langdetect.DetectISO6391(page.Text)
		if language == "" {
			language = "und"
		}
		snapshot := &db.PageSnapshot{
			ScrapeRunID: run.ScrapeRunID,
			SourceURL:   page.SourceURL,
			ContentText: page.Text,
			ContentHash: hash[:],
			Language:    language,
			FetchedAt:   globaltime.UTC(),
		}
		if err := pool.InsertPageSnapshot(ctx, snapshot); err != nil {
			logger.Error().Err(err).Str("url", pageURL).Msg("snapshot insert failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		fetched++
		logger.Info().
			Str("url", page.SourceURL).
			Str("domain", page.SourceDomain).
			Str("language", snapshot.Language).
			Int("text_bytes", len(page.Text)).
			Msg("page snapshot stored")
	}

	if fetched == 0 {
		if err := pool.MarkScrapeRunFailed(ctx, run.ScrapeRunID, firstErr, globaltime.UTC()); err != nil {
			logger.Error().Err(err).Msg("failed to mark scrape run failed")
		}
		fmt.Fprintf(os.Stderr, "Scrape failed: no pages stored (first error: %v)\n", firstErr)
		return 1
	}

	if err := pool.MarkScrapeRunCompleted(ctx, run.ScrapeRunID, fetched, globaltime.UTC()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to complete scrape run: %v\n", err)
		return 1
	}

	fmt.Printf("run_id=%d pages_fetched=%d of %d\n", run.ScrapeRunID, fetched, len(urls))
	return 0
}

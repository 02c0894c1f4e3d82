package app

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"drivetrain.fyi/forecourt/internal/cli"
	"drivetrain.fyi/forecourt/internal/db"
	"drivetrain.fyi/forecourt/internal/extract"
	"drivetrain.fyi/forecourt/internal/logging"
)

func runExtract(args []string) int {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	limit := fs.Int("limit", 20, "Maximum page snapshots to process")

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

	snapshots, err := pool.ListUnextractedSnapshots(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list page snapshots: %v\n", err)
		return 1
	}
	if len(snapshots) == 0 {
		fmt.Println("no pending page snapshots")
		return 0
	}

	client := extract.NewClient(cfg.ExtractEndpoint, logger)

	processed := 0
	inserted := 0
	failed := 0
	for i := range snapshots {
		snapshot := &snapshots[i]

		payload, err := client.Extract(ctx, snapshot.ContentText, snapshot.SourceURL)
		if err != nil {
			logger.Error().Err(err).
				Int64("page_snapshot_id", snapshot.PageSnapshotID).
				Msg("extraction failed")
			failed++
			continue
		}

		for _, listing := range payload.Listings {
			candidate, err := candidateFromListing(snapshot, listing)
			if err != nil {
				logger.Error().Err(err).
					Int64("page_snapshot_id", snapshot.PageSnapshotID).
					Msg("candidate conversion failed")
				failed++
				continue
			}
			if err := pool.InsertCandidate(ctx, candidate); err != nil {
				logger.Error().Err(err).
					Int64("page_snapshot_id", snapshot.PageSnapshotID).
					Msg("candidate insert failed")
				failed++
				continue
			}
			inserted++
		}
		processed++
	}

	fmt.Printf("snapshots_processed=%d candidates_inserted=%d failures=%d\n", processed, inserted, failed)
	if processed == 0 {
		return 1
	}
	return 0
}

func candidateFromListing(snapshot *db.PageSnapshot, listing extract.Listing) (*db.Candidate, error) {
	candidate := &db.Candidate{
		PageSnapshotID: &snapshot.PageSnapshotID,
		Title:          listing.Title,
		Brand:          listing.Brand,
		Description:    listing.Description,
		BodyType:       listing.BodyType,
		Price:          listing.Price,
		Status:         db.CandidateStatusPending,
	}
	if snapshot.Language != "" && snapshot.Language != "und" {
		language := snapshot.Language
		candidate.Language = &language
	}
	if len(listing.ModelTokens) > 0 {
		tokens, err := json.Marshal(listing.ModelTokens)
		if err != nil {
			return nil, fmt.Errorf("encode model tokens: %w", err)
		}
		candidate.ModelTokens = tokens
	}
	return candidate, nil
}

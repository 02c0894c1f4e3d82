package db

import (
	"context"
	"fmt"
	"time"
)

// InsertScrapeRun records the start of a scrape against one dealer page.
func (p *Pool) InsertScrapeRun(ctx context.Context, sourceURL string, sourceDomain *string, startedAt time.Time) (*ScrapeRun, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	run := &ScrapeRun{
		SourceURL:    sourceURL,
		SourceDomain: sourceDomain,
		StartedAt:    startedAt.UTC(),
		Status:       "running",
	}
	if err := p.gdb.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("insert scrape run: %w", err)
	}
	return run, nil
}

func (p *Pool) MarkScrapeRunCompleted(ctx context.Context, runID int64, pagesFetched int, finishedAt time.Time) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	finished := finishedAt.UTC()
	res := p.gdb.WithContext(ctx).
		Model(&ScrapeRun{}).
		Where("scrape_run_id = ?", runID).
		Updates(map[string]any{
			"status":        "completed",
			"pages_fetched": pagesFetched,
			"finished_at":   finished,
			"updated_at":    finished,
		})
	if res.Error != nil {
		return fmt.Errorf("mark scrape run completed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("scrape run %d not found", runID)
	}
	return nil
}

func (p *Pool) MarkScrapeRunFailed(ctx context.Context, runID int64, runErr error, finishedAt time.Time) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	message := "unknown error"
	if runErr != nil {
		message = runErr.Error()
	}
	finished := finishedAt.UTC()
	res := p.gdb.WithContext(ctx).
		Model(&ScrapeRun{}).
		Where("scrape_run_id = ?", runID).
		Updates(map[string]any{
			"status":        "failed",
			"error_message": message,
			"finished_at":   finished,
			"updated_at":    finished,
		})
	if res.Error != nil {
		return fmt.Errorf("mark scrape run failed: %w", res.Error)
	}
	return nil
}

// InsertPageSnapshot stores the extracted readable text of one fetched page.
func (p *Pool) InsertPageSnapshot(ctx context.Context, snapshot *PageSnapshot) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	if snapshot == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if err := p.gdb.WithContext(ctx).Create(snapshot).Error; err != nil {
		return fmt.Errorf("insert page snapshot: %w", err)
	}
	return nil
}

// ListUnextractedSnapshots returns page snapshots that have no candidate rows
// yet, oldest first.
func (p *Pool) ListUnextractedSnapshots(ctx context.Context, limit int) ([]PageSnapshot, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	if limit <= 0 {
		return nil, nil
	}

	var snapshots []PageSnapshot
	err := p.gdb.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM forecourt.candidates c WHERE c.page_snapshot_id = page_snapshots.page_snapshot_id)").
		Order("page_snapshot_id").
		Limit(limit).
		Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("list unextracted snapshots: %w", err)
	}
	return snapshots, nil
}

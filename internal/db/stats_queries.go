package db

import (
	"context"
	"fmt"
	"time"
)

// PipelineStats is the read model returned by the stats command and the API.
type PipelineStats struct {
	ScrapeRuns        int64            `json:"scrape_runs"`
	PageSnapshots     int64            `json:"page_snapshots"`
	Candidates        int64            `json:"candidates"`
	CandidatesPending int64            `json:"candidates_pending"`
	SyncEvents        int64            `json:"sync_events"`
	SyncDecisions     map[string]int64 `json:"sync_decisions"`
	LastFetchedAt     *time.Time       `json:"last_fetched_at,omitempty"`
	LastSyncedAt      *time.Time       `json:"last_synced_at,omitempty"`
}

// QueryPipelineStats returns overall pipeline counts plus per-decision sync
// totals.
func (p *Pool) QueryPipelineStats(ctx context.Context) (*PipelineStats, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	stats := &PipelineStats{
		SyncDecisions: make(map[string]int64, 4),
	}
	gdb := p.gdb.WithContext(ctx)

	if err := gdb.Model(&ScrapeRun{}).Count(&stats.ScrapeRuns).Error; err != nil {
		return nil, fmt.Errorf("count scrape runs: %w", err)
	}
	if err := gdb.Model(&PageSnapshot{}).Count(&stats.PageSnapshots).Error; err != nil {
		return nil, fmt.Errorf("count page snapshots: %w", err)
	}
	if err := gdb.Model(&Candidate{}).Count(&stats.Candidates).Error; err != nil {
		return nil, fmt.Errorf("count candidates: %w", err)
	}
	if err := gdb.Model(&Candidate{}).Where("status = ?", CandidateStatusPending).Count(&stats.CandidatesPending).Error; err != nil {
		return nil, fmt.Errorf("count pending candidates: %w", err)
	}
	if err := gdb.Model(&SyncEvent{}).Count(&stats.SyncEvents).Error; err != nil {
		return nil, fmt.Errorf("count sync events: %w", err)
	}

	type decisionCount struct {
		Decision string
		Total    int64
	}
	var decisions []decisionCount
	err := gdb.Model(&SyncEvent{}).
		Select("decision, COUNT(*) AS total").
		Group("decision").
		Scan(&decisions).Error
	if err != nil {
		return nil, fmt.Errorf("count sync decisions: %w", err)
	}
	for _, row := range decisions {
		stats.SyncDecisions[row.Decision] = row.Total
	}

	var lastFetched []time.Time
	err = gdb.Model(&PageSnapshot{}).
		Select("fetched_at").
		Order("fetched_at DESC").
		Limit(1).
		Scan(&lastFetched).Error
	if err != nil {
		return nil, fmt.Errorf("query last fetched at: %w", err)
	}
	if len(lastFetched) == 1 {
		utc := lastFetched[0].UTC()
		stats.LastFetchedAt = &utc
	}

	var lastSynced []time.Time
	err = gdb.Model(&SyncEvent{}).
		Select("created_at").
		Order("created_at DESC").
		Limit(1).
		Scan(&lastSynced).Error
	if err != nil {
		return nil, fmt.Errorf("query last synced at: %w", err)
	}
	if len(lastSynced) == 1 {
		utc := lastSynced[0].UTC()
		stats.LastSyncedAt = &utc
	}

	return stats, nil
}

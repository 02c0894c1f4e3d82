package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// InsertCandidate stores one extracted vehicle listing.
func (p *Pool) InsertCandidate(ctx context.Context, candidate *Candidate) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	if candidate == nil {
		return fmt.Errorf("candidate is nil")
	}
	if strings.TrimSpace(candidate.Title) == "" {
		return fmt.Errorf("candidate title is required")
	}
	if candidate.Status == "" {
		candidate.Status = CandidateStatusPending
	}
	if err := p.gdb.WithContext(ctx).Create(candidate).Error; err != nil {
		return fmt.Errorf("insert candidate: %w", err)
	}
	return nil
}

// ListPendingCandidates returns candidates awaiting a sync decision, oldest
// first.
func (p *Pool) ListPendingCandidates(ctx context.Context, limit int) ([]Candidate, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	if limit <= 0 {
		return nil, nil
	}

	var candidates []Candidate
	err := p.gdb.WithContext(ctx).
		Where("status = ?", CandidateStatusPending).
		Order("candidate_id").
		Limit(limit).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("list pending candidates: %w", err)
	}
	return candidates, nil
}

// ListCandidates returns candidates for the API, newest first, optionally
// filtered by status.
func (p *Pool) ListCandidates(ctx context.Context, status string, limit, offset int) ([]Candidate, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	if limit <= 0 {
		return nil, nil
	}

	query := p.gdb.WithContext(ctx).Order("candidate_id DESC").Limit(limit).Offset(max(0, offset))
	if trimmed := strings.TrimSpace(status); trimmed != "" {
		query = query.Where("status = ?", trimmed)
	}

	var candidates []Candidate
	if err := query.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return candidates, nil
}

func (p *Pool) MarkCandidateSynced(ctx context.Context, candidateID int64, syncedAt time.Time) error {
	return p.setCandidateStatus(ctx, candidateID, CandidateStatusSynced, &syncedAt)
}

func (p *Pool) MarkCandidateError(ctx context.Context, candidateID int64) error {
	return p.setCandidateStatus(ctx, candidateID, CandidateStatusError, nil)
}

func (p *Pool) setCandidateStatus(ctx context.Context, candidateID int64, status string, syncedAt *time.Time) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if syncedAt != nil {
		utc := syncedAt.UTC()
		updates["synced_at"] = utc
	}

	res := p.gdb.WithContext(ctx).
		Model(&Candidate{}).
		Where("candidate_id = ?", candidateID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("set candidate %d status %s: %w", candidateID, status, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("candidate %d not found", candidateID)
	}
	return nil
}

package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"drivetrain.fyi/forecourt/internal/cms"
	"drivetrain.fyi/forecourt/internal/db"
	"drivetrain.fyi/forecourt/internal/globaltime"
	"drivetrain.fyi/forecourt/internal/match"
)

// Store is the subset of the CMS client the sync service needs.
type Store interface {
	ListRecords(ctx context.Context) ([]cms.Record, error)
	CreateRecord(ctx context.Context, input cms.RecordInput) (*cms.Record, error)
	UpdateRecord(ctx context.Context, recordID string, input cms.RecordInput) error
}

// Ledger is the subset of the database pool the sync service needs.
// *db.Pool satisfies it.
type Ledger interface {
	ListPendingCandidates(ctx context.Context, limit int) ([]db.Candidate, error)
	InsertSyncEvent(ctx context.Context, event *db.SyncEvent) error
	MarkCandidateSynced(ctx context.Context, candidateID int64, syncedAt time.Time) error
	MarkCandidateError(ctx context.Context, candidateID int64) error
}

// Service runs create-or-update batches against the content store. Store
// writes are paced by a token-bucket limiter instead of a fixed inter-item
// sleep.
type Service struct {
	store   Store
	ledger  Ledger
	matcher *match.Matcher
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// Result summarizes one sync batch.
type Result struct {
	Processed int
	Created   int
	Updated   int
	Skipped   int
	Errors    int
}

func NewService(store Store, ledger Ledger, logger zerolog.Logger, ratePerSec float64, burst int) *Service {
	if ratePerSec <= 0 {
		ratePerSec = 10
	}
	if burst < 1 {
		burst = 1
	}
	return &Service{
		store:   store,
		ledger:  ledger,
		matcher: match.NewDefaultMatcher(),
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		logger:  logger,
	}
}

// SyncPending processes up to limit pending candidates against one snapshot
// of the store's records. Each created record is appended to the in-memory
// existing list so later candidates in the same batch match against it.
// Candidates are processed strictly in order; a store failure on one item is
// recorded and the batch continues.
func (s *Service) SyncPending(ctx context.Context, limit int) (Result, error) {
	if s == nil || s.store == nil || s.ledger == nil {
		return Result{}, fmt.Errorf("sync service is not initialized")
	}
	if limit <= 0 {
		return Result{}, nil
	}

	candidates, err := s.ledger.ListPendingCandidates(ctx, limit)
	if err != nil {
		return Result{}, fmt.Errorf("list pending candidates: %w", err)
	}
	if len(candidates) == 0 {
		return Result{}, nil
	}

	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch existing records: %w", err)
	}

	existing := make([]match.ExistingRecord, 0, len(records)+len(candidates))
	for _, record := range records {
		existing = append(existing, match.ExistingRecord{
			ID:       record.ID,
			Title:    record.Title,
			Brand:    record.Brand,
			BodyType: record.BodyType,
		})
	}

	var result Result
	for i := range candidates {
		candidate := &candidates[i]
		outcome, created, err := s.syncOne(ctx, candidate, existing)
		if err != nil {
			// Context cancellation aborts the batch; anything else was
			// already recorded per item.
			return result, err
		}
		if created != nil {
			existing = append(existing, *created)
		}

		result.Processed++
		switch outcome {
		case db.SyncDecisionCreated:
			result.Created++
		case db.SyncDecisionUpdated:
			result.Updated++
		case db.SyncDecisionSkipped:
			result.Skipped++
		case db.SyncDecisionError:
			result.Errors++
		}
	}

	return result, nil
}

// syncOne decides and applies one candidate. It returns the decision, plus
// the new existing-record entry when a record was created.
func (s *Service) syncOne(ctx context.Context, candidate *db.Candidate, existing []match.ExistingRecord) (string, *match.ExistingRecord, error) {
	matchResult := s.matcher.Match(toMatchCandidate(candidate), existing)

	if matchResult.Reason == match.ReasonNoTitle {
		s.recordEvent(ctx, candidate, db.SyncDecisionSkipped, nil, matchResult, nil)
		if err := s.ledger.MarkCandidateError(ctx, candidate.CandidateID); err != nil {
			s.logger.Warn().Err(err).Int64("candidate_id", candidate.CandidateID).Msg("failed to mark candidate error")
		}
		return db.SyncDecisionSkipped, nil, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	input := toRecordInput(candidate)
	now := globaltime.UTC()

	if matchResult.Found {
		if err := s.store.UpdateRecord(ctx, matchResult.Record.ID, input); err != nil {
			if ctx.Err() != nil {
				return "", nil, ctx.Err()
			}
			s.logger.Error().Err(err).
				Int64("candidate_id", candidate.CandidateID).
				Str("cms_record_id", matchResult.Record.ID).
				Msg("update failed")
			s.recordEvent(ctx, candidate, db.SyncDecisionError, &matchResult.Record.ID, matchResult, err)
			if markErr := s.ledger.MarkCandidateError(ctx, candidate.CandidateID); markErr != nil {
				s.logger.Warn().Err(markErr).Int64("candidate_id", candidate.CandidateID).Msg("failed to mark candidate error")
			}
			return db.SyncDecisionError, nil, nil
		}

		s.recordEvent(ctx, candidate, db.SyncDecisionUpdated, &matchResult.Record.ID, matchResult, nil)
		if err := s.ledger.MarkCandidateSynced(ctx, candidate.CandidateID, now); err != nil {
			s.logger.Warn().Err(err).Int64("candidate_id", candidate.CandidateID).Msg("failed to mark candidate synced")
		}

		s.logger.Info().
			Int64("candidate_id", candidate.CandidateID).
			Str("cms_record_id", matchResult.Record.ID).
			Str("match_reason", matchResult.Reason).
			Float64("match_score", matchResult.Score).
			Msg("candidate updated existing record")
		return db.SyncDecisionUpdated, nil, nil
	}

	created, err := s.store.CreateRecord(ctx, input)
	if err != nil {
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		s.logger.Error().Err(err).
			Int64("candidate_id", candidate.CandidateID).
			Msg("create failed")
		s.recordEvent(ctx, candidate, db.SyncDecisionError, nil, matchResult, err)
		if markErr := s.ledger.MarkCandidateError(ctx, candidate.CandidateID); markErr != nil {
			s.logger.Warn().Err(markErr).Int64("candidate_id", candidate.CandidateID).Msg("failed to mark candidate error")
		}
		return db.SyncDecisionError, nil, nil
	}

	s.recordEvent(ctx, candidate, db.SyncDecisionCreated, &created.ID, matchResult, nil)
	if err := s.ledger.MarkCandidateSynced(ctx, candidate.CandidateID, now); err != nil {
		s.logger.Warn().Err(err).Int64("candidate_id", candidate.CandidateID).Msg("failed to mark candidate synced")
	}

	s.logger.Info().
		Int64("candidate_id", candidate.CandidateID).
		Str("cms_record_id", created.ID).
		Str("match_reason", matchResult.Reason).
		Msg("candidate created new record")

	return db.SyncDecisionCreated, &match.ExistingRecord{
		ID:       created.ID,
		Title:    created.Title,
		Brand:    created.Brand,
		BodyType: created.BodyType,
	}, nil
}

func (s *Service) recordEvent(ctx context.Context, candidate *db.Candidate, decision string, cmsRecordID *string, matchResult match.MatchResult, cause error) {
	event := &db.SyncEvent{
		CandidateID: candidate.CandidateID,
		Decision:    decision,
		CMSRecordID: cmsRecordID,
		MatchReason: matchResult.Reason,
	}
	if matchResult.Reason != match.ReasonNoTitle {
		score := matchResult.Score
		event.MatchScore = &score
	}
	if cause != nil {
		message := cause.Error()
		event.ErrorMessage = &message
	}

	if err := s.ledger.InsertSyncEvent(ctx, event); err != nil {
		s.logger.Warn().Err(err).
			Int64("candidate_id", candidate.CandidateID).
			Str("decision", decision).
			Msg("failed to record sync event")
	}
}

func toMatchCandidate(candidate *db.Candidate) match.CandidateRecord {
	record := match.CandidateRecord{
		Title: candidate.Title,
	}
	if candidate.Brand != nil {
		record.Brand = *candidate.Brand
	}
	if candidate.Description != nil {
		record.Description = *candidate.Description
	}
	if candidate.BodyType != nil {
		record.BodyType = *candidate.BodyType
	}
	if len(candidate.ModelTokens) > 0 {
		var tokens []string
		if err := json.Unmarshal(candidate.ModelTokens, &tokens); err == nil {
			record.ModelTokens = tokens
		}
	}
	return record
}

func toRecordInput(candidate *db.Candidate) cms.RecordInput {
	input := cms.RecordInput{
		Title: strings.TrimSpace(candidate.Title),
	}
	if candidate.Brand != nil {
		input.Brand = strings.TrimSpace(*candidate.Brand)
	}
	if candidate.Description != nil {
		input.Description = strings.TrimSpace(*candidate.Description)
	}
	if candidate.BodyType != nil {
		input.BodyType = strings.TrimSpace(*candidate.BodyType)
	}
	if candidate.Price != nil {
		price := *candidate.Price
		input.Price = &price
	}
	return input
}

package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"drivetrain.fyi/forecourt/internal/cms"
	"drivetrain.fyi/forecourt/internal/db"
)

type fakeStore struct {
	records    []cms.Record
	nextID     int
	created    []cms.RecordInput
	updated    map[string]cms.RecordInput
	createErr  error
	updateErr  error
	listCalled int
}

func newFakeStore(records ...cms.Record) *fakeStore {
	return &fakeStore{
		records: records,
		nextID:  100,
		updated: make(map[string]cms.RecordInput),
	}
}

func (f *fakeStore) ListRecords(context.Context) ([]cms.Record, error) {
	f.listCalled++
	out := make([]cms.Record, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeStore) CreateRecord(_ context.Context, input cms.RecordInput) (*cms.Record, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	record := cms.Record{
		ID:       fmt.Sprintf("rec-%d", f.nextID),
		Title:    input.Title,
		Brand:    input.Brand,
		BodyType: input.BodyType,
	}
	f.created = append(f.created, input)
	f.records = append(f.records, record)
	return &record, nil
}

func (f *fakeStore) UpdateRecord(_ context.Context, recordID string, input cms.RecordInput) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated[recordID] = input
	return nil
}

type fakeLedger struct {
	pending []db.Candidate
	events  []db.SyncEvent
	synced  []int64
	errored []int64
}

func (f *fakeLedger) ListPendingCandidates(_ context.Context, limit int) ([]db.Candidate, error) {
	if limit >= len(f.pending) {
		return f.pending, nil
	}
	return f.pending[:limit], nil
}

func (f *fakeLedger) InsertSyncEvent(_ context.Context, event *db.SyncEvent) error {
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeLedger) MarkCandidateSynced(_ context.Context, candidateID int64, _ time.Time) error {
	f.synced = append(f.synced, candidateID)
	return nil
}

func (f *fakeLedger) MarkCandidateError(_ context.Context, candidateID int64) error {
	f.errored = append(f.errored, candidateID)
	return nil
}

func testService(store Store, ledger Ledger) *Service {
	// High rate so batch tests do not sleep.
	return NewService(store, ledger, zerolog.Nop(), 100000, 10)
}

func strPtr(s string) *string { return &s }

func TestSyncPendingUpdatesExactMatch(t *testing.T) {
	t.Parallel()

	store := newFakeStore(cms.Record{ID: "rec-1", Title: "eVitara Select 2WD"})
	ledger := &fakeLedger{
		pending: []db.Candidate{
			{CandidateID: 1, Title: "eVitara Select 2WD"},
		},
	}

	result, err := testService(store, ledger).SyncPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Updated != 1 || result.Created != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, ok := store.updated["rec-1"]; !ok {
		t.Fatalf("expected rec-1 to be updated, got %+v", store.updated)
	}
	if len(ledger.events) != 1 || ledger.events[0].Decision != db.SyncDecisionUpdated {
		t.Fatalf("unexpected events: %+v", ledger.events)
	}
	if len(ledger.synced) != 1 || ledger.synced[0] != 1 {
		t.Fatalf("expected candidate 1 marked synced, got %v", ledger.synced)
	}
}

func TestSyncPendingCreatesUnmatched(t *testing.T) {
	t.Parallel()

	store := newFakeStore(cms.Record{ID: "rec-1", Title: "eVitara Select"})
	ledger := &fakeLedger{
		pending: []db.Candidate{
			{CandidateID: 2, Title: "Totally Unrelated Model Z9", Brand: strPtr("Zeta")},
		},
	}

	result, err := testService(store, ledger).SyncPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(store.created) != 1 || store.created[0].Title != "Totally Unrelated Model Z9" {
		t.Fatalf("unexpected creates: %+v", store.created)
	}
	if ledger.events[0].Decision != db.SyncDecisionCreated {
		t.Fatalf("unexpected event: %+v", ledger.events[0])
	}
}

func TestSyncPendingCatchesWithinBatchDuplicates(t *testing.T) {
	t.Parallel()

	// Empty store; the second candidate duplicates the first and must be
	// matched against the record created moments earlier in the same batch.
	store := newFakeStore()
	ledger := &fakeLedger{
		pending: []db.Candidate{
			{CandidateID: 1, Title: "Mokka GS Electric"},
			{CandidateID: 2, Title: "Mokka GS Electric"},
		},
	}

	result, err := testService(store, ledger).SyncPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 1 || result.Updated != 1 {
		t.Fatalf("expected one create then one update, got %+v", result)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected a single CMS record, got %d", len(store.created))
	}
}

func TestSyncPendingSkipsBlankTitles(t *testing.T) {
	t.Parallel()

	store := newFakeStore(cms.Record{ID: "rec-1", Title: "Corsa GS"})
	ledger := &fakeLedger{
		pending: []db.Candidate{
			{CandidateID: 3, Title: "   "},
		},
	}

	result, err := testService(store, ledger).SyncPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Skipped != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(store.created) != 0 || len(store.updated) != 0 {
		t.Fatalf("expected no store calls for blank title")
	}
	if len(ledger.events) != 1 || ledger.events[0].MatchReason != "no_title" {
		t.Fatalf("unexpected events: %+v", ledger.events)
	}
	if len(ledger.errored) != 1 || ledger.errored[0] != 3 {
		t.Fatalf("expected candidate 3 marked errored, got %v", ledger.errored)
	}
}

func TestSyncPendingRecordsStoreFailures(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.createErr = fmt.Errorf("store unavailable")
	ledger := &fakeLedger{
		pending: []db.Candidate{
			{CandidateID: 4, Title: "Astra Sports Tourer"},
			{CandidateID: 5, Title: "Corsa GS"},
		},
	}

	result, err := testService(store, ledger).SyncPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("expected per-item errors to be recorded, not returned: %v", err)
	}
	if result.Errors != 2 || result.Processed != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	for _, event := range ledger.events {
		if event.Decision != db.SyncDecisionError {
			t.Fatalf("unexpected event decision: %+v", event)
		}
		if event.ErrorMessage == nil {
			t.Fatalf("expected error message on event")
		}
	}
}

func TestSyncPendingUsesModelTokens(t *testing.T) {
	t.Parallel()

	tokens, _ := json.Marshal([]string{"evitara", "select", "2wd"})
	store := newFakeStore(cms.Record{ID: "rec-1", Title: "eVitara Select 2WD", Brand: "Suzuki", BodyType: "SUV"})
	ledger := &fakeLedger{
		pending: []db.Candidate{
			{
				CandidateID: 6,
				Title:       "eVitara Select 2WD FWD",
				Brand:       strPtr("Suzuki"),
				BodyType:    strPtr("SUV"),
				ModelTokens: tokens,
			},
		},
	}

	result, err := testService(store, ledger).SyncPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("expected structured match to update, got %+v", result)
	}
}

func TestSyncPendingHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	ledger := &fakeLedger{
		pending: []db.Candidate{
			{CandidateID: 7, Title: "Mokka GS Electric"},
		},
	}

	// A drained limiter forces Wait to block until the context deadline.
	service := NewService(store, ledger, zerolog.Nop(), 0.0001, 1)
	service.limiter.AllowN(time.Now(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := service.SyncPending(ctx, 10); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestSyncPendingEmptyBatch(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	ledger := &fakeLedger{}

	result, err := testService(store, ledger).SyncPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if store.listCalled != 0 {
		t.Fatalf("expected no store list call for empty batch")
	}
}

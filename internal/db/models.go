package db

import (
	"encoding/json"
	"time"
)

// ScrapeRun maps forecourt.scrape_runs.
type ScrapeRun struct {
	ScrapeRunID   int64      `gorm:"column:scrape_run_id;primaryKey;autoIncrement"`
	ScrapeRunUUID string     `gorm:"column:scrape_run_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	SourceURL     string     `gorm:"column:source_url;type:text;not null"`
	SourceDomain  *string    `gorm:"column:source_domain;type:text"`
	StartedAt     time.Time  `gorm:"column:started_at;type:timestamptz;not null;default:now()"`
	FinishedAt    *time.Time `gorm:"column:finished_at;type:timestamptz"`
	Status        string     `gorm:"column:status;type:text;not null;default:running"`
	PagesFetched  int        `gorm:"column:pages_fetched;type:integer;not null;default:0"`
	ErrorMessage  *string    `gorm:"column:error_message;type:text"`
	CreatedAt     time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (ScrapeRun) TableName() string { return "forecourt.scrape_runs" }

// PageSnapshot maps forecourt.page_snapshots.
type PageSnapshot struct {
	PageSnapshotID   int64     `gorm:"column:page_snapshot_id;primaryKey;autoIncrement"`
	PageSnapshotUUID string    `gorm:"column:page_snapshot_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	ScrapeRunID      int64     `gorm:"column:scrape_run_id;type:bigint;not null"`
	SourceURL        string    `gorm:"column:source_url;type:text;not null"`
	ContentText      string    `gorm:"column:content_text;type:text;not null"`
	ContentHash      []byte    `gorm:"column:content_hash;type:bytea;not null"`
	Language         string    `gorm:"column:language;type:text;not null;default:und"`
	FetchedAt        time.Time `gorm:"column:fetched_at;type:timestamptz;not null;default:now()"`
	CreatedAt        time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (PageSnapshot) TableName() string { return "forecourt.page_snapshots" }

// Candidate status values.
const (
	CandidateStatusPending = "pending"
	CandidateStatusSynced  = "synced"
	CandidateStatusError   = "error"
)

// Candidate maps forecourt.candidates: an extracted vehicle listing waiting
// for a create-or-update decision against the content store.
type Candidate struct {
	CandidateID    int64           `gorm:"column:candidate_id;primaryKey;autoIncrement"`
	CandidateUUID  string          `gorm:"column:candidate_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	PageSnapshotID *int64          `gorm:"column:page_snapshot_id;type:bigint"`
	Title          string          `gorm:"column:title;type:text;not null"`
	Brand          *string         `gorm:"column:brand;type:text"`
	Description    *string         `gorm:"column:description;type:text"`
	BodyType       *string         `gorm:"column:body_type;type:text"`
	ModelTokens    json.RawMessage `gorm:"column:model_tokens;type:jsonb"`
	Price          *float64        `gorm:"column:price;type:double precision"`
	Language       *string         `gorm:"column:language;type:text"`
	Status         string          `gorm:"column:status;type:text;not null;default:pending"`
	SyncedAt       *time.Time      `gorm:"column:synced_at;type:timestamptz"`
	CreatedAt      time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Candidate) TableName() string { return "forecourt.candidates" }

// Sync decision values recorded per batch item.
const (
	SyncDecisionCreated = "created"
	SyncDecisionUpdated = "updated"
	SyncDecisionSkipped = "skipped"
	SyncDecisionError   = "error"
)

// SyncEvent maps forecourt.sync_events: the audit trail of one matcher
// decision plus the resulting store call.
type SyncEvent struct {
	SyncEventID   int64     `gorm:"column:sync_event_id;primaryKey;autoIncrement"`
	SyncEventUUID string    `gorm:"column:sync_event_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	CandidateID   int64     `gorm:"column:candidate_id;type:bigint;not null"`
	Decision      string    `gorm:"column:decision;type:text;not null"`
	CMSRecordID   *string   `gorm:"column:cms_record_id;type:text"`
	MatchScore    *float64  `gorm:"column:match_score;type:double precision"`
	MatchReason   string    `gorm:"column:match_reason;type:text;not null"`
	ErrorMessage  *string   `gorm:"column:error_message;type:text"`
	CreatedAt     time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (SyncEvent) TableName() string { return "forecourt.sync_events" }

func autoMigrateModels() []any {
	return []any{
		&ScrapeRun{},
		&PageSnapshot{},
		&Candidate{},
		&SyncEvent{},
	}
}

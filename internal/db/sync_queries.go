package db

import (
	"context"
	"fmt"
)

// InsertSyncEvent records one matcher decision and the resulting store call.
func (p *Pool) InsertSyncEvent(ctx context.Context, event *SyncEvent) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	if event == nil {
		return fmt.Errorf("sync event is nil")
	}
	if event.Decision == "" {
		return fmt.Errorf("sync event decision is required")
	}
	if err := p.gdb.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("insert sync event: %w", err)
	}
	return nil
}

// ListSyncEvents returns sync events for the API, newest first.
func (p *Pool) ListSyncEvents(ctx context.Context, limit, offset int) ([]SyncEvent, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	if limit <= 0 {
		return nil, nil
	}

	var events []SyncEvent
	err := p.gdb.WithContext(ctx).
		Order("sync_event_id DESC").
		Limit(limit).
		Offset(max(0, offset)).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list sync events: %w", err)
	}
	return events, nil
}

// Package history keeps the bounded, most-recent-first ledger of
// synchronization events plus the last-sync timestamp and total counter.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/contentpulse/pulsebridge/internal/types"
)

// MaxEntries bounds the ledger. Recording beyond the cap evicts the oldest.
const MaxEntries = 10

// Sync-meta keys owned by this package.
const (
	keyRecentSyncs = "recent_syncs"
	keyLastSyncAt  = "last_sync_at"
	keySyncCount   = "sync_count"
)

// MetaStore is the key/value capability the log persists through. The whole
// ledger is stored under one key; reads and writes are whole-list, so
// concurrent writers are last-write-wins. The log is advisory only.
type MetaStore interface {
	GetSyncMeta(ctx context.Context, key string) (string, error)
	SetSyncMeta(ctx context.Context, key, value string) error
}

// Log is the sync history service.
type Log struct {
	store MetaStore
}

// New creates a history log over the given meta store.
func New(store MetaStore) *Log {
	return &Log{store: store}
}

// Record prepends an event to the ledger and truncates the tail beyond
// MaxEntries.
func (l *Log) Record(ctx context.Context, event types.SyncEvent) error {
	events, err := l.Latest(ctx, MaxEntries)
	if err != nil {
		return err
	}

	events = append([]types.SyncEvent{event}, events...)
	if len(events) > MaxEntries {
		events = events[:MaxEntries]
	}

	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return l.store.SetSyncMeta(ctx, keyRecentSyncs, string(data))
}

// Latest returns up to limit events, most recent first.
func (l *Log) Latest(ctx context.Context, limit int) ([]types.SyncEvent, error) {
	raw, err := l.store.GetSyncMeta(ctx, keyRecentSyncs)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var events []types.SyncEvent
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		// A corrupt ledger is advisory data; start over rather than fail syncs.
		return nil, nil
	}

	if limit < 1 {
		limit = 1
	}
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// IncrementCounters stamps the last-sync time and bumps the total counter.
func (l *Log) IncrementCounters(ctx context.Context) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if err := l.store.SetSyncMeta(ctx, keyLastSyncAt, now); err != nil {
		return err
	}

	count, err := l.TotalSynced(ctx)
	if err != nil {
		return err
	}
	return l.store.SetSyncMeta(ctx, keySyncCount, strconv.FormatInt(count+1, 10))
}

// LastSyncAt returns the timestamp of the most recent sync, or nil if none.
func (l *Log) LastSyncAt(ctx context.Context) (*string, error) {
	raw, err := l.store.GetSyncMeta(ctx, keyLastSyncAt)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	return &raw, nil
}

// TotalSynced returns the running count of successful upserts.
func (l *Log) TotalSynced(ctx context.Context) (int64, error) {
	raw, err := l.store.GetSyncMeta(ctx, keySyncCount)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, nil
	}
	return count, nil
}

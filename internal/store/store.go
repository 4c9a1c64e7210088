package store

import (
	"context"

	"github.com/contentpulse/pulsebridge/internal/types"
)

// ContentStore defines the capability contract the reconciliation engine
// needs from the underlying content store: record CRUD, metadata, taxonomy
// terms, author accounts, and the sync-meta key/value area.
type ContentStore interface {
	CreateRecord(ctx context.Context, rec *types.Record) (int64, error)
	UpdateRecord(ctx context.Context, rec *types.Record) error
	GetRecord(ctx context.Context, id int64) (*types.Record, error)
	DeleteRecord(ctx context.Context, id int64) error

	// FindRecordsByMeta returns the IDs of records carrying the given
	// metadata key/value pair, oldest first.
	FindRecordsByMeta(ctx context.Context, key, value string) ([]int64, error)

	// Permalink returns the permanent public URL for a record.
	Permalink(rec *types.Record) string

	SetRecordMeta(ctx context.Context, recordID int64, key, value string) error
	GetRecordMeta(ctx context.Context, recordID int64, key string) (string, error)

	// FindOrCreateTerm resolves a taxonomy term by name, creating it when
	// absent, and returns its ID.
	FindOrCreateTerm(ctx context.Context, taxonomy, name string) (int64, error)

	// ReplaceRecordTerms replaces the record's term set for one taxonomy
	// with exactly the given IDs.
	ReplaceRecordTerms(ctx context.Context, recordID int64, taxonomy string, termIDs []int64) error
	RecordTermNames(ctx context.Context, recordID int64, taxonomy string) ([]string, error)

	GetUser(ctx context.Context, id int64) (*types.User, error)
	FirstUserWithRole(ctx context.Context, role string) (*types.User, error)

	GetSyncMeta(ctx context.Context, key string) (string, error)
	SetSyncMeta(ctx context.Context, key, value string) error

	Close() error
}

// MediaLibrary defines the media import capabilities consumed by the
// media resolver.
type MediaLibrary interface {
	// FindMediaBySourceURL returns the handle previously imported from the
	// URL, or ErrNotFound.
	FindMediaBySourceURL(ctx context.Context, url string) (*types.MediaHandle, error)

	// ImportRemoteMedia fetches a remote image and stores it in the media
	// library. It refuses URLs that fail platform validation; callers fall
	// back to a manual import for those.
	ImportRemoteMedia(ctx context.Context, url, description string) (*types.MediaHandle, error)

	// ImportMediaFile stores an already-downloaded file in the media library.
	ImportMediaFile(ctx context.Context, path, name, description string) (*types.MediaHandle, error)

	// TagMediaSource records the source URL a media asset was imported from.
	TagMediaSource(ctx context.Context, mediaID int64, url string) error

	// MediaURL returns the public URL of a stored media asset, or ErrNotFound.
	MediaURL(ctx context.Context, mediaID int64) (string, error)
}

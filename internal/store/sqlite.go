package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/contentpulse/pulsebridge/internal/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the SQLite-backed content store.
type SQLiteStore struct {
	db       *sql.DB
	baseURL  string
	mediaDir string
	client   *http.Client
}

// Options configure a SQLiteStore beyond the database path.
type Options struct {
	// BaseURL is the public site URL used to build permalinks.
	BaseURL string
	// MediaDir is the directory media files are stored in.
	MediaDir string
	// FetchTimeout bounds remote media imports.
	FetchTimeout time.Duration
	// MaxRedirects bounds redirect chains on remote media imports.
	MaxRedirects int
}

// NewSQLiteStore opens (or creates) the database at dbPath, applies pragmas,
// and runs migrations.
func NewSQLiteStore(dbPath string, opts Options) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if opts.MediaDir != "" {
		if err := os.MkdirAll(opts.MediaDir, 0755); err != nil {
			db.Close()
			return nil, fmt.Errorf("create media directory: %w", err)
		}
	}

	timeout := opts.FetchTimeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	maxRedirects := opts.MaxRedirects
	if maxRedirects == 0 {
		maxRedirects = 3
	}

	return &SQLiteStore{
		db:       db,
		baseURL:  opts.BaseURL,
		mediaDir: opts.MediaDir,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}, nil
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRecord inserts a new content record and returns its ID.
func (s *SQLiteStore) CreateRecord(ctx context.Context, rec *types.Record) (int64, error) {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO records (title, body, excerpt, slug, status, author_id, published_at, published_at_gmt, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Title, rec.Body, rec.Excerpt, rec.Slug, rec.Status, rec.AuthorID,
		formatTime(rec.PublishedAt), formatTime(rec.PublishedAtGMT),
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	rec.ID = id
	return id, nil
}

// UpdateRecord rewrites an existing record's attributes.
func (s *SQLiteStore) UpdateRecord(ctx context.Context, rec *types.Record) error {
	now := time.Now().UTC()
	rec.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		UPDATE records
		SET title = ?, body = ?, excerpt = ?, slug = ?, status = ?, author_id = ?,
		    published_at = COALESCE(?, published_at),
		    published_at_gmt = COALESCE(?, published_at_gmt),
		    updated_at = ?
		WHERE id = ?
	`, rec.Title, rec.Body, rec.Excerpt, rec.Slug, rec.Status, rec.AuthorID,
		formatTime(rec.PublishedAt), formatTime(rec.PublishedAtGMT),
		now.Format(time.RFC3339), rec.ID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRecord fetches a record by ID.
func (s *SQLiteStore) GetRecord(ctx context.Context, id int64) (*types.Record, error) {
	var (
		rec                  types.Record
		publishedAt          sql.NullString
		publishedAtGMT       sql.NullString
		createdAt, updatedAt string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, body, excerpt, slug, status, author_id, published_at, published_at_gmt, created_at, updated_at
		FROM records WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Title, &rec.Body, &rec.Excerpt, &rec.Slug, &rec.Status,
		&rec.AuthorID, &publishedAt, &publishedAtGMT, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.PublishedAt = parseTime(publishedAt)
	rec.PublishedAtGMT = parseTime(publishedAtGMT)
	if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
		rec.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		rec.UpdatedAt = ts
	}
	return &rec, nil
}

// DeleteRecord removes a record. Metadata and term links cascade.
func (s *SQLiteStore) DeleteRecord(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindRecordsByMeta returns the IDs of records with the given meta pair,
// oldest first.
func (s *SQLiteStore) FindRecordsByMeta(ctx context.Context, key, value string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id FROM record_meta
		WHERE meta_key = ? AND meta_value = ?
		ORDER BY record_id ASC
	`, key, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Permalink builds the permanent public URL for a record.
func (s *SQLiteStore) Permalink(rec *types.Record) string {
	if rec == nil {
		return ""
	}
	if rec.Slug != "" {
		return s.baseURL + "/" + rec.Slug
	}
	return s.baseURL + "/?p=" + strconv.FormatInt(rec.ID, 10)
}

// SetRecordMeta writes a metadata key for a record, replacing any prior value.
func (s *SQLiteStore) SetRecordMeta(ctx context.Context, recordID int64, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO record_meta (record_id, meta_key, meta_value)
		VALUES (?, ?, ?)
		ON CONFLICT (record_id, meta_key) DO UPDATE SET meta_value = excluded.meta_value
	`, recordID, key, value)
	return err
}

// GetRecordMeta reads a metadata key for a record. Missing keys return an
// empty string, not an error.
func (s *SQLiteStore) GetRecordMeta(ctx context.Context, recordID int64, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT meta_value FROM record_meta WHERE record_id = ? AND meta_key = ?",
		recordID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// GetUser fetches a user account by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*types.User, error) {
	var u types.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, login, display_name, role FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.Login, &u.DisplayName, &u.Role)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FirstUserWithRole returns the lowest-ID user carrying the role.
func (s *SQLiteStore) FirstUserWithRole(ctx context.Context, role string) (*types.User, error) {
	var u types.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, login, display_name, role FROM users WHERE role = ? ORDER BY id ASC LIMIT 1", role).
		Scan(&u.ID, &u.Login, &u.DisplayName, &u.Role)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetSyncMeta reads a sync-meta key. Missing keys return an empty string.
func (s *SQLiteStore) GetSyncMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT meta_value FROM sync_meta WHERE meta_key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSyncMeta writes a sync-meta key, replacing any prior value.
func (s *SQLiteStore) SetSyncMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_meta (meta_key, meta_value)
		VALUES (?, ?)
		ON CONFLICT (meta_key) DO UPDATE SET meta_value = excluded.meta_value
	`, key, value)
	return err
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func parseTime(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil
	}
	return &ts
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/contentpulse/pulsebridge/internal/types"
	"github.com/oklog/ulid/v2"
)

// FindMediaBySourceURL returns the media handle previously imported from the
// URL, or ErrNotFound.
func (s *SQLiteStore) FindMediaBySourceURL(ctx context.Context, sourceURL string) (*types.MediaHandle, error) {
	var h types.MediaHandle
	err := s.db.QueryRowContext(ctx,
		"SELECT id, file_name, source_url FROM media WHERE source_url = ? ORDER BY id ASC LIMIT 1",
		sourceURL).Scan(&h.ID, &h.FileName, &h.SourceURL)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ImportRemoteMedia fetches a remote image and stores it in the media
// library. URLs that fail platform validation (non-HTTP schemes, loopback
// or unresolvable hosts) are refused with ErrUnsafeURL so callers can
// decide whether to fall back to a manual import.
func (s *SQLiteStore) ImportRemoteMedia(ctx context.Context, rawURL, description string) (*types.MediaHandle, error) {
	if err := validateFetchURL(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("fetch %s: not an image (%s)", rawURL, contentType)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("fetch %s: empty body", rawURL)
	}

	name := fileNameFromURL(rawURL)
	if name == "" {
		name = "contentpulse-" + strings.ToLower(ulid.Make().String()) + ".jpg"
	}

	return s.storeMediaBytes(ctx, body, name, description)
}

// ImportMediaFile stores an already-downloaded file in the media library.
func (s *SQLiteStore) ImportMediaFile(ctx context.Context, srcPath, name, description string) (*types.MediaHandle, error) {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("read media file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("media file %s is empty", srcPath)
	}
	if name == "" {
		name = filepath.Base(srcPath)
	}
	return s.storeMediaBytes(ctx, data, name, description)
}

// TagMediaSource records the source URL a media asset was imported from.
func (s *SQLiteStore) TagMediaSource(ctx context.Context, mediaID int64, sourceURL string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE media SET source_url = ? WHERE id = ?", sourceURL, mediaID)
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

// MediaURL returns the public URL of a stored media asset.
func (s *SQLiteStore) MediaURL(ctx context.Context, mediaID int64) (string, error) {
	var fileName string
	err := s.db.QueryRowContext(ctx,
		"SELECT file_name FROM media WHERE id = ?", mediaID).Scan(&fileName)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return s.baseURL + "/media/" + fileName, nil
}

func (s *SQLiteStore) storeMediaBytes(ctx context.Context, data []byte, name, description string) (*types.MediaHandle, error) {
	name = sanitizeFileName(name)

	if s.mediaDir != "" {
		if err := os.WriteFile(filepath.Join(s.mediaDir, name), data, 0644); err != nil {
			return nil, fmt.Errorf("write media file: %w", err)
		}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO media (file_name, description, created_at)
		VALUES (?, ?, ?)
	`, name, description, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &types.MediaHandle{ID: id, FileName: name}, nil
}

// validateFetchURL applies the platform's strict URL checks: only absolute
// HTTP(S) URLs with public, resolvable hosts pass. Loopback and private
// addresses are refused, which is what makes the manual fallback necessary
// on local and staging hosts.
func validateFetchURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrUnsafeURL, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrUnsafeURL)
	}
	if host == "localhost" || strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return fmt.Errorf("%w: host %q", ErrUnsafeURL, host)
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
			return fmt.Errorf("%w: host %q", ErrUnsafeURL, host)
		}
	}
	return nil
}

// fileNameFromURL derives a file name from the URL path. Returns "" when
// the path has no usable base name.
func fileNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" || strings.Contains(base, "?") {
		return ""
	}
	return base
}

// sanitizeFileName strips path separators and characters unsafe for the
// media directory.
func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('-')
		}
	}
	out := strings.Trim(sb.String(), "-.")
	if out == "" {
		out = "contentpulse-" + strings.ToLower(ulid.Make().String())
	}
	return out
}

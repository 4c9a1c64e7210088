// Package media resolves remote image URLs into locally stored media
// handles, deduplicating by source URL.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/contentpulse/pulsebridge/internal/store"
	"github.com/contentpulse/pulsebridge/internal/types"
)

// Options configure a Resolver.
type Options struct {
	// FallbackImport enables the manual fetch-and-store path when the
	// platform import refuses or fails a URL.
	FallbackImport bool
	// FetchTimeout bounds the fallback HTTP fetch.
	FetchTimeout time.Duration
	// MaxRedirects bounds the fallback fetch's redirect chain.
	MaxRedirects int
}

// Resolver turns remote image URLs into media handles.
type Resolver struct {
	library  store.MediaLibrary
	client   *http.Client
	fallback bool
	logger   *slog.Logger
}

// NewResolver creates a Resolver over the given media library.
func NewResolver(library store.MediaLibrary, logger *slog.Logger, opts Options) *Resolver {
	timeout := opts.FetchTimeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	maxRedirects := opts.MaxRedirects
	if maxRedirects == 0 {
		maxRedirects = 3
	}

	return &Resolver{
		library:  library,
		fallback: opts.FallbackImport,
		logger:   logger,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
}

// Sideload imports the image at rawURL into the media library and returns
// its handle. A URL already imported returns the existing handle without
// any fetch. Returns nil on empty URLs and on any unrecoverable failure;
// callers proceed without a featured image rather than failing the upsert.
func (r *Resolver) Sideload(ctx context.Context, rawURL, description string) *types.MediaHandle {
	if rawURL == "" {
		return nil
	}

	existing, err := r.library.FindMediaBySourceURL(ctx, rawURL)
	if err == nil {
		return existing
	}
	if !errors.Is(err, store.ErrNotFound) {
		r.logger.Warn("media dedup lookup failed", "url", rawURL, "error", err)
		return nil
	}

	handle, err := r.library.ImportRemoteMedia(ctx, rawURL, description)
	if err != nil {
		if !r.fallback {
			r.logger.Warn("media import failed", "url", rawURL, "error", err)
			return nil
		}
		// Local and staging hosts routinely fail platform URL validation;
		// retry once with a direct fetch.
		handle, err = r.manualImport(ctx, rawURL, description)
		if err != nil {
			r.logger.Warn("media fallback import failed", "url", rawURL, "error", err)
			return nil
		}
	}

	if err := r.library.TagMediaSource(ctx, handle.ID, rawURL); err != nil {
		r.logger.Warn("media source tagging failed", "url", rawURL, "media_id", handle.ID, "error", err)
	}
	handle.SourceURL = rawURL

	return handle
}

// manualImport fetches the URL directly, persists the bytes to a temporary
// file, and hands that to the library's local-file import.
func (r *Resolver) manualImport(ctx context.Context, rawURL, description string) (*types.MediaHandle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
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
		name = "contentpulse-image-" + time.Now().UTC().Format("20060102150405") + ".jpg"
	}

	tmp, err := os.CreateTemp("", "contentpulse-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	return r.library.ImportMediaFile(ctx, tmpName, name, description)
}

// fileNameFromURL derives a file name from the URL path, or "" when the
// path has no usable base name.
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

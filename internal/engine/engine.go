// Package engine implements the content reconciliation engine: the
// idempotent upsert keyed by ContentPulse content ID, SEO metadata
// application, and taxonomy reconciliation.
package engine

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/contentpulse/pulsebridge/internal/history"
	"github.com/contentpulse/pulsebridge/internal/status"
	"github.com/contentpulse/pulsebridge/internal/store"
	"github.com/contentpulse/pulsebridge/internal/types"
	"github.com/contentpulse/pulsebridge/internal/validation"
)

// Record metadata keys owned by the engine.
const (
	MetaExternalID    = "_contentpulse_id"
	MetaFeaturedMedia = "_thumbnail_id"
)

// SEO integration modes. "auto" mirrors into both extension key sets since
// a standalone service cannot introspect the downstream rendering stack.
const (
	SEOIntegrationAuto     = "auto"
	SEOIntegrationYoast    = "yoast"
	SEOIntegrationRankMath = "rankmath"
	SEOIntegrationNone     = "none"
)

// Options configure the optional engine behaviors.
type Options struct {
	// ResolveAuthors enables the byline fallback chain. When disabled the
	// payload's author is trusted as-is, with DefaultAuthorID backstopping
	// an absent one.
	ResolveAuthors bool
	// SEOIntegration selects which third-party SEO extension's metadata
	// keys are mirrored alongside the engine's own.
	SEOIntegration string
	// DefaultStatus is the local status used when a payload omits one.
	DefaultStatus string
	// DefaultAuthorID is the identity of last resort for bylines.
	DefaultAuthorID int64
}

// Reconciler orchestrates a single-request upsert against the content store.
// It holds no cross-call locks: two concurrent upserts for the same
// never-before-seen external ID can both observe "not found" and create two
// records, with the last writer's link winning. That race is an accepted
// property of the design, not something the engine tries to fix.
type Reconciler struct {
	store   store.ContentStore
	history *history.Log
	opts    Options
	logger  *slog.Logger
}

// New creates a Reconciler.
func New(cs store.ContentStore, hist *history.Log, logger *slog.Logger, opts Options) *Reconciler {
	if opts.DefaultAuthorID == 0 {
		opts.DefaultAuthorID = 1
	}
	if opts.DefaultStatus == "" {
		opts.DefaultStatus = types.StatusDraft
	}
	return &Reconciler{store: cs, history: hist, opts: opts, logger: logger}
}

// Upsert creates or updates the local record for the payload. The payload
// must already be validated; mediaHandle may be nil.
func (r *Reconciler) Upsert(ctx context.Context, payload types.ContentPayload, mediaHandle *types.MediaHandle) (*types.UpsertResult, error) {
	existingID, err := r.findExisting(ctx, payload.ContentPulseID)
	if err != nil {
		return nil, err
	}

	rec := &types.Record{
		ID:       existingID,
		Title:    sanitizeText(payload.Title),
		Body:     sanitizeHTML(payload.BodyHTML),
		Excerpt:  sanitizeMultiline(payload.Excerpt),
		Slug:     slugify(payload.Slug),
		Status:   r.mapStatus(payload.Status),
		AuthorID: r.resolveAuthor(ctx, payload),
	}
	r.applyDates(rec, payload)

	action := types.ActionCreated
	if existingID != 0 {
		action = types.ActionUpdated
		if err := r.store.UpdateRecord(ctx, rec); err != nil {
			return nil, &store.WriteError{Op: "update record", Err: err}
		}
	} else {
		if _, err := r.store.CreateRecord(ctx, rec); err != nil {
			return nil, &store.WriteError{Op: "create record", Err: err}
		}
	}

	if payload.ContentPulseID != nil {
		externalID := strconv.FormatInt(*payload.ContentPulseID, 10)
		if err := r.store.SetRecordMeta(ctx, rec.ID, MetaExternalID, externalID); err != nil {
			return nil, &store.WriteError{Op: "link external id", Err: err}
		}
	}

	if mediaHandle != nil {
		if err := r.store.SetRecordMeta(ctx, rec.ID, MetaFeaturedMedia, strconv.FormatInt(mediaHandle.ID, 10)); err != nil {
			r.logger.Warn("featured media attach failed", "record_id", rec.ID, "error", err)
		}
	}

	r.applySeoMeta(ctx, rec.ID, payload.Seo)
	r.applyTaxonomies(ctx, rec.ID, payload.Categories, payload.Tags)

	result := &types.UpsertResult{
		Action: action,
		PostID: rec.ID,
		URL:    r.store.Permalink(rec),
	}
	r.trackSync(ctx, result, payload)

	return result, nil
}

// mapStatus translates the external status, falling back to the configured
// default when the payload omits one.
func (r *Reconciler) mapStatus(external string) string {
	if external == "" {
		return r.opts.DefaultStatus
	}
	return status.Map(external)
}

// findExisting resolves the local record ID linked to the external content
// ID. More than one linked record is a data-integrity warning, not a fatal
// error: the first (oldest) wins.
func (r *Reconciler) findExisting(ctx context.Context, externalID *int64) (int64, error) {
	if externalID == nil {
		return 0, nil
	}

	ids, err := r.store.FindRecordsByMeta(ctx, MetaExternalID, strconv.FormatInt(*externalID, 10))
	if err != nil {
		return 0, &store.WriteError{Op: "find by external id", Err: err}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if len(ids) > 1 {
		r.logger.Warn("multiple records linked to one external id",
			"contentpulse_id", *externalID,
			"record_ids", ids,
		)
	}
	return ids[0], nil
}

// applyDates sets the publish timestamps from the payload when the mapped
// status calls for them: scheduled_at for future records, published_at for
// published ones. Anything else keeps store defaults.
func (r *Reconciler) applyDates(rec *types.Record, payload types.ContentPayload) {
	switch {
	case payload.ScheduledAt != "" && rec.Status == types.StatusFuture:
		r.setPublishTime(rec, payload.ScheduledAt)
	case payload.PublishedAt != "" && rec.Status == types.StatusPublish:
		r.setPublishTime(rec, payload.PublishedAt)
	}
}

func (r *Reconciler) setPublishTime(rec *types.Record, value string) {
	ts, err := validation.ParseTimestamp(value)
	if err != nil {
		r.logger.Warn("unparseable publish timestamp", "value", value, "error", err)
		return
	}
	utc := ts.UTC()
	rec.PublishedAt = &ts
	rec.PublishedAtGMT = &utc
}

// resolveAuthor guarantees every record carries a non-empty byline. With
// author resolution enabled the chain is: payload author if it exists,
// else the first administrator account, else the default identity.
func (r *Reconciler) resolveAuthor(ctx context.Context, payload types.ContentPayload) int64 {
	if !r.opts.ResolveAuthors {
		if payload.Author > 0 {
			return payload.Author
		}
		return r.opts.DefaultAuthorID
	}

	if payload.Author > 0 {
		if _, err := r.store.GetUser(ctx, payload.Author); err == nil {
			return payload.Author
		}
	}

	if admin, err := r.store.FirstUserWithRole(ctx, types.RoleAdministrator); err == nil {
		return admin.ID
	}

	return r.opts.DefaultAuthorID
}

// trackSync appends the history event and bumps the sync counters.
// Both are advisory; failures are logged, never surfaced.
func (r *Reconciler) trackSync(ctx context.Context, result *types.UpsertResult, payload types.ContentPayload) {
	externalID := ""
	if payload.ContentPulseID != nil {
		externalID = strconv.FormatInt(*payload.ContentPulseID, 10)
	}

	statusLabel := payload.Status
	if statusLabel == "" {
		statusLabel = types.ExternalStatusDraft
	}

	event := types.SyncEvent{
		Action:         result.Action,
		PostID:         result.PostID,
		URL:            result.URL,
		Title:          payload.Title,
		Status:         statusLabel,
		ContentPulseID: externalID,
		SyncedAt:       time.Now().UTC().Format(time.RFC3339),
	}

	if err := r.history.Record(ctx, event); err != nil {
		r.logger.Warn("history append failed", "record_id", result.PostID, "error", err)
	}
	if err := r.history.IncrementCounters(ctx); err != nil {
		r.logger.Warn("sync counter update failed", "error", err)
	}
}

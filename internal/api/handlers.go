package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/contentpulse/pulsebridge/internal/engine"
	"github.com/contentpulse/pulsebridge/internal/history"
	"github.com/contentpulse/pulsebridge/internal/media"
	"github.com/contentpulse/pulsebridge/internal/store"
	"github.com/contentpulse/pulsebridge/internal/types"
	"github.com/contentpulse/pulsebridge/internal/validation"
)

const timestampLayout = "2006-01-02 15:04:05"

// Handler implements the ingestion API handlers.
type Handler struct {
	store    store.ContentStore
	library  store.MediaLibrary
	engine   *engine.Reconciler
	resolver *media.Resolver
	history  *history.Log
	apiKey   string
	version  string
	sideload bool
}

// HandlerOptions carries the collaborators a Handler needs.
type HandlerOptions struct {
	Store          store.ContentStore
	Library        store.MediaLibrary
	Engine         *engine.Reconciler
	Resolver       *media.Resolver
	History        *history.Log
	APIKey         string
	Version        string
	SideloadImages bool
}

// NewHandler creates a new Handler.
func NewHandler(opts HandlerOptions) *Handler {
	return &Handler{
		store:    opts.Store,
		library:  opts.Library,
		engine:   opts.Engine,
		resolver: opts.Resolver,
		history:  opts.History,
		apiKey:   opts.APIKey,
		version:  opts.Version,
		sideload: opts.SideloadImages,
	}
}

// PluginInfo handles GET /contentpulse/v1/plugin-info
func (h *Handler) PluginInfo(w http.ResponseWriter, r *http.Request) {
	resp := types.InfoResponse{
		PluginVersion:  h.version,
		Platform:       h.version,
		RuntimeVersion: runtime.Version(),
		SupportsBlocks: true,
		RestAPIVersion: "v1",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// UpsertPost handles POST /contentpulse/v1/posts
func (h *Handler) UpsertPost(w http.ResponseWriter, r *http.Request) {
	var payload types.ContentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validation.ValidatePayload(payload); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Payload contains invalid fields", errs)
		return
	}

	var handle *types.MediaHandle
	if h.sideload && h.resolver != nil && payload.FeaturedImage != "" {
		description := payload.Title
		if description == "" {
			description = "ContentPulse Image"
		}
		handle = h.resolver.Sideload(r.Context(), payload.FeaturedImage, description)
	}

	result, err := h.engine.Upsert(r.Context(), payload, handle)
	if err != nil {
		slog.Error("upsert failed", "error", err, "title", payload.Title)
		MapStoreError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Action == types.ActionCreated {
		status = http.StatusCreated
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(result)
}

// ShowPost handles GET /contentpulse/v1/posts/{id}
func (h *Handler) ShowPost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	rec, err := h.store.GetRecord(r.Context(), id)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	resp := types.RecordResponse{
		ID:         rec.ID,
		Title:      rec.Title,
		Slug:       rec.Slug,
		Status:     rec.Status,
		Content:    rec.Body,
		Excerpt:    rec.Excerpt,
		ModifiedAt: rec.UpdatedAt.Format(timestampLayout),
	}
	if rec.PublishedAt != nil {
		published := rec.PublishedAt.Format(timestampLayout)
		resp.PublishedAt = &published
	}
	if externalID, err := h.store.GetRecordMeta(r.Context(), rec.ID, engine.MetaExternalID); err == nil && externalID != "" {
		resp.ContentPulseID = &externalID
	}
	resp.FeaturedImage = h.featuredImageURL(r, rec.ID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// DeletePost handles DELETE /contentpulse/v1/posts/{id}
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteRecord(r.Context(), id); err != nil {
		MapStoreError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(types.DeleteResponse{Deleted: true, ID: id})
}

// IngestionStatus handles GET /contentpulse/v1/ingestion/status
func (h *Handler) IngestionStatus(w http.ResponseWriter, r *http.Request) {
	lastSync, err := h.history.LastSyncAt(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	total, err := h.history.TotalSynced(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	recent, err := h.history.Latest(r.Context(), 5)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	resp := types.StatusResponse{
		Status:        "ready",
		LastSyncAt:    lastSync,
		TotalSynced:   total,
		RecentSyncs:   recent,
		PluginVersion: h.version,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) recordID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteProblem(w, r, http.StatusBadRequest, "Record ID must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) featuredImageURL(r *http.Request, recordID int64) *string {
	if h.library == nil {
		return nil
	}

	raw, err := h.store.GetRecordMeta(r.Context(), recordID, engine.MetaFeaturedMedia)
	if err != nil || raw == "" {
		return nil
	}
	mediaID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}

	url, err := h.library.MediaURL(r.Context(), mediaID)
	if err != nil {
		return nil
	}
	return &url
}

package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/contentpulse/pulsebridge/internal/engine"
	"github.com/contentpulse/pulsebridge/internal/history"
	"github.com/contentpulse/pulsebridge/internal/media"
	"github.com/contentpulse/pulsebridge/internal/store"
	"github.com/contentpulse/pulsebridge/internal/types"
)

const testAPIKey = "test-key"

func newTestRouter(t *testing.T) (http.Handler, *store.SQLiteStore) {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:", store.Options{
		BaseURL:  "https://blog.example.com",
		MediaDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hist := history.New(s)
	h := NewHandler(HandlerOptions{
		Store:          s,
		Library:        s,
		Engine:         engine.New(s, hist, logger, engine.Options{}),
		Resolver:       media.NewResolver(s, logger, media.Options{FallbackImport: true}),
		History:        hist,
		APIKey:         testAPIKey,
		Version:        "1.0.0",
		SideloadImages: true,
	})
	return NewRouter(h), s
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(HeaderAPIKey, testAPIKey)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
}

func TestUpsertPost_CreateThenUpdate(t *testing.T) {
	router, _ := newTestRouter(t)

	payload := `{"contentpulse_id": 42, "title": "Hello", "post_status": "published"}`

	rec := doRequest(t, router, http.MethodPost, "/contentpulse/v1/posts", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created types.UpsertResult
	decodeBody(t, rec, &created)
	if created.Action != types.ActionCreated {
		t.Errorf("expected action created, got %q", created.Action)
	}
	if created.PostID == 0 {
		t.Error("expected non-zero post_id")
	}
	if created.URL == "" {
		t.Error("expected permalink in response")
	}

	rec = doRequest(t, router, http.MethodPost, "/contentpulse/v1/posts", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", rec.Code)
	}

	var updated types.UpsertResult
	decodeBody(t, rec, &updated)
	if updated.Action != types.ActionUpdated {
		t.Errorf("expected action updated, got %q", updated.Action)
	}
	if updated.PostID != created.PostID {
		t.Errorf("expected same post_id %d, got %d", created.PostID, updated.PostID)
	}
}

func TestUpsertPost_InvalidJSON(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/contentpulse/v1/posts", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected problem content type, got %q", ct)
	}
}

func TestUpsertPost_ValidationFailure(t *testing.T) {
	router, s := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/contentpulse/v1/posts", `{"title": ""}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var problem ProblemWithErrors
	decodeBody(t, rec, &problem)
	if len(problem.Errors) == 0 {
		t.Error("expected field errors in problem response")
	}

	// Rejected payloads never reach the store.
	ids, err := s.FindRecordsByMeta(context.Background(), engine.MetaExternalID, "")
	if err != nil {
		t.Fatalf("FindRecordsByMeta: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no records after rejected payload, found %d", len(ids))
	}
}

func TestUpsertPost_SideloadsFeaturedImage(t *testing.T) {
	router, s := newTestRouter(t)

	img := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer img.Close()

	payload := `{"title": "Pictured", "featured_image": "` + img.URL + `/cover.jpg"}`
	rec := doRequest(t, router, http.MethodPost, "/contentpulse/v1/posts", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var result types.UpsertResult
	decodeBody(t, rec, &result)

	thumbID, err := s.GetRecordMeta(context.Background(), result.PostID, engine.MetaFeaturedMedia)
	if err != nil {
		t.Fatalf("GetRecordMeta: %v", err)
	}
	if thumbID == "" {
		t.Error("expected featured media meta to be set")
	}
}

func TestUpsertPost_UnreachableImageStillSyncs(t *testing.T) {
	router, _ := newTestRouter(t)

	payload := `{"title": "No Image", "featured_image": "http://127.0.0.1:1/gone.jpg"}`
	rec := doRequest(t, router, http.MethodPost, "/contentpulse/v1/posts", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("media failure must not block the sync, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestShowPost(t *testing.T) {
	router, _ := newTestRouter(t)

	payload := `{"contentpulse_id": 7, "title": "Readable", "body_html": "<p>hi</p>", "post_status": "published"}`
	rec := doRequest(t, router, http.MethodPost, "/contentpulse/v1/posts", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup upsert failed: %d", rec.Code)
	}
	var created types.UpsertResult
	decodeBody(t, rec, &created)

	rec = doRequest(t, router, http.MethodGet, "/contentpulse/v1/posts/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var shown types.RecordResponse
	decodeBody(t, rec, &shown)
	if shown.ID != created.PostID {
		t.Errorf("expected id %d, got %d", created.PostID, shown.ID)
	}
	if shown.Title != "Readable" {
		t.Errorf("unexpected title %q", shown.Title)
	}
	if shown.Status != types.StatusPublish {
		t.Errorf("expected mapped status publish, got %q", shown.Status)
	}
	if shown.ContentPulseID == nil || *shown.ContentPulseID != "7" {
		t.Errorf("expected contentpulse_id 7, got %v", shown.ContentPulseID)
	}
}

func TestShowPost_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/contentpulse/v1/posts/999", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestShowPost_InvalidID(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/contentpulse/v1/posts/0", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for id 0, got %d", rec.Code)
	}
}

func TestDeletePost(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/contentpulse/v1/posts", `{"title": "Doomed"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup upsert failed: %d", rec.Code)
	}
	var created types.UpsertResult
	decodeBody(t, rec, &created)

	rec = doRequest(t, router, http.MethodDelete, "/contentpulse/v1/posts/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var deleted types.DeleteResponse
	decodeBody(t, rec, &deleted)
	if !deleted.Deleted || deleted.ID != created.PostID {
		t.Errorf("unexpected delete response: %+v", deleted)
	}

	rec = doRequest(t, router, http.MethodDelete, "/contentpulse/v1/posts/1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestIngestionStatus(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/contentpulse/v1/ingestion/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var status types.StatusResponse
	decodeBody(t, rec, &status)
	if status.Status != "ready" {
		t.Errorf("expected ready, got %q", status.Status)
	}
	if status.TotalSynced != 0 || status.LastSyncAt != nil || len(status.RecentSyncs) != 0 {
		t.Errorf("expected empty sync state, got %+v", status)
	}

	doRequest(t, router, http.MethodPost, "/contentpulse/v1/posts", `{"title": "Synced"}`)

	rec = doRequest(t, router, http.MethodGet, "/contentpulse/v1/ingestion/status", "")
	decodeBody(t, rec, &status)
	if status.TotalSynced != 1 {
		t.Errorf("expected total_synced 1, got %d", status.TotalSynced)
	}
	if status.LastSyncAt == nil {
		t.Error("expected last_sync_at to be set")
	}
	if len(status.RecentSyncs) != 1 {
		t.Errorf("expected 1 recent sync, got %d", len(status.RecentSyncs))
	}
}

func TestPluginInfo(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/contentpulse/v1/plugin-info", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var info types.InfoResponse
	decodeBody(t, rec, &info)
	if info.PluginVersion != "1.0.0" {
		t.Errorf("unexpected plugin_version %q", info.PluginVersion)
	}
	if info.RestAPIVersion != "v1" {
		t.Errorf("unexpected rest_api_version %q", info.RestAPIVersion)
	}
	if info.RuntimeVersion == "" {
		t.Error("expected runtime_version to be set")
	}
}

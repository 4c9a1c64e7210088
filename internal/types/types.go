package types

import (
	"encoding/json"
	"strings"
	"time"
)

// External content lifecycle labels as ContentPulse sends them.
const (
	ExternalStatusPublished = "published"
	ExternalStatusScheduled = "scheduled"
	ExternalStatusDraft     = "draft"
	ExternalStatusReview    = "review"
	ExternalStatusArchived  = "archived"
)

// Local record lifecycle statuses.
const (
	StatusPublish = "publish"
	StatusFuture  = "future"
	StatusDraft   = "draft"
	StatusPending = "pending"
	StatusPrivate = "private"
)

// Taxonomy names supported by the content store.
const (
	TaxonomyCategory = "category"
	TaxonomyTag      = "tag"
)

// TermRef is a taxonomy term reference in a ContentPulse payload.
// The feed sends terms either as bare strings or as {"name": "..."} objects.
type TermRef struct {
	Name string `json:"name"`
}

// UnmarshalJSON accepts both the string and the object form.
func (t *TermRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Name = s
		return nil
	}

	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	t.Name = obj.Name
	return nil
}

// SeoValue is a single SEO field value. List-valued inputs (e.g. keywords)
// are coerced to a comma-joined string.
type SeoValue string

// UnmarshalJSON accepts a string or an array of strings.
func (v *SeoValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = SeoValue(s)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*v = SeoValue(strings.Join(list, ", "))
	return nil
}

// ContentPayload is the normalized inbound payload handed to the engine.
type ContentPayload struct {
	ContentPulseID *int64              `json:"contentpulse_id,omitempty"`
	Title          string              `json:"title"`
	BodyHTML       string              `json:"body_html"`
	Excerpt        string              `json:"excerpt"`
	Slug           string              `json:"slug"`
	Status         string              `json:"post_status"`
	Author         int64               `json:"post_author,omitempty"`
	FeaturedImage  string              `json:"featured_image,omitempty"`
	Categories     []TermRef           `json:"categories,omitempty"`
	Tags           []TermRef           `json:"tags,omitempty"`
	Seo            map[string]SeoValue `json:"seo,omitempty"`
	PublishedAt    string              `json:"published_at,omitempty"`
	ScheduledAt    string              `json:"scheduled_at,omitempty"`
}

// UnmarshalJSON normalizes the `content` alias for `body_html`.
func (p *ContentPayload) UnmarshalJSON(data []byte) error {
	type alias ContentPayload
	aux := struct {
		*alias
		Content string `json:"content"`
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.BodyHTML == "" && aux.Content != "" {
		p.BodyHTML = aux.Content
	}
	return nil
}

// Record is a content record in the local store.
type Record struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Body           string     `json:"content"`
	Excerpt        string     `json:"excerpt"`
	Slug           string     `json:"slug"`
	Status         string     `json:"status"`
	AuthorID       int64      `json:"author_id"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	PublishedAtGMT *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"modified_at"`
}

// MediaHandle is a locally stored media asset, tagged with the source URL
// it was imported from so repeated sideloads reuse the same asset.
type MediaHandle struct {
	ID        int64  `json:"id"`
	FileName  string `json:"file_name"`
	SourceURL string `json:"source_url"`
}

// Upsert result actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// UpsertResult is the canonical outcome of a reconciliation.
type UpsertResult struct {
	Action string `json:"action"`
	PostID int64  `json:"post_id"`
	URL    string `json:"url"`
}

// SyncEvent is one entry in the bounded sync history ledger.
type SyncEvent struct {
	Action         string `json:"action"`
	PostID         int64  `json:"post_id"`
	URL            string `json:"url"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	ContentPulseID string `json:"contentpulse_id,omitempty"`
	SyncedAt       string `json:"synced_at"`
}

// User is an author account in the content store.
type User struct {
	ID          int64  `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// RoleAdministrator is the role used for byline fallback resolution.
const RoleAdministrator = "administrator"

// StatusResponse is the GET /ingestion/status response body.
type StatusResponse struct {
	Status        string      `json:"status"`
	LastSyncAt    *string     `json:"last_sync_at"`
	TotalSynced   int64       `json:"total_synced"`
	RecentSyncs   []SyncEvent `json:"recent_syncs"`
	PluginVersion string      `json:"plugin_version"`
}

// RecordResponse is the GET /posts/{id} response body.
type RecordResponse struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	Slug           string  `json:"slug"`
	Status         string  `json:"status"`
	Content        string  `json:"content"`
	Excerpt        string  `json:"excerpt"`
	FeaturedImage  *string `json:"featured_image"`
	ContentPulseID *string `json:"contentpulse_id"`
	PublishedAt    *string `json:"published_at"`
	ModifiedAt     string  `json:"modified_at"`
}

// DeleteResponse is the DELETE /posts/{id} response body.
type DeleteResponse struct {
	Deleted bool  `json:"deleted"`
	ID      int64 `json:"id"`
}

// InfoResponse is the GET /plugin-info handshake response body.
type InfoResponse struct {
	PluginVersion  string `json:"plugin_version"`
	Platform       string `json:"platform_version"`
	RuntimeVersion string `json:"runtime_version"`
	SupportsBlocks bool   `json:"supports_blocks"`
	RestAPIVersion string `json:"rest_api_version"`
}

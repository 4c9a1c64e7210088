// Package pulse implements the outbound ContentPulse API client. The
// ingestion side of the service is passive; this client covers the operator
// workflows that call back into ContentPulse: listing content that is ready
// to publish, asking ContentPulse to push one item, and a connection check.
package pulse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// MinAPIVersion is the oldest ContentPulse API this client understands.
const MinAPIVersion = "1.0.0"

const (
	feedPerPage  = 50
	maxFeedPages = 100

	requestTimeout = 25 * time.Second
)

// ErrUnauthorized is returned when ContentPulse rejects the API key.
var ErrUnauthorized = errors.New("pulse: authentication rejected")

// ContentItem is one entry from the ContentPulse feed.
type ContentItem struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updated_at"`
}

// PublishResult reports the outcome of a publish-ready request.
type PublishResult struct {
	Message   string
	RemoteURL string
}

// HandshakeResult reports whether the remote API is reachable and usable
// with the configured credentials.
type HandshakeResult struct {
	Compatible    bool
	MinAPIVersion string
	Message       string
}

// Client talks to a ContentPulse instance over its REST API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient builds a client for the given ContentPulse base URL. The URL is
// normalized so that both "https://pulse.example.com" and
// "https://pulse.example.com/api/v1/" configure the same instance.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: NormalizeBaseURL(baseURL),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// NormalizeBaseURL trims trailing slashes and a trailing /api/v1 path
// segment, which operators habitually paste from API documentation.
func NormalizeBaseURL(raw string) string {
	normalized := strings.TrimRight(strings.TrimSpace(raw), "/")
	normalized = strings.TrimSuffix(normalized, "/api/v1")
	return normalized
}

// ReadyContents pages through the ContentPulse feed and returns every item
// in a syncable status, newest first.
func (c *Client) ReadyContents(ctx context.Context) ([]ContentItem, error) {
	var items []ContentItem

	for page := 1; page <= maxFeedPages; page++ {
		feed, err := c.contentFeed(ctx, page)
		if err != nil {
			return nil, err
		}

		for _, item := range feed.Data {
			if !syncableStatus(item.Status) {
				continue
			}
			if item.Title == "" {
				item.Title = item.Slug
			}
			items = append(items, item)
		}

		if feed.Meta.CurrentPage >= feed.Meta.LastPage {
			break
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt > items[j].UpdatedAt
	})
	return items, nil
}

// PublishReady asks ContentPulse to push the given content item to the
// connected site. Failures are reported to the caller and never retried.
func (c *Client) PublishReady(ctx context.Context, contentID int64) (*PublishResult, error) {
	if contentID <= 0 {
		return nil, fmt.Errorf("pulse: invalid content id %d", contentID)
	}

	path := fmt.Sprintf("/api/v1/content/%d/publish", contentID)
	body, err := c.do(ctx, http.MethodPost, path)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Message string `json:"message"`
		Data    struct {
			RemoteURL string `json:"remote_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("pulse: decode publish response: %w", err)
	}

	result := &PublishResult{
		Message:   decoded.Message,
		RemoteURL: decoded.Data.RemoteURL,
	}
	if result.Message == "" {
		result.Message = "Content published successfully."
	}
	return result, nil
}

// Handshake verifies connectivity and credentials by fetching the first
// feed page. It never returns an error; the result carries the diagnosis.
func (c *Client) Handshake(ctx context.Context) HandshakeResult {
	result := HandshakeResult{MinAPIVersion: MinAPIVersion}

	if c.baseURL == "" || c.apiKey == "" {
		result.Message = "API URL and API key must be configured."
		return result
	}

	if _, err := c.contentFeed(ctx, 1); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			result.Message = "Authentication failed: check your API key."
		} else {
			result.Message = "Connection failed: " + err.Error()
		}
		return result
	}

	result.Compatible = true
	result.Message = "Connection successful."
	return result
}

type contentFeed struct {
	Data []ContentItem `json:"data"`
	Meta struct {
		CurrentPage int `json:"current_page"`
		LastPage    int `json:"last_page"`
	} `json:"meta"`
}

func (c *Client) contentFeed(ctx context.Context, page int) (*contentFeed, error) {
	path := fmt.Sprintf("/api/v1/content?page=%d&per_page=%d", page, feedPerPage)
	body, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var feed contentFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("pulse: decode content feed: %w", err)
	}
	return &feed, nil
}

func (c *Client) do(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("pulse: build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pulse: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("pulse: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("pulse: %s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	return body, nil
}

func syncableStatus(status string) bool {
	switch status {
	case "draft", "review", "published", "scheduled":
		return true
	}
	return false
}

package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/contentpulse/pulsebridge/internal/types"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be valid UTF-8",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// TimestampLayouts are the accepted wire formats for payload timestamps.
var TimestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses a payload timestamp against the accepted layouts.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range TimestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// ValidateTimestamp returns an error if a non-empty value does not parse.
func ValidateTimestamp(field, value string) *ValidationError {
	if value == "" {
		return nil
	}
	if _, err := ParseTimestamp(value); err != nil {
		return &ValidationError{
			Field:   field,
			Message: "must be an RFC 3339 or 'YYYY-MM-DD HH:MM:SS' timestamp",
		}
	}
	return nil
}

const maxTitleLength = 500

// ValidatePayload checks an inbound content payload before it reaches the
// reconciliation engine. A payload that fails here must not create records
// or history entries.
func ValidatePayload(p types.ContentPayload) []ValidationError {
	var c Collector

	c.Add(ValidateRequired("title", p.Title))
	c.Add(ValidateUTF8("title", p.Title))
	c.Add(ValidateMaxLength("title", p.Title, maxTitleLength))
	c.Add(ValidateUTF8("body_html", p.BodyHTML))
	c.Add(ValidateTimestamp("published_at", p.PublishedAt))
	c.Add(ValidateTimestamp("scheduled_at", p.ScheduledAt))

	if p.ContentPulseID != nil && *p.ContentPulseID <= 0 {
		c.Add(&ValidationError{Field: "contentpulse_id", Message: "must be a positive integer"})
	}

	return c.Errors()
}

package validation

import (
	"strings"
	"testing"

	"github.com/contentpulse/pulsebridge/internal/types"
)

func TestValidateRequired(t *testing.T) {
	if err := ValidateRequired("title", "Hello"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateRequired("title", ""); err == nil {
		t.Error("expected error for empty value")
	}
	if err := ValidateRequired("title", "   \t"); err == nil {
		t.Error("expected error for whitespace-only value")
	}
}

func TestValidateMaxLength(t *testing.T) {
	if err := ValidateMaxLength("title", strings.Repeat("a", 10), 10); err != nil {
		t.Errorf("unexpected error at limit: %v", err)
	}
	if err := ValidateMaxLength("title", strings.Repeat("a", 11), 10); err == nil {
		t.Error("expected error over limit")
	}
}

func TestParseTimestamp(t *testing.T) {
	for _, value := range []string{
		"2026-01-15T10:30:00Z",
		"2026-01-15 10:30:00",
		"2026-01-15T10:30:00",
	} {
		if _, err := ParseTimestamp(value); err != nil {
			t.Errorf("ParseTimestamp(%q): %v", value, err)
		}
	}

	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
}

func TestValidatePayload_MissingTitle(t *testing.T) {
	errs := ValidatePayload(types.ContentPayload{Title: "  "})
	if len(errs) == 0 {
		t.Fatal("expected validation errors")
	}
	if errs[0].Field != "title" {
		t.Errorf("got field %q, want title", errs[0].Field)
	}
}

func TestValidatePayload_Valid(t *testing.T) {
	id := int64(42)
	errs := ValidatePayload(types.ContentPayload{
		ContentPulseID: &id,
		Title:          "Hello",
		Status:         "published",
		PublishedAt:    "2026-01-15 10:30:00",
	})
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %+v", errs)
	}
}

func TestValidatePayload_BadExternalID(t *testing.T) {
	id := int64(0)
	errs := ValidatePayload(types.ContentPayload{ContentPulseID: &id, Title: "Hello"})
	if len(errs) != 1 || errs[0].Field != "contentpulse_id" {
		t.Errorf("expected contentpulse_id error, got %+v", errs)
	}
}

func TestCollector(t *testing.T) {
	var c Collector
	c.Add(nil)
	if c.HasErrors() {
		t.Error("nil adds should not register")
	}
	c.Add(&ValidationError{Field: "x", Message: "bad"})
	if !c.HasErrors() || len(c.Errors()) != 1 {
		t.Error("expected one collected error")
	}
}

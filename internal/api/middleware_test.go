package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		query      string
		wantStatus int
	}{
		{"valid header key", "secret", "secret", "", http.StatusOK},
		{"valid query key", "secret", "", "secret", http.StatusOK},
		{"header wins over query", "secret", "secret", "wrong", http.StatusOK},
		{"missing key", "secret", "", "", http.StatusUnauthorized},
		{"wrong key", "secret", "wrong", "", http.StatusUnauthorized},
		{"wrong length key", "secret", "secret-but-longer", "", http.StatusUnauthorized},
		{"empty configured key rejects everything", "", "", "", http.StatusUnauthorized},
		{"empty configured key rejects empty provided", "", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AuthMiddleware(tt.configured)(okHandler())

			target := "/contentpulse/v1/posts"
			if tt.query != "" {
				target += "?api_key=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set(HeaderAPIKey, tt.header)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
					t.Errorf("expected problem content type, got %q", ct)
				}
			}
		})
	}
}

func TestConstantTimeEqual(t *testing.T) {
	if !constantTimeEqual("abc", "abc") {
		t.Error("expected equal strings to match")
	}
	if constantTimeEqual("abc", "abd") {
		t.Error("expected different strings to mismatch")
	}
	if constantTimeEqual("abc", "abcd") {
		t.Error("expected different lengths to mismatch")
	}
	if !constantTimeEqual("", "") {
		t.Error("expected empty strings to match")
	}
}

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

// executeCommand runs the root command with the given args, capturing output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()

	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetArgs(nil)

	return buf.String(), err
}

func setTestEnv(t *testing.T, pulseURL string) {
	t.Helper()
	t.Setenv("PULSEBRIDGE_DEV_MODE", "true")
	t.Setenv("PULSEBRIDGE_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("CONTENTPULSE_API_URL", pulseURL)
	t.Setenv("CONTENTPULSE_API_KEY", "remote-key")
}

func TestCheckCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "remote-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"data":[],"meta":{"current_page":1,"last_page":1}}`))
	}))
	defer srv.Close()

	setTestEnv(t, srv.URL)

	out, err := executeCommand(t, "check")
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Connection successful.") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestCheckCommand_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	setTestEnv(t, srv.URL)

	out, err := executeCommand(t, "check")
	if err == nil {
		t.Fatal("expected check to fail")
	}
	if !strings.Contains(out, "Authentication failed") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestPublishCommand_ListsReadyContents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"data": [
				{"id": 3, "title": "Ready item", "status": "review", "updated_at": "2026-08-20 09:00"},
				{"id": 4, "title": "Trashed item", "status": "trashed", "updated_at": "2026-08-21 09:00"}
			],
			"meta": {"current_page": 1, "last_page": 1}
		}`))
	}))
	defer srv.Close()

	setTestEnv(t, srv.URL)

	out, err := executeCommand(t, "publish")
	if err != nil {
		t.Fatalf("publish failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Ready item") {
		t.Errorf("expected ready item in listing: %s", out)
	}
	if strings.Contains(out, "Trashed item") {
		t.Errorf("non-syncable item must not be listed: %s", out)
	}
}

func TestPublishCommand_PublishesByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/content/3/publish" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"message":"Published.","data":{"remote_url":"https://blog.example.com/ready-item"}}`))
	}))
	defer srv.Close()

	setTestEnv(t, srv.URL)

	out, err := executeCommand(t, "publish", "3")
	if err != nil {
		t.Fatalf("publish failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Published.") || !strings.Contains(out, "https://blog.example.com/ready-item") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestPublishCommand_RejectsBadID(t *testing.T) {
	setTestEnv(t, "http://127.0.0.1:1")

	if _, err := executeCommand(t, "publish", "abc"); err == nil {
		t.Fatal("expected error for non-numeric content ID")
	}
}

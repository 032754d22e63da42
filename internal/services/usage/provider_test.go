package usage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/j-veylop/codex-switcher-tui/internal/models"
)

const sampleResponse = `{
	"rate_limit": {
		"primary_window": {"used_percent": 37.5, "limit_window_seconds": 18000, "reset_at": 1700010000},
		"secondary_window": {"used_percent": 12, "limit_window_seconds": 604800, "reset_at": 1700600000}
	},
	"plan_type": "plus"
}`

func writeAuthFile(t *testing.T, token, accountID string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "auth.json")
	content := `{"tokens":{"access_token":"` + token + `","account_id":"` + accountID + `"}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write auth file: %v", err)
	}
	return path
}

func newTestProvider(endpoints ...string) *Provider {
	p := NewProvider()
	p.endpoints = endpoints
	return p
}

func TestFetch_Success(t *testing.T) {
	var gotAuth, gotAccountID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccountID = r.Header.Get("ChatGPT-Account-Id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	acc := models.Account{FilePath: writeAuthFile(t, "tok-123", "acc-1")}

	snapshot, err := p.Fetch(context.Background(), acc)
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}

	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization header = %q, want Bearer tok-123", gotAuth)
	}
	if gotAccountID != "acc-1" {
		t.Errorf("ChatGPT-Account-Id header = %q, want acc-1", gotAccountID)
	}

	if snapshot.PrimaryWindow == nil {
		t.Fatal("primary window missing")
	}
	if snapshot.PrimaryWindow.UsedPercent != 37.5 {
		t.Errorf("primary used = %v, want 37.5", snapshot.PrimaryWindow.UsedPercent)
	}
	if snapshot.PrimaryWindow.WindowMinutes != 300 {
		t.Errorf("primary window minutes = %d, want 300", snapshot.PrimaryWindow.WindowMinutes)
	}
	if snapshot.SecondaryWindow == nil || snapshot.SecondaryWindow.ResetsAt != 1700600000 {
		t.Errorf("secondary window not parsed: %+v", snapshot.SecondaryWindow)
	}
	if snapshot.PlanType != "plus" {
		t.Errorf("plan type = %q, want plus", snapshot.PlanType)
	}
}

func TestFetch_WindowMinutesRoundsUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rate_limit":{"primary_window":{"used_percent":1,"limit_window_seconds":61}}}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	acc := models.Account{FilePath: writeAuthFile(t, "tok", "")}

	snapshot, err := p.Fetch(context.Background(), acc)
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if snapshot.PrimaryWindow.WindowMinutes != 2 {
		t.Errorf("window minutes = %d, want 2 (61s rounds up)", snapshot.PrimaryWindow.WindowMinutes)
	}
}

func TestFetch_EndpointFallback(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer working.Close()

	p := newTestProvider(failing.URL, working.URL)
	acc := models.Account{FilePath: writeAuthFile(t, "tok", "acc-1")}

	snapshot, err := p.Fetch(context.Background(), acc)
	if err != nil {
		t.Fatalf("Fetch() should succeed via the second endpoint: %v", err)
	}
	if snapshot.PlanType != "plus" {
		t.Errorf("plan type = %q, want plus", snapshot.PlanType)
	}
}

func TestFetch_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	acc := models.Account{FilePath: writeAuthFile(t, "tok", "acc-1")}

	_, err := p.Fetch(context.Background(), acc)
	if err == nil {
		t.Fatal("Fetch() should fail on 401")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error type = %T, want *FetchError", err)
	}
	if !fetchErr.Unauthorized() {
		t.Error("Unauthorized() = false, want true for 401")
	}
}

func TestFetch_ServerError_NotUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	acc := models.Account{FilePath: writeAuthFile(t, "tok", "")}

	_, err := p.Fetch(context.Background(), acc)
	if err == nil {
		t.Fatal("Fetch() should fail on 500")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error type = %T, want *FetchError", err)
	}
	if fetchErr.Unauthorized() {
		t.Error("Unauthorized() = true, want false for 500")
	}
}

func TestFetch_UnauthorizedWinsOverLaterFailures(t *testing.T) {
	unauthorized := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer unauthorized.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	p := newTestProvider(unauthorized.URL, broken.URL)
	acc := models.Account{FilePath: writeAuthFile(t, "tok", "")}

	_, err := p.Fetch(context.Background(), acc)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error type = %T, want *FetchError", err)
	}
	if !fetchErr.Unauthorized() {
		t.Error("a 403 from any endpoint should classify the failure as unauthorized")
	}
	if len(fetchErr.Attempts) != 2 {
		t.Errorf("attempts = %d, want 2", len(fetchErr.Attempts))
	}
}

func TestFetch_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := newTestProvider(server.URL, server.URL)
	acc := models.Account{FilePath: writeAuthFile(t, "tok", "")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Fetch(ctx, acc)
	if err == nil {
		t.Fatal("Fetch() should fail with a canceled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled, got %v", err)
	}
}

func TestFetch_MissingAuthFile(t *testing.T) {
	p := newTestProvider("http://unused.invalid")
	acc := models.Account{FilePath: filepath.Join(t.TempDir(), "missing.json")}

	_, err := p.Fetch(context.Background(), acc)
	if err == nil {
		t.Fatal("Fetch() should fail when the auth file is missing")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error type = %T, want *FetchError", err)
	}
	if fetchErr.Unauthorized() {
		t.Error("a missing auth file is not an unauthorized failure")
	}
}

func TestFetch_EmptyToken(t *testing.T) {
	p := newTestProvider("http://unused.invalid")

	path := filepath.Join(t.TempDir(), "auth.json")
	if err := os.WriteFile(path, []byte(`{"tokens":{"access_token":"  "}}`), 0o600); err != nil {
		t.Fatalf("write auth file: %v", err)
	}

	_, err := p.Fetch(context.Background(), models.Account{FilePath: path})
	if err == nil {
		t.Fatal("Fetch() should fail when the token is empty")
	}
}

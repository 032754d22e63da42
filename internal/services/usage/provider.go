// Package usage fetches rate limit usage for Codex accounts from the
// backend usage endpoints.
package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/j-veylop/codex-switcher-tui/internal/logger"
	"github.com/j-veylop/codex-switcher-tui/internal/models"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// defaultEndpoints are tried in order until one succeeds.
var defaultEndpoints = []string{
	"https://chatgpt.com/backend-api/wham/usage",
	"https://api.openai.com/backend-api/wham/usage",
	"https://api.openai.com/api/codex/usage",
	"https://chat.openai.com/backend-api/wham/usage",
}

// FetchError reports a failed usage fetch. Unauthorized is true only when
// no endpoint succeeded and at least one rejected the credential itself.
type FetchError struct {
	StatusCode int
	Attempts   []string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("usage fetch failed with status %d after %d attempts", e.StatusCode, len(e.Attempts))
	}
	return fmt.Sprintf("usage fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Unauthorized reports whether the failure indicates a rejected credential.
func (e *FetchError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Provider fetches usage snapshots over HTTP.
type Provider struct {
	client    *http.Client
	endpoints []string
}

// NewProvider creates a usage provider with default endpoints.
func NewProvider() *Provider {
	return &Provider{
		client:    &http.Client{Timeout: 30 * time.Second},
		endpoints: defaultEndpoints,
	}
}

type apiWindow struct {
	UsedPercent        float64 `json:"used_percent"`
	LimitWindowSeconds int64   `json:"limit_window_seconds"`
	ResetAt            int64   `json:"reset_at"`
}

type apiUsageResponse struct {
	RateLimit struct {
		PrimaryWindow   *apiWindow `json:"primary_window"`
		SecondaryWindow *apiWindow `json:"secondary_window"`
	} `json:"rate_limit"`
	PlanType string `json:"plan_type"`
}

// Fetch retrieves the current usage snapshot for an account. It reads the
// account's auth file for the access token and walks the endpoint list
// until one answers.
func (p *Provider) Fetch(ctx context.Context, acc models.Account) (*models.UsageSnapshot, error) {
	token, accountID, err := readCredentials(acc.FilePath)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	var (
		attempts   []string
		lastErr    error
		authStatus int
	)

	for _, endpoint := range p.endpoints {
		attempts = append(attempts, endpoint)

		snapshot, status, err := p.fetchOne(ctx, endpoint, token, accountID)
		if err == nil {
			return snapshot, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, &FetchError{Attempts: attempts, Err: err}
		}

		lastErr = err
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			authStatus = status
		}
		logger.Debug("usage endpoint failed", "endpoint", endpoint, "error", err)
	}

	return nil, &FetchError{StatusCode: authStatus, Attempts: attempts, Err: lastErr}
}

// fetchOne performs a single request against one endpoint.
func (p *Provider) fetchOne(ctx context.Context, endpoint, token, accountID string) (*models.UsageSnapshot, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Origin", "https://chatgpt.com")
	if accountID != "" {
		req.Header.Set("ChatGPT-Account-Id", accountID)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}

	var parsed apiUsageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to parse usage response: %w", err)
	}

	snapshot := &models.UsageSnapshot{
		PrimaryWindow:   convertWindow(parsed.RateLimit.PrimaryWindow),
		SecondaryWindow: convertWindow(parsed.RateLimit.SecondaryWindow),
		PlanType:        parsed.PlanType,
	}
	return snapshot, resp.StatusCode, nil
}

func convertWindow(w *apiWindow) *models.RateLimitWindow {
	if w == nil {
		return nil
	}
	return &models.RateLimitWindow{
		UsedPercent:   models.ClampPercent(w.UsedPercent),
		WindowMinutes: (w.LimitWindowSeconds + 59) / 60,
		ResetsAt:      w.ResetAt,
	}
}

// readCredentials extracts the access token and account id from an auth file.
func readCredentials(filePath string) (token, accountID string, err error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to read auth file: %w", err)
	}

	var auth models.CodexAuthFile
	if err := json.Unmarshal(data, &auth); err != nil {
		return "", "", fmt.Errorf("failed to parse auth file: %w", err)
	}

	token = strings.TrimSpace(auth.Tokens.AccessToken)
	if token == "" {
		return "", "", errors.New("auth file has no access token")
	}
	return token, auth.Tokens.AccountID, nil
}

package models

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

// makeIDToken builds an unsigned JWT carrying the given claims payload.
func makeIDToken(t *testing.T, claims map[string]any) string {
	t.Helper()

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func TestAccount_CacheKey(t *testing.T) {
	acc := Account{ID: "acc-1", FilePath: "/accounts/a.json"}
	if acc.CacheKey() != "acc-1" {
		t.Errorf("CacheKey() = %q, want %q", acc.CacheKey(), "acc-1")
	}

	acc.ID = ""
	if acc.CacheKey() != "/accounts/a.json" {
		t.Errorf("CacheKey() = %q, want file path fallback", acc.CacheKey())
	}
}

func TestAccount_Clone(t *testing.T) {
	original := Account{
		ID:       "id-123",
		Name:     "work",
		Email:    "test@example.com",
		Priority: 7,
		Usage: &UsageSnapshot{
			PrimaryWindow:   &RateLimitWindow{UsedPercent: 40, ResetsAt: 1234},
			SecondaryWindow: &RateLimitWindow{UsedPercent: 12, ResetsAt: 5678},
			PlanType:        "plus",
		},
	}

	clone := original.Clone()

	if clone.ID != original.ID {
		t.Errorf("clone.ID = %q, want %q", clone.ID, original.ID)
	}
	if clone.Usage == original.Usage {
		t.Fatal("clone shares the usage pointer with the original")
	}

	clone.Usage.PrimaryWindow.UsedPercent = 99
	if original.Usage.PrimaryWindow.UsedPercent == 99 {
		t.Error("modifying clone should not affect original (deep copy check)")
	}
}

func TestAccount_Clone_NilUsage(t *testing.T) {
	original := Account{ID: "id-123"}

	clone := original.Clone()

	if clone.Usage != nil {
		t.Error("clone.Usage should be nil when original is nil")
	}
}

func TestAccount_PrimaryUsedPercent_MissingData(t *testing.T) {
	acc := Account{}
	if got := acc.PrimaryUsedPercent(); got != 100 {
		t.Errorf("PrimaryUsedPercent() with no usage = %v, want 100", got)
	}

	acc.Usage = &UsageSnapshot{}
	if got := acc.PrimaryUsedPercent(); got != 100 {
		t.Errorf("PrimaryUsedPercent() with no window = %v, want 100", got)
	}
}

func TestAccount_UsedPercent_Clamped(t *testing.T) {
	acc := Account{
		Usage: &UsageSnapshot{
			PrimaryWindow:   &RateLimitWindow{UsedPercent: 130},
			SecondaryWindow: &RateLimitWindow{UsedPercent: -5},
		},
	}

	if got := acc.PrimaryUsedPercent(); got != 100 {
		t.Errorf("PrimaryUsedPercent() = %v, want 100", got)
	}
	if got := acc.SecondaryUsedPercent(); got != 0 {
		t.Errorf("SecondaryUsedPercent() = %v, want 0", got)
	}
}

func TestAccount_SecondaryResetsAt(t *testing.T) {
	acc := Account{}
	if got := acc.SecondaryResetsAt(); got != 0 {
		t.Errorf("SecondaryResetsAt() with no usage = %d, want 0", got)
	}

	acc.Usage = &UsageSnapshot{SecondaryWindow: &RateLimitWindow{ResetsAt: 4242}}
	if got := acc.SecondaryResetsAt(); got != 4242 {
		t.Errorf("SecondaryResetsAt() = %d, want 4242", got)
	}
}

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{5, 5},
		{0, 1},
		{-3, 1},
		{13, 10},
		{6.6, 7},
		{6.4, 6},
	}

	for _, tt := range tests {
		if got := NormalizePriority(tt.in); got != tt.want {
			t.Errorf("NormalizePriority(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDecodeJWTPayload_Malformed(t *testing.T) {
	if DecodeJWTPayload("") != nil {
		t.Error("empty token should decode to nil")
	}
	if DecodeJWTPayload("only.two") != nil {
		t.Error("two-segment token should decode to nil")
	}
	if DecodeJWTPayload("a.!!!.c") != nil {
		t.Error("invalid base64 payload should decode to nil")
	}
}

func TestExtractAuthInfo(t *testing.T) {
	token := makeIDToken(t, map[string]any{
		"email": "pool@example.com",
		"exp":   int64(1900000000),
		"https://api.openai.com/auth": map[string]any{
			"chatgpt_plan_type":                 "plus",
			"chatgpt_subscription_active_until": "2026-12-01",
		},
	})

	auth := &CodexAuthFile{Tokens: CodexTokens{IDToken: token}}
	email, planType, subscriptionEnd, expiresAt := ExtractAuthInfo(auth)

	if email != "pool@example.com" {
		t.Errorf("email = %q, want %q", email, "pool@example.com")
	}
	if planType != "plus" {
		t.Errorf("planType = %q, want %q", planType, "plus")
	}
	if subscriptionEnd != "2026-12-01" {
		t.Errorf("subscriptionEnd = %q, want %q", subscriptionEnd, "2026-12-01")
	}
	if expiresAt != 1900000000 {
		t.Errorf("expiresAt = %d, want 1900000000", expiresAt)
	}
}

func TestExtractAuthInfo_BadToken(t *testing.T) {
	auth := &CodexAuthFile{Tokens: CodexTokens{IDToken: "not-a-jwt"}}
	email, planType, _, expiresAt := ExtractAuthInfo(auth)

	if email != "Unknown" {
		t.Errorf("email = %q, want %q", email, "Unknown")
	}
	if planType != "unknown" {
		t.Errorf("planType = %q, want %q", planType, "unknown")
	}
	if expiresAt != 0 {
		t.Errorf("expiresAt = %d, want 0", expiresAt)
	}
}

// Package models defines data structures and domain types.
package models

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"strings"
)

// Priority bounds for user-assigned account weights.
const (
	MinPriority     = 1
	MaxPriority     = 10
	DefaultPriority = 5
)

// CodexTokens holds the token block of a Codex auth file.
type CodexTokens struct {
	AccessToken  string `json:"access_token"`
	AccountID    string `json:"account_id"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
}

// CodexAuthFile represents the JSON structure of a Codex credential profile
// (the same shape the runtime keeps in ~/.codex/auth.json).
type CodexAuthFile struct {
	OpenAIAPIKey string      `json:"OPENAI_API_KEY,omitempty"`
	LastRefresh  string      `json:"last_refresh"`
	Tokens       CodexTokens `json:"tokens"`
}

// Account represents one credential profile in the pool.
// This is the unified account type used throughout the application.
type Account struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Email           string         `json:"email"`
	PlanType        string         `json:"planType"`
	SubscriptionEnd string         `json:"subscriptionEnd,omitempty"`
	FilePath        string         `json:"filePath"`
	LastRefresh     string         `json:"lastRefresh,omitempty"`
	AuthUpdatedAt   int64          `json:"authUpdatedAt"`       // auth file mtime, unix ms
	ExpiresAt       int64          `json:"expiresAt,omitempty"` // id_token exp, unix seconds
	LastUsageUpdate int64          `json:"lastUsageUpdate"`     // last fetch attempt, unix ms
	Priority        int            `json:"priority"`            // user weight in [1,10]
	IsActive        bool           `json:"isActive"`
	IsTokenExpired  bool           `json:"isTokenExpired"`
	Usage           *UsageSnapshot `json:"usage,omitempty"`
}

// CacheKey returns the stable key used for the persistent usage cache.
// The account id wins when the profile has one; older cache rows may still
// be keyed by file path and are migrated on first encounter.
func (a *Account) CacheKey() string {
	if a.ID != "" {
		return a.ID
	}
	return a.FilePath
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() Account {
	clone := *a
	if a.Usage != nil {
		u := a.Usage.Clone()
		clone.Usage = &u
	}
	return clone
}

// PrimaryUsedPercent returns the short-window usage clamped to [0,100].
// A missing snapshot or window reads as fully used so that every policy
// reasoning about safety margins sees the worst case.
func (a *Account) PrimaryUsedPercent() float64 {
	if a.Usage == nil || a.Usage.PrimaryWindow == nil {
		return 100
	}
	return ClampPercent(a.Usage.PrimaryWindow.UsedPercent)
}

// SecondaryUsedPercent returns the weekly-window usage clamped to [0,100],
// with the same worst-case reading for missing data.
func (a *Account) SecondaryUsedPercent() float64 {
	if a.Usage == nil || a.Usage.SecondaryWindow == nil {
		return 100
	}
	return ClampPercent(a.Usage.SecondaryWindow.UsedPercent)
}

// SecondaryResetsAt returns the weekly-window reset time in unix seconds,
// or 0 when unknown.
func (a *Account) SecondaryResetsAt() int64 {
	if a.Usage == nil || a.Usage.SecondaryWindow == nil {
		return 0
	}
	return a.Usage.SecondaryWindow.ResetsAt
}

// NormalizePriority rounds and clamps an externally supplied priority into
// [MinPriority, MaxPriority].
func NormalizePriority(v float64) int {
	if math.IsNaN(v) {
		return DefaultPriority
	}
	p := int(math.Round(v))
	if p < MinPriority {
		return MinPriority
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}

// idTokenClaims is the subset of the id_token payload the scanner cares about.
type idTokenClaims struct {
	Email string `json:"email"`
	Exp   int64  `json:"exp"`
	Auth  struct {
		PlanType        string `json:"chatgpt_plan_type"`
		SubscriptionEnd string `json:"chatgpt_subscription_active_until"`
	} `json:"https://api.openai.com/auth"`
}

// DecodeJWTPayload decodes the payload segment of a JWT without verifying
// the signature. Returns nil on any malformed input.
func DecodeJWTPayload(token string) []byte {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil
	}
	return payload
}

// ExtractAuthInfo parses email, plan type, subscription end and token expiry
// from an auth file's id_token. Unparsable tokens yield placeholder values.
func ExtractAuthInfo(auth *CodexAuthFile) (email, planType, subscriptionEnd string, expiresAt int64) {
	email = "Unknown"
	planType = "unknown"

	payload := DecodeJWTPayload(auth.Tokens.IDToken)
	if payload == nil {
		return
	}

	var claims idTokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return
	}

	if claims.Email != "" {
		email = claims.Email
	}
	if claims.Auth.PlanType != "" {
		planType = claims.Auth.PlanType
	}
	subscriptionEnd = claims.Auth.SubscriptionEnd
	expiresAt = claims.Exp
	return
}

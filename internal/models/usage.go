// Package models defines data structures and domain types.
package models

// RateLimitWindow describes usage within one rolling rate-limit window.
type RateLimitWindow struct {
	UsedPercent   float64 `json:"usedPercent"`
	WindowMinutes int64   `json:"windowMinutes,omitempty"`
	ResetsAt      int64   `json:"resetsAt,omitempty"` // unix seconds, 0 = unknown
}

// UsageSnapshot is a point-in-time usage reading for an account.
// A nil window means "unknown", not zero usage.
type UsageSnapshot struct {
	PrimaryWindow   *RateLimitWindow `json:"primaryWindow,omitempty"`
	SecondaryWindow *RateLimitWindow `json:"secondaryWindow,omitempty"`
	PlanType        string           `json:"planType,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (u *UsageSnapshot) Clone() UsageSnapshot {
	clone := UsageSnapshot{PlanType: u.PlanType}
	if u.PrimaryWindow != nil {
		w := *u.PrimaryWindow
		clone.PrimaryWindow = &w
	}
	if u.SecondaryWindow != nil {
		w := *u.SecondaryWindow
		clone.SecondaryWindow = &w
	}
	return clone
}

// CacheEntry is the persisted form of the last known usage for an account.
type CacheEntry struct {
	Usage    UsageSnapshot `json:"usage"`
	CachedAt int64         `json:"cachedAt"` // unix ms
}

// AutoSwitchConfig controls the automatic rotation loop.
type AutoSwitchConfig struct {
	Enabled          bool `json:"enabled"`
	ThresholdPercent int  `json:"thresholdPercent"` // remaining-quota percent, clamped to [1,50]
}

// Threshold clamp bounds.
const (
	MinAutoSwitchThreshold     = 1
	MaxAutoSwitchThreshold     = 50
	DefaultAutoSwitchThreshold = 10
)

// Normalized returns a copy with the threshold clamped into its valid range.
// A zero threshold reads as "unset" and takes the default.
func (c AutoSwitchConfig) Normalized() AutoSwitchConfig {
	if c.ThresholdPercent == 0 {
		c.ThresholdPercent = DefaultAutoSwitchThreshold
	}
	if c.ThresholdPercent < MinAutoSwitchThreshold {
		c.ThresholdPercent = MinAutoSwitchThreshold
	}
	if c.ThresholdPercent > MaxAutoSwitchThreshold {
		c.ThresholdPercent = MaxAutoSwitchThreshold
	}
	return c
}

// UsedPercentLimit is the usage percentage at which the remaining quota
// drops below the configured threshold.
func (c AutoSwitchConfig) UsedPercentLimit() float64 {
	return float64(100 - c.Normalized().ThresholdPercent)
}

// ClampPercent clamps a percentage to [0,100]. Sources occasionally report
// out-of-range values; everything downstream compares clamped numbers.
func ClampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

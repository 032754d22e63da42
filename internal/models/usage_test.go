package models

import "testing"

func TestUsageSnapshot_Clone(t *testing.T) {
	original := &UsageSnapshot{
		PrimaryWindow:   &RateLimitWindow{UsedPercent: 30, WindowMinutes: 300, ResetsAt: 100},
		SecondaryWindow: &RateLimitWindow{UsedPercent: 10, WindowMinutes: 10080, ResetsAt: 200},
		PlanType:        "pro",
	}

	clone := original.Clone()

	if clone.PrimaryWindow == original.PrimaryWindow {
		t.Fatal("clone shares the primary window pointer")
	}
	clone.SecondaryWindow.UsedPercent = 77
	if original.SecondaryWindow.UsedPercent == 77 {
		t.Error("modifying clone should not affect original")
	}
	if clone.PlanType != "pro" {
		t.Errorf("clone.PlanType = %q, want %q", clone.PlanType, "pro")
	}
}

func TestAutoSwitchConfig_Normalized(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultAutoSwitchThreshold},
		{-5, MinAutoSwitchThreshold},
		{1, 1},
		{25, 25},
		{50, 50},
		{80, MaxAutoSwitchThreshold},
	}

	for _, tt := range tests {
		cfg := AutoSwitchConfig{ThresholdPercent: tt.in}.Normalized()
		if cfg.ThresholdPercent != tt.want {
			t.Errorf("Normalized() threshold for %d = %d, want %d", tt.in, cfg.ThresholdPercent, tt.want)
		}
	}
}

func TestAutoSwitchConfig_UsedPercentLimit(t *testing.T) {
	cfg := AutoSwitchConfig{ThresholdPercent: 10}
	if got := cfg.UsedPercentLimit(); got != 90 {
		t.Errorf("UsedPercentLimit() = %v, want 90", got)
	}

	cfg = AutoSwitchConfig{ThresholdPercent: 200}
	if got := cfg.UsedPercentLimit(); got != 50 {
		t.Errorf("UsedPercentLimit() after clamping = %v, want 50", got)
	}
}

func TestClampPercent(t *testing.T) {
	if got := ClampPercent(-1); got != 0 {
		t.Errorf("ClampPercent(-1) = %v, want 0", got)
	}
	if got := ClampPercent(101); got != 100 {
		t.Errorf("ClampPercent(101) = %v, want 100", got)
	}
	if got := ClampPercent(42.5); got != 42.5 {
		t.Errorf("ClampPercent(42.5) = %v, want 42.5", got)
	}
}

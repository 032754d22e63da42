package rotation

import (
	"testing"
	"time"

	"github.com/j-veylop/codex-switcher-tui/internal/models"
)

func TestBestSwitchTarget_PicksHighestScore(t *testing.T) {
	resetsAt := testNow.Add(24 * time.Hour).Unix()
	accounts := []models.Account{
		makeAccount("low", 3, 50, 50, resetsAt),
		makeAccount("high", 9, 10, 10, resetsAt),
		makeAccount("mid", 5, 10, 10, resetsAt),
	}

	best := BestSwitchTarget(accounts, testNow)
	if best == nil {
		t.Fatal("expected a best target")
	}
	if best.Name != "high" {
		t.Errorf("best target = %q, want high", best.Name)
	}
}

func TestBestSwitchTarget_ActiveIsEligible(t *testing.T) {
	resetsAt := testNow.Add(24 * time.Hour).Unix()
	active := makeAccount("active", 9, 10, 10, resetsAt)
	active.IsActive = true
	accounts := []models.Account{
		active,
		makeAccount("other", 3, 50, 50, resetsAt),
	}

	best := BestSwitchTarget(accounts, testNow)
	if best == nil || best.Name != "active" {
		t.Error("the active account may be the best target; staying put is valid")
	}
}

func TestBestSwitchTarget_ExcludesExpiredAndExhausted(t *testing.T) {
	resetsAt := testNow.Add(24 * time.Hour).Unix()

	expired := makeAccount("expired", 10, 0, 0, resetsAt)
	expired.IsTokenExpired = true
	primarySpent := makeAccount("primary-spent", 10, 99, 0, resetsAt)
	secondarySpent := makeAccount("secondary-spent", 10, 0, 99.5, resetsAt)
	ok := makeAccount("ok", 1, 98.9, 98.9, resetsAt)

	accounts := []models.Account{expired, primarySpent, secondarySpent, ok}

	best := BestSwitchTarget(accounts, testNow)
	if best == nil {
		t.Fatal("expected a best target")
	}
	if best.Name != "ok" {
		t.Errorf("best target = %q, want ok (others are expired or at the cutoff)", best.Name)
	}
}

func TestBestSwitchTarget_NilWhenNoneEligible(t *testing.T) {
	resetsAt := testNow.Add(24 * time.Hour).Unix()
	expired := makeAccount("expired", 10, 0, 0, resetsAt)
	expired.IsTokenExpired = true

	if best := BestSwitchTarget([]models.Account{expired}, testNow); best != nil {
		t.Errorf("best target = %v, want nil", best.Name)
	}
}

func TestBestSwitchTarget_ReturnsClone(t *testing.T) {
	resetsAt := testNow.Add(24 * time.Hour).Unix()
	accounts := []models.Account{makeAccount("only", 5, 10, 10, resetsAt)}

	best := BestSwitchTarget(accounts, testNow)
	best.Usage.PrimaryWindow.UsedPercent = 77

	if accounts[0].Usage.PrimaryWindow.UsedPercent == 77 {
		t.Error("mutating the returned target should not affect the input slice")
	}
}

func TestRankedCandidates_ExcludesActive(t *testing.T) {
	resetsAt := testNow.Add(24 * time.Hour).Unix()
	active := makeAccount("active", 9, 10, 10, resetsAt)
	active.IsActive = true
	accounts := []models.Account{
		active,
		makeAccount("a", 5, 10, 10, resetsAt),
		makeAccount("b", 7, 10, 10, resetsAt),
	}

	candidates := RankedCandidates(accounts, testNow, 0)
	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(candidates))
	}
	for _, c := range candidates {
		if c.IsActive {
			t.Errorf("candidate %q should not be the active account", c.Name)
		}
	}
	if candidates[0].Name != "b" {
		t.Errorf("first candidate = %q, want the highest scoring (b)", candidates[0].Name)
	}
}

func TestRankedCandidates_LimitApplied(t *testing.T) {
	resetsAt := testNow.Add(24 * time.Hour).Unix()
	var accounts []models.Account
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		accounts = append(accounts, makeAccount(name, 5, 10, 10, resetsAt))
	}

	if got := len(RankedCandidates(accounts, testNow, 0)); got != DefaultCandidateLimit {
		t.Errorf("default limit yields %d candidates, want %d", got, DefaultCandidateLimit)
	}
	if got := len(RankedCandidates(accounts, testNow, 2)); got != 2 {
		t.Errorf("explicit limit yields %d candidates, want 2", got)
	}
}

func TestAutoSwitchTarget_RespectsLimit(t *testing.T) {
	resetsAt := testNow.Add(24 * time.Hour).Unix()
	accounts := []models.Account{
		makeAccount("over", 10, 92, 10, resetsAt),
		makeAccount("under", 2, 50, 50, resetsAt),
	}

	// Limit 90: "over" is above it in the primary window even though it
	// would pass the manual-switch cutoff.
	target := AutoSwitchTarget(accounts, 90, testNow)
	if target == nil {
		t.Fatal("expected a target")
	}
	if target.Name != "under" {
		t.Errorf("target = %q, want under", target.Name)
	}
}

func TestAutoSwitchTarget_ExcludesActiveAndExpired(t *testing.T) {
	resetsAt := testNow.Add(24 * time.Hour).Unix()
	active := makeAccount("active", 10, 0, 0, resetsAt)
	active.IsActive = true
	expired := makeAccount("expired", 10, 0, 0, resetsAt)
	expired.IsTokenExpired = true

	if target := AutoSwitchTarget([]models.Account{active, expired}, 90, testNow); target != nil {
		t.Errorf("target = %q, want nil", target.Name)
	}
}

func TestShouldAutoSwitch(t *testing.T) {
	resetsAt := testNow.Add(24 * time.Hour).Unix()

	healthy := makeAccount("healthy", 5, 50, 50, resetsAt)
	if ShouldAutoSwitch(&healthy, 90) {
		t.Error("healthy active account should not trigger a switch")
	}

	primaryOver := makeAccount("primary", 5, 90, 50, resetsAt)
	if !ShouldAutoSwitch(&primaryOver, 90) {
		t.Error("primary window at the limit should trigger a switch")
	}

	secondaryOver := makeAccount("secondary", 5, 50, 95, resetsAt)
	if !ShouldAutoSwitch(&secondaryOver, 90) {
		t.Error("secondary window over the limit should trigger a switch")
	}

	expired := makeAccount("expired", 5, 0, 0, resetsAt)
	expired.IsTokenExpired = true
	if !ShouldAutoSwitch(&expired, 90) {
		t.Error("expired token should trigger a switch regardless of usage")
	}

	if ShouldAutoSwitch(nil, 90) {
		t.Error("no active account should never trigger a switch")
	}
}

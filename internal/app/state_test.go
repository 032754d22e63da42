package app

import (
	"testing"
	"time"

	"github.com/j-veylop/codex-switcher-tui/internal/models"
)

func TestNewState(t *testing.T) {
	state := NewState()

	if !state.IsInitialLoading() {
		t.Error("new state should start in initial loading")
	}
	if state.GetAccountCount() != 0 {
		t.Errorf("new state has %d accounts, want 0", state.GetAccountCount())
	}
	if state.GetActiveAccount() != nil {
		t.Error("new state should have no active account")
	}
}

func TestSetAccounts(t *testing.T) {
	state := NewState()

	active := models.Account{ID: "id-1", Name: "work", IsActive: true}
	accounts := []models.Account{active, {ID: "id-2", Name: "personal"}}
	candidates := []models.Account{{ID: "id-2", Name: "personal"}}

	state.SetAccounts(accounts, &active, candidates)

	if state.GetAccountCount() != 2 {
		t.Errorf("account count = %d, want 2", state.GetAccountCount())
	}
	if got := state.GetActiveAccount(); got == nil || got.Name != "work" {
		t.Errorf("active account = %+v, want work", got)
	}
	if got := state.GetCandidates(); len(got) != 1 || got[0].Name != "personal" {
		t.Errorf("candidates = %+v, want [personal]", got)
	}
	if state.IsInitialLoading() {
		t.Error("SetAccounts should clear initial loading")
	}
	if state.GetLastUpdated().IsZero() {
		t.Error("SetAccounts should stamp LastUpdated")
	}
}

func TestGetAccounts_ReturnsCopy(t *testing.T) {
	state := NewState()
	state.SetAccounts([]models.Account{{ID: "id-1", Name: "work"}}, nil, nil)

	accounts := state.GetAccounts()
	accounts[0].Name = "mutated"

	if state.GetAccounts()[0].Name != "work" {
		t.Error("mutating the returned slice should not affect the state")
	}
}

func TestAutoSwitchState(t *testing.T) {
	state := NewState()

	cfg := models.AutoSwitchConfig{Enabled: true, ThresholdPercent: 20}
	state.SetAutoSwitch(cfg)

	if got := state.GetAutoSwitch(); !got.Enabled || got.ThresholdPercent != 20 {
		t.Errorf("auto switch = %+v, want %+v", got, cfg)
	}
}

func TestRefreshingFlag(t *testing.T) {
	state := NewState()

	state.SetRefreshing(true)
	if !state.IsRefreshing() {
		t.Error("IsRefreshing() = false after SetRefreshing(true)")
	}
	state.SetRefreshing(false)
	if state.IsRefreshing() {
		t.Error("IsRefreshing() = true after SetRefreshing(false)")
	}
}

func TestNotifications_AddAndRemove(t *testing.T) {
	state := NewState()

	id := state.AddNotification(NotificationInfo, "hello", time.Minute)
	if id == "" {
		t.Fatal("AddNotification returned empty id")
	}

	notifications := state.GetNotifications()
	if len(notifications) != 1 || notifications[0].Message != "hello" {
		t.Fatalf("notifications = %+v, want one 'hello'", notifications)
	}

	state.RemoveNotification(id)
	if len(state.GetNotifications()) != 0 {
		t.Error("notification should be removed")
	}
}

func TestNotifications_Cap(t *testing.T) {
	state := NewState()

	for i := 0; i < 15; i++ {
		state.AddNotification(NotificationInfo, "n", time.Minute)
	}

	if got := len(state.GetNotifications()); got > 10 {
		t.Errorf("notifications = %d, want at most 10", got)
	}
}

func TestNotifications_Expiry(t *testing.T) {
	state := NewState()

	state.AddNotification(NotificationInfo, "short", time.Nanosecond)
	time.Sleep(5 * time.Millisecond)

	if got := len(state.GetNotifications()); got != 0 {
		t.Errorf("expired notifications should not be returned, got %d", got)
	}

	state.ClearExpiredNotifications()
	state.AddNotification(NotificationInfo, "fresh", time.Minute)
	if got := len(state.GetNotifications()); got != 1 {
		t.Errorf("notifications = %d, want 1", got)
	}
}

func TestNotifications_ZeroDurationNeverExpires(t *testing.T) {
	n := Notification{CreatedAt: time.Now().Add(-time.Hour), Duration: 0}
	if n.IsExpired() {
		t.Error("zero duration notification should never expire")
	}
}

func TestLoadingNotification(t *testing.T) {
	state := NewState()

	state.SetLoadingNotification("Loading accounts...")
	notifications := state.GetNotifications()
	if len(notifications) != 1 || notifications[0].ID != LoadingNotificationID {
		t.Fatalf("notifications = %+v, want the loading notification", notifications)
	}

	// Updating reuses the same entry.
	state.SetLoadingNotification("Fetching usage...")
	notifications = state.GetNotifications()
	if len(notifications) != 1 {
		t.Fatalf("notifications = %d, want 1 after update", len(notifications))
	}
	if notifications[0].Message != "Fetching usage..." {
		t.Errorf("message = %q, want updated text", notifications[0].Message)
	}

	state.ClearLoadingNotification()
	if len(state.GetNotifications()) != 0 {
		t.Error("loading notification should be cleared")
	}
}

func TestSelectedAccountIndex(t *testing.T) {
	state := NewState()

	state.SetSelectedAccountIndex(3)
	if got := state.GetSelectedAccountIndex(); got != 3 {
		t.Errorf("selected index = %d, want 3", got)
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		in   NotificationType
		want string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
	}

	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

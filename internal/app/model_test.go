package app

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/codex-switcher-tui/internal/models"
)

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestTabID_String(t *testing.T) {
	tests := []struct {
		id   TabID
		want string
	}{
		{TabDashboard, "Dashboard"},
		{TabAccounts, "Accounts"},
		{TabInfo, "Info"},
		{TabID(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.id.String(); got != tt.want {
			t.Errorf("TabID(%d).String() = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestNewModel(t *testing.T) {
	m := NewModel(nil)
	if m == nil {
		t.Fatal("NewModel returned nil")
	}
	if m.GetActiveTab() != TabDashboard {
		t.Errorf("initial tab = %v, want %v", m.GetActiveTab(), TabDashboard)
	}
	if m.GetState() == nil {
		t.Error("GetState returned nil")
	}
	if m.IsReady() {
		t.Error("model should not be ready before a window size arrives")
	}
}

func TestModel_Init(t *testing.T) {
	m := NewModel(nil)
	if m.Init() == nil {
		t.Error("Init should return a command")
	}
}

func TestModel_WindowSize(t *testing.T) {
	m := NewModel(nil)

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	if !m.IsReady() {
		t.Error("model should be ready after a window size")
	}
	if m.GetWidth() != 100 || m.GetHeight() != 40 {
		t.Errorf("size = %dx%d, want 100x40", m.GetWidth(), m.GetHeight())
	}
}

func TestModel_TabSwitching(t *testing.T) {
	m := NewModel(nil)

	m.Update(keyRune('2'))
	if m.GetActiveTab() != TabAccounts {
		t.Errorf("tab after 2 = %v, want %v", m.GetActiveTab(), TabAccounts)
	}

	m.Update(keyRune('3'))
	if m.GetActiveTab() != TabInfo {
		t.Errorf("tab after 3 = %v, want %v", m.GetActiveTab(), TabInfo)
	}

	m.Update(keyRune('1'))
	if m.GetActiveTab() != TabDashboard {
		t.Errorf("tab after 1 = %v, want %v", m.GetActiveTab(), TabDashboard)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.GetActiveTab() != TabAccounts {
		t.Errorf("tab after tab key = %v, want %v", m.GetActiveTab(), TabAccounts)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.GetActiveTab() != TabDashboard {
		t.Errorf("tab after shift+tab = %v, want %v", m.GetActiveTab(), TabDashboard)
	}
}

func TestModel_TabSwitchWrapsAround(t *testing.T) {
	m := NewModel(nil)

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.GetActiveTab() != TabInfo {
		t.Errorf("tab after wrap = %v, want %v", m.GetActiveTab(), TabInfo)
	}
}

func TestModel_QuitKey(t *testing.T) {
	m := NewModel(nil)

	_, cmd := m.Update(keyRune('q'))
	if cmd == nil {
		t.Fatal("q should produce a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected tea.QuitMsg, got %T", cmd())
	}
}

func TestModel_HelpToggle(t *testing.T) {
	m := NewModel(nil)

	m.Update(keyRune('?'))
	if !m.showHelp {
		t.Error("? should open help")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Error("esc should close help")
	}
}

func TestModel_AccountsLoaded(t *testing.T) {
	m := NewModel(nil)
	accounts := []models.Account{{Name: "alice"}, {Name: "bob"}}

	m.Update(AccountsLoadedMsg{Accounts: accounts, ActiveAccount: &accounts[0]})

	got := m.GetState().GetAccounts()
	if len(got) != 2 {
		t.Fatalf("accounts = %d, want 2", len(got))
	}
	if m.GetState().IsInitialLoading() {
		t.Error("loading should clear once accounts arrive")
	}
}

func TestModel_AutoSwitchChanged(t *testing.T) {
	m := NewModel(nil)

	cfg := models.AutoSwitchConfig{Enabled: true, ThresholdPercent: 15}
	_, cmd := m.Update(AutoSwitchChangedMsg{Config: cfg})
	if cmd == nil {
		t.Fatal("expected a notification command")
	}

	got := m.GetState().GetAutoSwitch()
	if !got.Enabled || got.ThresholdPercent != 15 {
		t.Errorf("auto switch = %+v, want %+v", got, cfg)
	}
}

func TestModel_AddNotification(t *testing.T) {
	m := NewModel(nil)

	_, cmd := m.Update(AddNotificationMsg{
		Type:     NotificationSuccess,
		Message:  "switched",
		Duration: time.Minute,
	})
	if cmd == nil {
		t.Error("timed notifications should schedule a removal command")
	}

	notifications := m.GetState().GetNotifications()
	if len(notifications) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifications))
	}
	if notifications[0].Message != "switched" {
		t.Errorf("message = %q, want %q", notifications[0].Message, "switched")
	}
}

func TestModel_View(t *testing.T) {
	m := NewModel(nil)

	view := m.View()
	if !strings.Contains(view, "Loading") {
		t.Error("View before ready should show the loading line")
	}

	m.Update(tea.WindowSizeMsg{Width: 110, Height: 40})
	view = m.View()
	if !strings.Contains(view, "Dashboard") {
		t.Error("View should render the tab bar")
	}
}

func TestModel_RenderHelp(t *testing.T) {
	m := NewModel(nil)
	m.Update(tea.WindowSizeMsg{Width: 110, Height: 40})

	help := m.renderHelp()
	if !strings.Contains(help, "Keyboard Shortcuts") {
		t.Error("help panel should show the shortcut list")
	}
	if !strings.Contains(help, "Switch tabs") {
		t.Error("help panel should document tab navigation")
	}
}

func TestDefaultKeyMap_Help(t *testing.T) {
	k := DefaultKeyMap()
	if len(k.ShortHelp()) == 0 {
		t.Error("ShortHelp should list bindings")
	}
	if len(k.FullHelp()) == 0 {
		t.Error("FullHelp should list bindings")
	}
}

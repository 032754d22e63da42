// Package main is the entry point for the Codex Switcher TUI application.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/codex-switcher-tui/internal/app"
	"github.com/j-veylop/codex-switcher-tui/internal/config"
	"github.com/j-veylop/codex-switcher-tui/internal/services"
	"github.com/j-veylop/codex-switcher-tui/internal/ui/tabs/accounts"
	"github.com/j-veylop/codex-switcher-tui/internal/ui/tabs/dashboard"
	"github.com/j-veylop/codex-switcher-tui/internal/ui/tabs/info"
	"github.com/j-veylop/codex-switcher-tui/internal/version"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Handle help flag
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	// Run the application
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	// 1. Load configuration from .env files and environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Initialize the service manager
	// This starts the account store, usage polling and rotation control
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	// Ensure cleanup on exit
	defer svcManager.Close()

	// 3. Create the root Bubble Tea model
	model := app.NewModel(svcManager)

	// 4. Initialize tabs with shared state and services
	// Each tab receives the shared application state for consistent data access
	state := model.GetState()
	tabs := []app.Tab{
		dashboard.New(state, svcManager.UsageHistory), // Tab 0: Dashboard - active account and candidates
		accounts.New(state),                           // Tab 1: Accounts - the full pool
		info.New(state, cfg),                          // Tab 2: Info - configuration and app info
	}
	model.SetTabs(tabs)

	// 5. Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 6. Create and configure the Bubble Tea program
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),       // Use alternate screen buffer (full terminal)
		tea.WithMouseCellMotion(), // Enable mouse support for selection
	)

	// 7. Handle signals in a separate goroutine
	go func() {
		<-sigChan
		// Send quit message to the program
		p.Send(tea.Quit())
	}()

	// 8. Run the TUI program
	// This blocks until the user quits or an error occurs
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`Codex Switcher TUI - Codex account pool monitor and rotation engine

Usage:
  cxs [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-3             Switch between tabs (Dashboard, Accounts, Info)
  Tab/Shift+Tab   Navigate between tabs
  j/k, Up/Down    Navigate lists
  Enter           Switch to the selected account
  s               Switch to the best candidate
  a               Toggle auto switch
  +/-             Adjust account priority
  r               Refresh data
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  ACCOUNTS_DIR            Directory holding account auth profiles
  CODEX_AUTH_PATH         Runtime auth file the active profile is copied to
  DATABASE_PATH           SQLite database path
  USAGE_REFRESH_INTERVAL  Usage polling interval (default: 60s)
  AUTO_SWITCH_ENABLED     Enable automatic rotation (default: false)
  AUTO_SWITCH_THRESHOLD   Remaining-percent threshold for rotation (default: 10)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/codex-switcher/.env
  - ~/.codex/.env

For more information, visit: https://github.com/j-veylop/codex-switcher-tui`)
}

// Entry point for buddyterm, the terminal client for the Buddy assistant.
//
// Flow:
// 1. Resolve the application directory (~/.buddyterm or BUDDYTERM_HOME)
// 2. Scaffold it on first run and load config.yaml
// 3. Launch the TUI
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/icexbuddy/buddyterm/internal/config"
	"github.com/icexbuddy/buddyterm/internal/tui"
)

func main() {
	homeFlag := flag.String("home", "", "application directory (default ~/.buddyterm)")
	serverFlag := flag.String("server", "", "override the backend base URL")
	userFlag := flag.String("user", "", "override the user id")
	flag.Parse()

	home := *homeFlag
	if home == "" {
		resolved, err := config.ResolveHome()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resolving application directory: %v\n", err)
			os.Exit(1)
		}
		home = resolved
	}

	if err := config.Init(home); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing %s: %v\n", home, err)
		os.Exit(1)
	}

	cfg, err := config.Load(home)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if *serverFlag != "" {
		cfg.File.Server.BaseURL = *serverFlag
	}
	if *userFlag != "" {
		cfg.File.User.ID = *userFlag
	}

	p := tea.NewProgram(
		tui.NewApp(cfg),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

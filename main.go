package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"timebill/internal/api"
	"timebill/internal/store"
	"timebill/internal/tui"
)

func main() {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	s, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	endpoint, token, err := s.Remote()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading settings: %v\n", err)
		os.Exit(1)
	}

	app := tui.NewApp(s, api.New(endpoint, token))
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

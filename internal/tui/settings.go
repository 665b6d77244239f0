package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"timebill/internal/store"
)

// settingsModel edits the remote store connection: the GraphQL endpoint and
// the bearer token. Saving emits settingsSavedMsg so the app can swap its
// gateway.
type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	endpoint *string
	token    *string
}

func newSettingsModel(s *store.Store) settingsModel {
	endpoint, token := "", ""
	return settingsModel{
		store:    s,
		endpoint: &endpoint,
		token:    &token,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) capturing() bool {
	return s.formActive
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.endpoint = s.getVal(store.KeyEndpoint)
	*s.token = s.getVal(store.KeyToken)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("GraphQL endpoint").
				Placeholder("https://api.example.com/graphql").
				Value(s.endpoint),
			huh.NewInput().Title("API token").
				EchoMode(huh.EchoModePassword).
				Value(s.token),
		).Title("Remote store"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		endpoint := strings.TrimSpace(*s.endpoint)
		token := strings.TrimSpace(*s.token)
		s.store.SetSetting(store.KeyEndpoint, endpoint)
		s.store.SetSetting(store.KeyToken, token)
		return s, tea.Batch(s.refresh(), func() tea.Msg {
			return settingsSavedMsg{endpoint: endpoint, token: token}
		})
	}

	return s, cmd
}

func (s settingsModel) getVal(k string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return ""
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Settings"), "", s.form.View()),
		)
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Settings"), "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(16).Render(setting.Key)
		value := setting.Value
		if setting.Key == store.KeyToken && value != "" {
			value = strings.Repeat("•", 8)
		}
		if value == "" {
			value = mutedStyle.Render("(not set)")
		} else {
			value = highlightStyle.Render(value)
		}
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "", mutedStyle.Render("Press enter to edit"))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

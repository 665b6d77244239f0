package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"timebill/internal/api"
	"timebill/internal/store"
)

// App is the root Bubble Tea model. Each page owns its own copy of the
// client tree; switching pages discards the old copy and refetches.
type App struct {
	store  *store.Store
	gw     *api.Gateway
	width  int
	height int

	activeView viewState
	showHelp   bool

	tracker  trackerModel
	clients  clientsModel
	blocks   blocksModel
	reports  reportsModel
	settings settingsModel

	help        help.Model
	status      string
	statusIsErr bool
}

func NewApp(s *store.Store, gw *api.Gateway) App {
	h := help.New()
	h.ShowAll = false

	return App{
		store:      s,
		gw:         gw,
		activeView: viewTracker,
		tracker:    newTrackerModel(gw),
		clients:    newClientsModel(gw),
		blocks:     newBlocksModel(gw),
		reports:    newReportsModel(gw),
		settings:   newSettingsModel(s),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.tracker.Init(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.tracker.setSize(a.width, contentHeight)
		a.clients.setSize(a.width, contentHeight)
		a.blocks.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a.updateActiveView(msg)

	case tea.KeyMsg:
		// A child capturing input (edit field, confirm, form) sees every
		// key before the global bindings do.
		if a.isCapturing() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewTracker)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewClients)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewBlocks)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewReports)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % 5)
		}
		return a.updateActiveView(msg)

	case tickMsg:
		// The live elapsed durations re-render on every tick.
		return a, tickCmd()

	case clientsFetchedMsg:
		return a.routeToView(msg.view, msg)

	case changeSavedMsg:
		return a.routeToView(msg.view, msg)

	case statusMsg:
		a.status = msg.text
		a.statusIsErr = msg.isError
		return a, nil

	case settingsSavedMsg:
		// Pages share the gateway pointer; updating it in place points
		// every page at the new remote store.
		a.gw.Endpoint = msg.endpoint
		a.gw.Token = msg.token
		a.status = "Settings saved"
		a.statusIsErr = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

// switchTo activates a page with a fresh model: in-memory edits and errors
// from the previous visit are dropped and the tree is refetched.
func (a App) switchTo(view viewState) (tea.Model, tea.Cmd) {
	a.activeView = view
	a.status = ""

	contentHeight := a.height - 4
	switch view {
	case viewTracker:
		a.tracker = newTrackerModel(a.gw)
		a.tracker.setSize(a.width, contentHeight)
		return a, a.tracker.Init()
	case viewClients:
		a.clients = newClientsModel(a.gw)
		a.clients.setSize(a.width, contentHeight)
		return a, a.clients.Init()
	case viewBlocks:
		a.blocks = newBlocksModel(a.gw)
		a.blocks.setSize(a.width, contentHeight)
		return a, a.blocks.Init()
	case viewReports:
		a.reports = newReportsModel(a.gw)
		a.reports.setSize(a.width, contentHeight)
		return a, a.reports.Init()
	case viewSettings:
		a.settings = newSettingsModel(a.store)
		a.settings.setSize(a.width, contentHeight)
		return a, a.settings.refresh()
	}
	return a, nil
}

// routeToView delivers remote-store responses to the page that asked for
// them, active or not.
func (a App) routeToView(view viewState, msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch view {
	case viewTracker:
		a.tracker, cmd = a.tracker.update(msg)
	case viewClients:
		a.clients, cmd = a.clients.update(msg)
	case viewBlocks:
		a.blocks, cmd = a.blocks.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	}
	return a, cmd
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTracker:
		a.tracker, cmd = a.tracker.update(msg)
	case viewClients:
		a.clients, cmd = a.clients.update(msg)
	case viewBlocks:
		a.blocks, cmd = a.blocks.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isCapturing() bool {
	switch a.activeView {
	case viewTracker:
		return a.tracker.capturing()
	case viewClients:
		return a.clients.capturing()
	case viewBlocks:
		return a.blocks.capturing()
	case viewSettings:
		return a.settings.capturing()
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTracker:
		content = a.tracker.view()
	case viewClients:
		content = a.clients.view()
	case viewBlocks:
		content = a.blocks.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("timebill")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusIsErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	// Changes indicator for the active page.
	changes := ""
	if core, ok := a.activeCore(); ok {
		if text := core.changes.String(); text != "" {
			changes = warningStyle.Render(" " + text)
		}
	}

	left := footerStyle.Render(helpView)
	right := changes + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) activeCore() (pageCore, bool) {
	switch a.activeView {
	case viewTracker:
		return a.tracker.pageCore, true
	case viewClients:
		return a.clients.pageCore, true
	case viewBlocks:
		return a.blocks.pageCore, true
	case viewReports:
		return a.reports.pageCore, true
	}
	return pageCore{}, false
}

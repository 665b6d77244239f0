package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"timebill/internal/api"
	"timebill/internal/model"
)

var reportPalette = []lipgloss.Color{
	colorPrimary, colorWarning, colorSuccess, colorError, lipgloss.Color("69"), lipgloss.Color("141"),
}

// reportsModel charts tracked hours per client, stacked by project, next to
// each client's billing totals.
type reportsModel struct {
	pageCore

	chart barchart.Model
}

func newReportsModel(gw *api.Gateway) reportsModel {
	return reportsModel{
		pageCore: newPageCore(gw),
		chart:    barchart.New(60, 12),
	}
}

func (m reportsModel) Init() tea.Cmd {
	return m.fetch(viewReports, m.gw.ClientsWithTimeBlocks)
}

func (m reportsModel) capturing() bool { return false }

func (m reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case clientsFetchedMsg:
		m.handleFetched(msg)
		m.buildChart()
		return m, nil

	case changeSavedMsg:
		m.handleSaved(msg)
		return m, nil

	case tea.WindowSizeMsg:
		m.buildChart()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Refresh):
			m.clients = model.NewLoading[*model.ClientMap]()
			return m, m.Init()
		case key.Matches(msg, keys.ClearErrors):
			m.clearErrors()
		}
	}
	return m, nil
}

func (m *reportsModel) buildChart() {
	clients, ok := m.clients.Value()
	if !ok {
		return
	}

	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if m.height > 30 {
		chartHeight = 16
	}
	m.chart = barchart.New(chartWidth, chartHeight)

	now := time.Now()
	color := 0
	var bars []barchart.BarData
	for _, cid := range clients.KeysNewestFirst() {
		client, _ := clients.Client(cid)

		var values []barchart.BarValue
		for _, pid := range client.Projects.Keys() {
			project, _ := client.Projects.Get(pid)
			hours := project.Tracked(now).Hours()
			style := lipgloss.NewStyle().Foreground(reportPalette[color%len(reportPalette)])
			color++
			values = append(values, barchart.BarValue{
				Name:  project.Name,
				Value: hours,
				Style: style,
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Value: 0, Style: mutedStyle}}
		}

		label := client.Name
		if len(label) > 10 {
			label = label[:10]
		}
		bars = append(bars, barchart.BarData{Label: label, Values: values})
	}

	m.chart.PushAll(bars)
	m.chart.Draw()
}

func (m reportsModel) view() string {
	w := m.width - 4

	clients, ok := m.clients.Value()
	if !ok {
		return panelStyle.Width(w).Render(titleStyle.Render("Reports") + "\n\n" + mutedStyle.Render("Loading…"))
	}

	header := titleStyle.Render("Reports") + "  " + mutedStyle.Render("tracked hours by client")
	if clients.Len() == 0 {
		return panelStyle.Width(w).Render(header + "\n\n" + mutedStyle.Render("No data yet."))
	}

	parts := []string{header, "", m.chart.View(), "", m.renderTotals(w)}
	parts = append(parts, renderErrors(m.errors, m.changes)...)
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m reportsModel) renderTotals(w int) string {
	clients, _ := m.clients.Value()
	now := time.Now()

	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-20s %9s %9s %9s %9s", "Client", "Tracked", "Blocked", "Unpaid", "Paid")),
		mutedStyle.Render("  " + strings.Repeat("─", min(w-6, 62))),
	}
	for _, cid := range clients.KeysNewestFirst() {
		client, _ := clients.Client(cid)
		stats := client.BlockStats(now)
		rows = append(rows, fmt.Sprintf("  %-20s %9s %9s %9s %9s",
			client.Name, hoursText(stats.Tracked), hoursText(stats.Blocked),
			hoursText(stats.Unpaid), hoursText(stats.Paid)))
	}
	return strings.Join(rows, "\n")
}

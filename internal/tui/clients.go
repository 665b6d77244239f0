package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"timebill/internal/api"
	"timebill/internal/id"
	"timebill/internal/model"
)

type clientsRow struct {
	isProject bool
	clientID  id.ID
	project   id.ID
}

// clientsModel manages the client and project roster. New records are
// inserted locally first and echoed to the remote store, then dropped
// straight into a name edit.
type clientsModel struct {
	pageCore

	cursor int

	editing bool
	editRow clientsRow
	input   textinput.Model

	confirm       *huh.Form
	confirmVal    bool
	pendingDelete *clientsRow
}

func newClientsModel(gw *api.Gateway) clientsModel {
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 64
	return clientsModel{pageCore: newPageCore(gw), input: input}
}

func (m clientsModel) Init() tea.Cmd {
	return m.fetch(viewClients, m.gw.ClientsWithProjects)
}

func (m clientsModel) capturing() bool {
	return m.editing || m.confirm != nil
}

func (m clientsModel) rows() []clientsRow {
	clients, ok := m.clients.Value()
	if !ok {
		return nil
	}
	var rows []clientsRow
	for _, cid := range clients.KeysNewestFirst() {
		rows = append(rows, clientsRow{clientID: cid})
		client, _ := clients.Client(cid)
		for _, pid := range client.Projects.KeysNewestFirst() {
			rows = append(rows, clientsRow{isProject: true, clientID: cid, project: pid})
		}
	}
	return rows
}

func (m clientsModel) selectedRow() (clientsRow, bool) {
	rows := m.rows()
	if len(rows) == 0 || m.cursor >= len(rows) {
		return clientsRow{}, false
	}
	return rows[m.cursor], true
}

func (m clientsModel) update(msg tea.Msg) (clientsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case clientsFetchedMsg:
		m.handleFetched(msg)
		m.clampCursor()
		return m, nil

	case changeSavedMsg:
		m.handleSaved(msg)
		return m, nil

	case tea.KeyMsg:
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		if m.editing {
			return m.updateEdit(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *clientsModel) clampCursor() {
	if n := len(m.rows()); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m clientsModel) updateBrowse(msg tea.KeyMsg) (clientsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.rows())-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.New):
		return m.addClient()
	case key.Matches(msg, keys.Enter):
		return m.addProject()
	case key.Matches(msg, keys.Edit):
		return m.beginRename()
	case key.Matches(msg, keys.Delete):
		return m.askDelete()
	case key.Matches(msg, keys.Refresh):
		m.clients = model.NewLoading[*model.ClientMap]()
		return m, m.Init()
	case key.Matches(msg, keys.ClearErrors):
		m.clearErrors()
	}
	return m, nil
}

func (m clientsModel) addClient() (clientsModel, tea.Cmd) {
	clients, ok := m.clients.Value()
	if !ok {
		return m, nil
	}

	clientID := id.New()
	client := &model.Client{
		Projects:   model.NewOrderedMap[*model.Project](),
		TimeBlocks: model.NewOrderedMap[*model.TimeBlock](),
	}
	clients.Set(clientID, client)
	for i, r := range m.rows() {
		if !r.isProject && r.clientID == clientID {
			m.cursor = i
			break
		}
	}

	saveCmd := m.save(viewClients, entityPath{client: clientID},
		func(ctx context.Context) error {
			return m.gw.AddClient(ctx, clientID, "")
		})
	m2, editCmd := m.beginRename()
	return m2, tea.Batch(saveCmd, editCmd)
}

func (m clientsModel) addProject() (clientsModel, tea.Cmd) {
	row, ok := m.selectedRow()
	if !ok {
		return m, nil
	}
	clients, _ := m.clients.Value()
	client, ok := clients.Client(row.clientID)
	if !ok {
		return m, statusCmd("Client no longer exists", true)
	}

	projectID := id.New()
	client.Projects.Set(projectID, &model.Project{
		TimeEntries: model.NewOrderedMap[*model.TimeEntry](),
	})
	// Move the cursor onto the new project row, directly under its client.
	for i, r := range m.rows() {
		if r.project == projectID {
			m.cursor = i
			break
		}
	}

	saveCmd := m.save(viewClients, entityPath{client: row.clientID, project: projectID},
		func(ctx context.Context) error {
			return m.gw.AddProject(ctx, row.clientID, projectID, "")
		})
	m2, editCmd := m.beginRename()
	return m2, tea.Batch(saveCmd, editCmd)
}

func (m clientsModel) beginRename() (clientsModel, tea.Cmd) {
	row, ok := m.selectedRow()
	if !ok {
		return m, nil
	}
	clients, _ := m.clients.Value()

	var current string
	if row.isProject {
		project, ok := clients.Project(row.clientID, row.project)
		if !ok {
			return m, statusCmd("Project no longer exists", true)
		}
		current = project.Name
	} else {
		client, ok := clients.Client(row.clientID)
		if !ok {
			return m, statusCmd("Client no longer exists", true)
		}
		current = client.Name
	}

	m.editing = true
	m.editRow = row
	m.input.SetValue(current)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m clientsModel) updateEdit(msg tea.KeyMsg) (clientsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.editing = false
		m.input.Blur()
		return m, nil

	case key.Matches(msg, keys.Enter):
		m.editing = false
		m.input.Blur()
		return m, m.commitRename()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *clientsModel) commitRename() tea.Cmd {
	clients, ok := m.clients.Value()
	if !ok {
		return nil
	}
	row := m.editRow
	name := m.input.Value()

	if row.isProject {
		project, ok := clients.Project(row.clientID, row.project)
		if !ok {
			return statusCmd("Project no longer exists", true)
		}
		project.Name = name
		return m.save(viewClients, entityPath{client: row.clientID, project: row.project},
			func(ctx context.Context) error {
				return m.gw.RenameProject(ctx, row.project, name)
			})
	}

	client, ok := clients.Client(row.clientID)
	if !ok {
		return statusCmd("Client no longer exists", true)
	}
	client.Name = name
	return m.save(viewClients, entityPath{client: row.clientID},
		func(ctx context.Context) error {
			return m.gw.RenameClient(ctx, row.clientID, name)
		})
}

func (m clientsModel) askDelete() (clientsModel, tea.Cmd) {
	row, ok := m.selectedRow()
	if !ok {
		return m, nil
	}
	clients, _ := m.clients.Value()

	var title string
	if row.isProject {
		project, ok := clients.Project(row.clientID, row.project)
		if !ok {
			return m, statusCmd("Project no longer exists", true)
		}
		title = fmt.Sprintf("Delete project %q and its time entries?", project.Name)
	} else {
		client, ok := clients.Client(row.clientID)
		if !ok {
			return m, statusCmd("Client no longer exists", true)
		}
		title = fmt.Sprintf("Delete client %q and everything under it?", client.Name)
	}

	m.pendingDelete = &row
	m.confirmVal = false
	m.confirm = huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(title).Value(&m.confirmVal),
	))
	return m, m.confirm.Init()
}

func (m clientsModel) updateConfirm(msg tea.Msg) (clientsModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		m.confirm = nil
		m.pendingDelete = nil
		return m, nil
	}

	form, cmd := m.confirm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.confirm = f
	}
	if m.confirm.State != huh.StateCompleted {
		return m, cmd
	}

	row := *m.pendingDelete
	confirmed := m.confirmVal
	m.confirm = nil
	m.pendingDelete = nil
	if !confirmed {
		return m, nil
	}

	clients, ok := m.clients.Value()
	if !ok {
		return m, nil
	}

	if row.isProject {
		if !clients.RemoveProject(row.clientID, row.project) {
			return m, statusCmd("Project no longer exists", true)
		}
		m.clampCursor()
		return m, m.save(viewClients, entityPath{client: row.clientID},
			func(ctx context.Context) error {
				return m.gw.DeleteProject(ctx, row.project)
			})
	}

	if !clients.Delete(row.clientID) {
		return m, statusCmd("Client no longer exists", true)
	}
	m.clampCursor()
	return m, m.save(viewClients, entityPath{},
		func(ctx context.Context) error {
			return m.gw.DeleteClient(ctx, row.clientID)
		})
}

func (m clientsModel) view() string {
	w := m.width - 4

	if m.confirm != nil {
		return activePanelStyle.Width(w).Render(m.confirm.View())
	}

	clients, ok := m.clients.Value()
	if !ok {
		return panelStyle.Width(w).Render(titleStyle.Render("Clients") + "\n\n" + mutedStyle.Render("Loading…"))
	}

	var lines []string
	lines = append(lines, titleStyle.Render("Clients"))
	if clients.Len() == 0 {
		lines = append(lines, "", mutedStyle.Render("No clients yet. Press n to add one."))
	}

	for i, row := range m.rows() {
		selected := i == m.cursor
		cursor := "  "
		style := normalItemStyle
		if selected {
			cursor = "> "
			style = selectedItemStyle
		}

		if selected && m.editing {
			indent := ""
			if row.isProject {
				indent = "  "
			}
			lines = append(lines, style.Render(cursor+indent)+m.input.View())
			continue
		}

		if row.isProject {
			project, _ := clients.Project(row.clientID, row.project)
			if project == nil {
				continue
			}
			name := project.Name
			if name == "" {
				name = "(unnamed)"
			}
			count := project.TimeEntries.Len()
			lines = append(lines, style.Render(cursor+"  "+name)+"  "+
				mutedStyle.Render(fmt.Sprintf("%d entries", count))+syncMark(project.SyncErr))
			continue
		}

		client, _ := clients.Client(row.clientID)
		if client == nil {
			continue
		}
		name := client.Name
		if name == "" {
			name = "(unnamed)"
		}
		lines = append(lines, "\n"+style.Render(cursor+name)+syncMark(client.SyncErr))
	}

	lines = append(lines, "")
	if m.editing {
		lines = append(lines, mutedStyle.Render("  enter: save  esc: cancel"))
	} else {
		lines = append(lines, mutedStyle.Render("  n: new client  enter: new project  e: rename  d: delete  r: refresh"))
	}
	lines = append(lines, renderErrors(m.errors, m.changes)...)
	return panelStyle.Width(w).Render(strings.Join(lines, "\n"))
}

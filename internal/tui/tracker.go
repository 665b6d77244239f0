package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"timebill/internal/api"
	"timebill/internal/id"
	"timebill/internal/model"
)

type trackerRowKind int

const (
	rowClient trackerRowKind = iota
	rowProject
	rowEntry
)

type trackerRow struct {
	kind     trackerRowKind
	clientID id.ID
	project  id.ID
	entry    id.ID
}

// trackerModel is the time tracker page: clients, projects and their time
// entries, with start/stop and staged field editing.
type trackerModel struct {
	pageCore

	cursor int

	editing   bool
	editRow   trackerRow
	editField model.EntryField
	input     textinput.Model

	confirm       *huh.Form
	confirmVal    bool
	pendingDelete *trackerRow
}

func newTrackerModel(gw *api.Gateway) trackerModel {
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 64
	return trackerModel{pageCore: newPageCore(gw), input: input}
}

func (m trackerModel) Init() tea.Cmd {
	return m.fetch(viewTracker, m.gw.ClientsWithTimeEntries)
}

// capturing reports whether this page is consuming raw key input.
func (m trackerModel) capturing() bool {
	return m.editing || m.confirm != nil
}

// rows flattens the tree into the rendered row list, newest first at every
// level.
func (m trackerModel) rows() []trackerRow {
	clients, ok := m.clients.Value()
	if !ok {
		return nil
	}
	var rows []trackerRow
	for _, cid := range clients.KeysNewestFirst() {
		rows = append(rows, trackerRow{kind: rowClient, clientID: cid})
		client, _ := clients.Client(cid)
		for _, pid := range client.Projects.KeysNewestFirst() {
			rows = append(rows, trackerRow{kind: rowProject, clientID: cid, project: pid})
			project, _ := client.Projects.Get(pid)
			for _, eid := range project.TimeEntries.KeysNewestFirst() {
				rows = append(rows, trackerRow{kind: rowEntry, clientID: cid, project: pid, entry: eid})
			}
		}
	}
	return rows
}

func (m trackerModel) selectedRow() (trackerRow, bool) {
	rows := m.rows()
	if len(rows) == 0 || m.cursor >= len(rows) {
		return trackerRow{}, false
	}
	return rows[m.cursor], true
}

func (m trackerModel) update(msg tea.Msg) (trackerModel, tea.Cmd) {
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

func (m *trackerModel) clampCursor() {
	if n := len(m.rows()); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m trackerModel) updateBrowse(msg tea.KeyMsg) (trackerModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.rows())-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Start):
		return m.startEntry()
	case key.Matches(msg, keys.Stop):
		return m.stopEntry()
	case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
		return m.beginEdit(model.FieldName)
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

// startEntry opens a new running entry under the selected project. The local
// insert happens synchronously; the add (and the times of any entry stopped
// implicitly) are echoed to the remote store without waiting.
func (m trackerModel) startEntry() (trackerModel, tea.Cmd) {
	row, ok := m.selectedRow()
	if !ok || row.kind == rowClient {
		return m, statusCmd("Select a project to start tracking", true)
	}
	clients, ok := m.clients.Value()
	if !ok {
		return m, nil
	}
	project, ok := clients.Project(row.clientID, row.project)
	if !ok {
		return m, statusCmd("Project no longer exists", true)
	}

	now := time.Now()
	entryID, entry, stopped := project.Start("", now)

	// Snapshot everything the closures send: they run on their own
	// goroutine while the event loop keeps mutating the tree.
	name, started := entry.Name, entry.Started
	cmds := []tea.Cmd{
		m.save(viewTracker, entityPath{client: row.clientID, project: row.project, entry: entryID},
			func(ctx context.Context) error {
				return m.gw.AddTimeEntry(ctx, row.project, entryID, name, started, nil)
			}),
	}
	for _, stoppedID := range stopped {
		prev, _ := project.TimeEntries.Get(stoppedID)
		sid := stoppedID
		prevStarted := prev.Started
		prevStopped := copyTime(prev.Stopped)
		cmds = append(cmds,
			m.save(viewTracker, entityPath{client: row.clientID, project: row.project, entry: sid},
				func(ctx context.Context) error {
					return m.gw.SetTimeEntryTimes(ctx, sid, prevStarted, prevStopped)
				}))
	}
	return m, tea.Batch(cmds...)
}

func (m trackerModel) stopEntry() (trackerModel, tea.Cmd) {
	row, ok := m.selectedRow()
	if !ok || row.kind == rowClient {
		return m, nil
	}
	clients, ok := m.clients.Value()
	if !ok {
		return m, nil
	}
	project, ok := clients.Project(row.clientID, row.project)
	if !ok {
		return m, statusCmd("Project no longer exists", true)
	}
	entryID, entry, ok := project.Running()
	if !ok {
		return m, statusCmd("Nothing is running in this project", true)
	}

	entry.Stop(time.Now())
	started := entry.Started
	stoppedAt := copyTime(entry.Stopped)
	return m, m.save(viewTracker, entityPath{client: row.clientID, project: row.project, entry: entryID},
		func(ctx context.Context) error {
			return m.gw.SetTimeEntryTimes(ctx, entryID, started, stoppedAt)
		})
}

// copyTime detaches an optional timestamp from the tree before it crosses
// into a command closure.
func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// --- Editing ---

// editableFields lists the fields an entry offers; a running entry has no
// stop or duration fields to edit.
func editableFields(entry *model.TimeEntry) []model.EntryField {
	fields := []model.EntryField{model.FieldName, model.FieldStartDate, model.FieldStartTime}
	if entry.Stopped != nil {
		fields = append(fields, model.FieldStopDate, model.FieldStopTime, model.FieldDuration)
	}
	return fields
}

func fieldLabel(field model.EntryField) string {
	switch field {
	case model.FieldName:
		return "name"
	case model.FieldStartDate:
		return "start date"
	case model.FieldStartTime:
		return "start time"
	case model.FieldStopDate:
		return "stop date"
	case model.FieldStopTime:
		return "stop time"
	case model.FieldDuration:
		return "duration"
	}
	return ""
}

func (m trackerModel) beginEdit(field model.EntryField) (trackerModel, tea.Cmd) {
	row, ok := m.selectedRow()
	if !ok || row.kind != rowEntry {
		return m, nil
	}
	clients, _ := m.clients.Value()
	entry, ok := clients.Entry(row.clientID, row.project, row.entry)
	if !ok {
		return m, statusCmd("Entry no longer exists", true)
	}

	m.editing = true
	m.editRow = row
	m.editField = field
	m.input.SetValue(entry.DisplayText(field, time.Now()))
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m trackerModel) updateEdit(msg tea.KeyMsg) (trackerModel, tea.Cmd) {
	clients, _ := m.clients.Value()
	entry, ok := clients.Entry(m.editRow.clientID, m.editRow.project, m.editRow.entry)
	if !ok {
		// Vanished mid-edit; surface it instead of swallowing.
		m.editing = false
		return m, statusCmd("Entry no longer exists", true)
	}

	switch {
	case key.Matches(msg, keys.Back):
		entry.Edit = nil
		m.editing = false
		m.input.Blur()
		return m, nil

	case key.Matches(msg, keys.Enter):
		m.editing = false
		m.input.Blur()
		return m, m.commitEdit(entry)

	case key.Matches(msg, keys.NextField), key.Matches(msg, keys.PrevField):
		cmd := m.commitEdit(entry)
		fields := editableFields(entry)
		step := 1
		if key.Matches(msg, keys.PrevField) {
			step = len(fields) - 1
		}
		var next model.EntryField
		for i, f := range fields {
			if f == m.editField {
				next = fields[(i+step)%len(fields)]
			}
		}
		m2, focusCmd := m.beginEdit(next)
		return m2, tea.Batch(cmd, focusCmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	// Every keystroke overwrites the staged value, last write wins.
	entry.StageEdit(m.editField, m.input.Value())
	return m, cmd
}

// commitEdit merges the staged text into the entry and echoes the committed
// state to the remote store. A parse failure changes nothing and dispatches
// nothing.
func (m *trackerModel) commitEdit(entry *model.TimeEntry) tea.Cmd {
	entry.StageEdit(m.editField, m.input.Value())
	field := m.editField
	if err := entry.CommitEdit(); err != nil {
		return statusCmd(fmt.Sprintf("Edit discarded: %v", err), true)
	}

	row := m.editRow
	path := entityPath{client: row.clientID, project: row.project, entry: row.entry}
	if field == model.FieldName {
		name := entry.Name
		return m.save(viewTracker, path, func(ctx context.Context) error {
			return m.gw.RenameTimeEntry(ctx, row.entry, name)
		})
	}
	started, stopped := entry.Started, copyTime(entry.Stopped)
	return m.save(viewTracker, path, func(ctx context.Context) error {
		return m.gw.SetTimeEntryTimes(ctx, row.entry, started, stopped)
	})
}

// --- Deletion ---

func (m trackerModel) askDelete() (trackerModel, tea.Cmd) {
	row, ok := m.selectedRow()
	if !ok || row.kind != rowEntry {
		return m, nil
	}
	clients, _ := m.clients.Value()
	entry, ok := clients.Entry(row.clientID, row.project, row.entry)
	if !ok {
		return m, statusCmd("Entry no longer exists", true)
	}

	name := entry.Name
	if name == "" {
		name = "(unnamed)"
	}
	m.pendingDelete = &row
	m.confirmVal = false
	m.confirm = huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Delete time entry %q?", name)).
			Value(&m.confirmVal),
	))
	return m, m.confirm.Init()
}

func (m trackerModel) updateConfirm(msg tea.Msg) (trackerModel, tea.Cmd) {
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
	if !clients.RemoveEntry(row.clientID, row.project, row.entry) {
		return m, statusCmd("Entry no longer exists", true)
	}
	m.clampCursor()
	return m, m.save(viewTracker, entityPath{client: row.clientID, project: row.project},
		func(ctx context.Context) error {
			return m.gw.DeleteTimeEntry(ctx, row.entry)
		})
}

// --- View ---

func (m trackerModel) view() string {
	w := m.width - 4

	if m.confirm != nil {
		return activePanelStyle.Width(w).Render(m.confirm.View())
	}

	clients, ok := m.clients.Value()
	if !ok {
		return panelStyle.Width(w).Render(titleStyle.Render("Time Tracker") + "\n\n" + mutedStyle.Render("Loading…"))
	}

	now := time.Now()
	var lines []string
	lines = append(lines, titleStyle.Render("Time Tracker"))
	if clients.Len() == 0 {
		lines = append(lines, "", mutedStyle.Render("No clients yet. Create one on the Clients tab."))
	}

	rows := m.rows()
	for i, row := range rows {
		selected := i == m.cursor
		lines = append(lines, m.renderRow(clients, row, selected, now))
	}

	lines = append(lines, m.renderFooterLines()...)
	return panelStyle.Width(w).Render(strings.Join(lines, "\n"))
}

func (m trackerModel) renderRow(clients *model.ClientMap, row trackerRow, selected bool, now time.Time) string {
	cursor := "  "
	style := normalItemStyle
	if selected {
		cursor = "> "
		style = selectedItemStyle
	}

	switch row.kind {
	case rowClient:
		client, _ := clients.Client(row.clientID)
		if client == nil {
			return ""
		}
		return "\n" + style.Render(cursor+client.Name) + "  " +
			highlightStyle.Render(formatDuration(client.Tracked(now))) + syncMark(client.SyncErr)

	case rowProject:
		project, _ := clients.Project(row.clientID, row.project)
		if project == nil {
			return ""
		}
		running := ""
		if _, _, ok := project.Running(); ok {
			running = runningStyle.Render(" ●")
		}
		return style.Render(cursor+"  "+project.Name) + running +
			"  " + mutedStyle.Render(formatDuration(project.Tracked(now))) + syncMark(project.SyncErr)

	case rowEntry:
		entry, _ := clients.Entry(row.clientID, row.project, row.entry)
		if entry == nil {
			return ""
		}
		if selected && m.editing {
			return style.Render(cursor+"    ") +
				mutedStyle.Render(fieldLabel(m.editField)+": ") + m.input.View()
		}

		name := entry.Name
		if name == "" {
			name = "(unnamed)"
		}
		duration := formatDuration(entry.Elapsed(now))
		durStyle := mutedStyle
		stopped := "…"
		if entry.Stopped == nil {
			durStyle = runningStyle
		} else {
			stopped = entry.DisplayText(model.FieldStopDate, now) + " " + entry.DisplayText(model.FieldStopTime, now)
		}
		return style.Render(cursor+"    "+name) + "  " +
			mutedStyle.Render(entry.DisplayText(model.FieldStartDate, now)+" "+entry.DisplayText(model.FieldStartTime, now)+" → "+stopped) +
			"  " + durStyle.Render(duration) + syncMark(entry.SyncErr)
	}
	return ""
}

func (m trackerModel) renderFooterLines() []string {
	lines := []string{""}
	if m.editing {
		lines = append(lines, mutedStyle.Render("  enter: save  tab: next field  esc: discard"))
	} else {
		lines = append(lines, mutedStyle.Render("  s: start  x: stop  e: edit  d: delete  r: refresh  c: clear errors"))
	}
	lines = append(lines, renderErrors(m.errors, m.changes)...)
	return lines
}

// renderErrors renders the shared save-status / error-list block.
func renderErrors(errs []error, changes model.ChangesStatus) []string {
	var lines []string
	if text := changes.String(); text != "" {
		lines = append(lines, mutedStyle.Render("  "+text))
	}
	for _, err := range errs {
		lines = append(lines, errorStyle.Render("  ✗ "+err.Error()))
	}
	return lines
}

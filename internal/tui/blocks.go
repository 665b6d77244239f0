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
	"github.com/charmbracelet/lipgloss"
	"timebill/internal/api"
	"timebill/internal/id"
	"timebill/internal/model"
)

type blocksRow struct {
	isBlock  bool
	clientID id.ID
	block    id.ID
}

type blockEditKind int

const (
	blockEditNone blockEditKind = iota
	blockEditName
	blockEditDuration
	blockEditCustomID
	blockEditURL
)

// blocksModel manages billable time blocks and their invoices, with the
// blocked/unpaid/paid/tracked statistics per client.
type blocksModel struct {
	pageCore

	cursor int

	editKind blockEditKind
	editRow  blocksRow
	input    textinput.Model

	confirm        *huh.Form
	confirmVal     bool
	pendingDelete  *blocksRow
	confirmInvoice bool
}

func newBlocksModel(gw *api.Gateway) blocksModel {
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 64
	return blocksModel{pageCore: newPageCore(gw), input: input}
}

func (m blocksModel) Init() tea.Cmd {
	return m.fetch(viewBlocks, m.gw.ClientsWithTimeBlocks)
}

func (m blocksModel) capturing() bool {
	return m.editKind != blockEditNone || m.confirm != nil
}

func (m blocksModel) rows() []blocksRow {
	clients, ok := m.clients.Value()
	if !ok {
		return nil
	}
	var rows []blocksRow
	for _, cid := range clients.KeysNewestFirst() {
		rows = append(rows, blocksRow{clientID: cid})
		client, _ := clients.Client(cid)
		for _, bid := range client.TimeBlocks.KeysNewestFirst() {
			rows = append(rows, blocksRow{isBlock: true, clientID: cid, block: bid})
		}
	}
	return rows
}

func (m blocksModel) selectedRow() (blocksRow, bool) {
	rows := m.rows()
	if len(rows) == 0 || m.cursor >= len(rows) {
		return blocksRow{}, false
	}
	return rows[m.cursor], true
}

func (m blocksModel) selectedBlock() (blocksRow, *model.TimeBlock, bool) {
	row, ok := m.selectedRow()
	if !ok || !row.isBlock {
		return blocksRow{}, nil, false
	}
	clients, _ := m.clients.Value()
	block, ok := clients.Block(row.clientID, row.block)
	if !ok {
		return blocksRow{}, nil, false
	}
	return row, block, true
}

func (m blocksModel) update(msg tea.Msg) (blocksModel, tea.Cmd) {
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
		if m.editKind != blockEditNone {
			return m.updateEdit(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *blocksModel) clampCursor() {
	if n := len(m.rows()); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m blocksModel) updateBrowse(msg tea.KeyMsg) (blocksModel, tea.Cmd) {
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
		return m.addBlock()
	case key.Matches(msg, keys.Edit):
		return m.beginEdit(blockEditName)
	case key.Matches(msg, keys.Duration):
		return m.beginEdit(blockEditDuration)
	case key.Matches(msg, keys.Status):
		return m.cycleStatus()
	case key.Matches(msg, keys.Invoice):
		return m.editInvoice()
	case key.Matches(msg, keys.URL):
		return m.beginEdit(blockEditURL)
	case key.Matches(msg, keys.Stop):
		return m.askDeleteInvoice()
	case key.Matches(msg, keys.Delete):
		return m.askDeleteBlock()
	case key.Matches(msg, keys.Refresh):
		m.clients = model.NewLoading[*model.ClientMap]()
		return m, m.Init()
	case key.Matches(msg, keys.ClearErrors):
		m.clearErrors()
	}
	return m, nil
}

// addBlock creates a block under the selected client with the previous
// block's duration (or the default) carried over.
func (m blocksModel) addBlock() (blocksModel, tea.Cmd) {
	row, ok := m.selectedRow()
	if !ok {
		return m, statusCmd("Select a client first", true)
	}
	clients, _ := m.clients.Value()
	client, ok := clients.Client(row.clientID)
	if !ok {
		return m, statusCmd("Client no longer exists", true)
	}

	blockID, block := client.AddTimeBlock()
	for i, r := range m.rows() {
		if r.block == blockID {
			m.cursor = i
			break
		}
	}

	// Snapshot before the closure crosses goroutines; the event loop keeps
	// mutating the block meanwhile.
	name, status, duration := block.Name, block.Status, block.Duration
	return m, m.save(viewBlocks, entityPath{client: row.clientID, block: blockID},
		func(ctx context.Context) error {
			return m.gw.AddTimeBlock(ctx, row.clientID, blockID, name, status, duration)
		})
}

func (m blocksModel) cycleStatus() (blocksModel, tea.Cmd) {
	row, block, ok := m.selectedBlock()
	if !ok {
		return m, nil
	}

	switch block.Status {
	case model.StatusNonBillable:
		block.Status = model.StatusUnpaid
	case model.StatusUnpaid:
		block.Status = model.StatusPaid
	default:
		block.Status = model.StatusNonBillable
	}

	status := block.Status
	return m, m.save(viewBlocks, entityPath{client: row.clientID, block: row.block},
		func(ctx context.Context) error {
			return m.gw.SetTimeBlockStatus(ctx, row.block, status)
		})
}

// editInvoice edits the invoice custom id, attaching an invoice first when
// the block has none.
func (m blocksModel) editInvoice() (blocksModel, tea.Cmd) {
	row, block, ok := m.selectedBlock()
	if !ok {
		return m, nil
	}

	var attachCmd tea.Cmd
	if block.Invoice == nil {
		block.AttachInvoice()
		invoiceID := id.New()
		attachCmd = m.save(viewBlocks, entityPath{client: row.clientID, block: row.block},
			func(ctx context.Context) error {
				return m.gw.AddInvoice(ctx, row.block, invoiceID, "", "")
			})
	}

	m2, editCmd := m.beginEdit(blockEditCustomID)
	return m2, tea.Batch(attachCmd, editCmd)
}

func (m blocksModel) beginEdit(kind blockEditKind) (blocksModel, tea.Cmd) {
	row, block, ok := m.selectedBlock()
	if !ok {
		return m, nil
	}

	var current string
	switch kind {
	case blockEditName:
		current = block.Name
	case blockEditDuration:
		current = block.DurationText()
	case blockEditCustomID:
		if block.Invoice == nil {
			return m, statusCmd("No invoice on this block", true)
		}
		current = block.Invoice.CustomID
	case blockEditURL:
		if block.Invoice == nil {
			return m, statusCmd("No invoice on this block", true)
		}
		current = block.Invoice.URL
	}

	m.editKind = kind
	m.editRow = row
	m.input.SetValue(current)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m blocksModel) updateEdit(msg tea.KeyMsg) (blocksModel, tea.Cmd) {
	clients, _ := m.clients.Value()
	block, ok := clients.Block(m.editRow.clientID, m.editRow.block)
	if !ok {
		m.editKind = blockEditNone
		return m, statusCmd("Time block no longer exists", true)
	}

	switch {
	case key.Matches(msg, keys.Back):
		if m.editKind == blockEditDuration {
			block.DurationEdit = nil
		}
		m.editKind = blockEditNone
		m.input.Blur()
		return m, nil

	case key.Matches(msg, keys.Enter):
		kind := m.editKind
		m.editKind = blockEditNone
		m.input.Blur()
		return m, m.commitEdit(kind, block)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.editKind == blockEditDuration {
		block.StageDuration(m.input.Value())
	}
	return m, cmd
}

func (m *blocksModel) commitEdit(kind blockEditKind, block *model.TimeBlock) tea.Cmd {
	row := m.editRow
	path := entityPath{client: row.clientID, block: row.block}
	text := m.input.Value()

	switch kind {
	case blockEditName:
		block.Name = text
		return m.save(viewBlocks, path, func(ctx context.Context) error {
			return m.gw.RenameTimeBlock(ctx, row.block, text)
		})

	case blockEditDuration:
		block.StageDuration(text)
		if err := block.CommitDuration(); err != nil {
			return statusCmd(fmt.Sprintf("Edit discarded: %v", err), true)
		}
		duration := block.Duration
		return m.save(viewBlocks, path, func(ctx context.Context) error {
			return m.gw.SetTimeBlockDuration(ctx, row.block, duration)
		})

	case blockEditCustomID:
		if block.Invoice == nil {
			return statusCmd("No invoice on this block", true)
		}
		block.Invoice.CustomID = text
		return m.save(viewBlocks, path, func(ctx context.Context) error {
			return m.gw.SetInvoiceCustomID(ctx, row.block, text)
		})

	case blockEditURL:
		if block.Invoice == nil {
			return statusCmd("No invoice on this block", true)
		}
		block.Invoice.URL = text
		return m.save(viewBlocks, path, func(ctx context.Context) error {
			return m.gw.SetInvoiceURL(ctx, row.block, text)
		})
	}
	return nil
}

func (m blocksModel) askDeleteBlock() (blocksModel, tea.Cmd) {
	row, block, ok := m.selectedBlock()
	if !ok {
		return m, nil
	}

	name := block.Name
	if name == "" {
		name = hoursText(block.Duration)
	}
	m.pendingDelete = &row
	m.confirmInvoice = false
	m.confirmVal = false
	m.confirm = huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Delete time block %q and its invoice?", name)).
			Value(&m.confirmVal),
	))
	return m, m.confirm.Init()
}

func (m blocksModel) askDeleteInvoice() (blocksModel, tea.Cmd) {
	row, block, ok := m.selectedBlock()
	if !ok || block.Invoice == nil {
		return m, nil
	}

	name := block.Name
	if name == "" {
		name = hoursText(block.Duration)
	}
	m.pendingDelete = &row
	m.confirmInvoice = true
	m.confirmVal = false
	m.confirm = huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Remove the invoice from %q?", name)).
			Value(&m.confirmVal),
	))
	return m, m.confirm.Init()
}

func (m blocksModel) updateConfirm(msg tea.Msg) (blocksModel, tea.Cmd) {
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
	forInvoice := m.confirmInvoice
	m.confirm = nil
	m.pendingDelete = nil
	m.confirmInvoice = false
	if !confirmed {
		return m, nil
	}

	clients, ok := m.clients.Value()
	if !ok {
		return m, nil
	}

	if forInvoice {
		if !clients.RemoveInvoice(row.clientID, row.block) {
			return m, statusCmd("Invoice no longer exists", true)
		}
		return m, m.save(viewBlocks, entityPath{client: row.clientID, block: row.block},
			func(ctx context.Context) error {
				return m.gw.DeleteInvoice(ctx, row.block)
			})
	}

	if !clients.RemoveBlock(row.clientID, row.block) {
		return m, statusCmd("Time block no longer exists", true)
	}
	m.clampCursor()
	return m, m.save(viewBlocks, entityPath{client: row.clientID},
		func(ctx context.Context) error {
			return m.gw.DeleteTimeBlock(ctx, row.block)
		})
}

func (m blocksModel) view() string {
	w := m.width - 4

	if m.confirm != nil {
		return activePanelStyle.Width(w).Render(m.confirm.View())
	}

	clients, ok := m.clients.Value()
	if !ok {
		return panelStyle.Width(w).Render(titleStyle.Render("Time Blocks") + "\n\n" + mutedStyle.Render("Loading…"))
	}

	now := time.Now()
	var lines []string
	lines = append(lines, titleStyle.Render("Time Blocks"))
	if clients.Len() == 0 {
		lines = append(lines, "", mutedStyle.Render("No clients yet. Create one on the Clients tab."))
	}

	for i, row := range m.rows() {
		selected := i == m.cursor
		cursor := "  "
		style := normalItemStyle
		if selected {
			cursor = "> "
			style = selectedItemStyle
		}

		if !row.isBlock {
			client, _ := clients.Client(row.clientID)
			if client == nil {
				continue
			}
			stats := client.BlockStats(now)
			lines = append(lines,
				"\n"+style.Render(cursor+client.Name)+syncMark(client.SyncErr),
				mutedStyle.Render(fmt.Sprintf("    blocked %s  unpaid %s  paid %s  tracked %s  to block %s",
					hoursText(stats.Blocked), hoursText(stats.Unpaid), hoursText(stats.Paid),
					hoursText(stats.Tracked), hoursText(stats.ToBlock()))))
			continue
		}

		block, _ := clients.Block(row.clientID, row.block)
		if block == nil {
			continue
		}

		if selected && m.editKind != blockEditNone {
			lines = append(lines, style.Render(cursor+"  ")+
				mutedStyle.Render(blockEditLabel(m.editKind)+": ")+m.input.View())
			continue
		}

		name := block.Name
		if name == "" {
			name = "(unnamed)"
		}
		line := style.Render(cursor+"  "+name) + "  " +
			highlightStyle.Render(hoursText(block.Duration)) + "  " +
			statusStyle(block.Status).Render(block.Status.String())
		if block.Invoice != nil {
			invoice := "invoice"
			if block.Invoice.CustomID != "" {
				invoice = "invoice " + block.Invoice.CustomID
			}
			line += "  " + successStyle.Render(invoice)
		}
		lines = append(lines, line+syncMark(block.SyncErr))
	}

	lines = append(lines, "")
	if m.editKind != blockEditNone {
		lines = append(lines, mutedStyle.Render("  enter: save  esc: cancel"))
	} else {
		lines = append(lines, mutedStyle.Render("  n: new block  e: rename  h: hours  p: status  i: invoice  u: url  x: remove invoice  d: delete"))
	}
	lines = append(lines, renderErrors(m.errors, m.changes)...)
	return panelStyle.Width(w).Render(strings.Join(lines, "\n"))
}

func blockEditLabel(kind blockEditKind) string {
	switch kind {
	case blockEditName:
		return "name"
	case blockEditDuration:
		return "hours"
	case blockEditCustomID:
		return "invoice id"
	case blockEditURL:
		return "invoice url"
	}
	return ""
}

func statusStyle(status model.TimeBlockStatus) lipgloss.Style {
	switch status {
	case model.StatusPaid:
		return successStyle
	case model.StatusUnpaid:
		return warningStyle
	}
	return mutedStyle
}

package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"timebill/internal/api"
	"timebill/internal/id"
	"timebill/internal/model"
	"timebill/internal/timeutil"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTracker viewState = iota
	viewClients
	viewBlocks
	viewReports
	viewSettings
)

var viewNames = []string{"Tracker", "Clients", "Blocks", "Reports", "Settings"}

// --- Messages ---

// clientsFetchedMsg delivers a fetched entity tree (or the fetch error) to
// the page that asked for it.
type clientsFetchedMsg struct {
	view    viewState
	clients *model.ClientMap
	err     error
}

// changeSavedMsg resolves one dispatched mutation. It never carries entity
// data; only the error (if any) is consumed.
type changeSavedMsg struct {
	view viewState
	path entityPath
	err  error
}

type statusMsg struct {
	text    string
	isError bool
}

type settingsSavedMsg struct {
	endpoint string
	token    string
}

type tickMsg time.Time

// entityPath addresses an entity in the tree for sync-error bookkeeping.
// Unset segments are empty.
type entityPath struct {
	client  id.ID
	project id.ID
	entry   id.ID
	block   id.ID
}

// --- Shared page state ---

// pageCore is the state every page carries: the gateway, the wrapped entity
// tree, the accumulated remote errors and the aggregate save status.
type pageCore struct {
	gw      *api.Gateway
	clients model.RemoteData[*model.ClientMap]
	errors  []error
	changes model.ChangesStatus
	width   int
	height  int
}

func newPageCore(gw *api.Gateway) pageCore {
	return pageCore{gw: gw, clients: model.NewLoading[*model.ClientMap]()}
}

func (c *pageCore) setSize(w, h int) {
	c.width = w
	c.height = h
}

// fetch issues the page's query; the result comes back as clientsFetchedMsg.
func (c *pageCore) fetch(view viewState, query func(context.Context) (*model.ClientMap, error)) tea.Cmd {
	return func() tea.Msg {
		clients, err := query(context.Background())
		return clientsFetchedMsg{view: view, clients: clients, err: err}
	}
}

// handleFetched loads the tree, or records the error and leaves the wrapper
// in Loading.
func (c *pageCore) handleFetched(msg clientsFetchedMsg) {
	if msg.err != nil {
		c.errors = append(c.errors, msg.err)
		return
	}
	c.clients = model.NewLoaded(msg.clients)
}

// save dispatches one fire-and-forget mutation for a committed local change.
// Local editing continues immediately; the resolution only feeds the error
// list and the per-entity sync flag, never the tree.
func (c *pageCore) save(view viewState, path entityPath, call func(context.Context) error) tea.Cmd {
	c.changes.Begin()
	return func() tea.Msg {
		return changeSavedMsg{view: view, path: path, err: call(context.Background())}
	}
}

// handleSaved resolves one mutation: bookkeeping only, no rollback.
func (c *pageCore) handleSaved(msg changeSavedMsg) {
	c.changes.End(time.Now())
	if msg.err != nil {
		c.errors = append(c.errors, msg.err)
		c.setSyncErr(msg.path, msg.err.Error())
		return
	}
	c.setSyncErr(msg.path, "")
}

// setSyncErr flags the deepest entity the path still reaches. An entity
// deleted while its mutation was in flight is simply gone; nothing to flag.
func (c *pageCore) setSyncErr(path entityPath, text string) {
	clients, ok := c.clients.Value()
	if !ok {
		return
	}
	if entry, ok := clients.Entry(path.client, path.project, path.entry); ok && path.entry != "" {
		entry.SyncErr = text
		return
	}
	if block, ok := clients.Block(path.client, path.block); ok && path.block != "" {
		block.SyncErr = text
		return
	}
	if project, ok := clients.Project(path.client, path.project); ok && path.project != "" {
		project.SyncErr = text
		return
	}
	if client, ok := clients.Client(path.client); ok {
		client.SyncErr = text
	}
}

// clearErrors empties the page error list and every per-entity sync flag.
func (c *pageCore) clearErrors() {
	c.errors = nil
	if clients, ok := c.clients.Value(); ok {
		clients.ClearSyncErrs()
	}
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	return timeutil.FormatClockDuration(d)
}

func hoursText(d time.Duration) string {
	return timeutil.FormatDecimalHours(d) + "h"
}

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

func syncMark(syncErr string) string {
	if syncErr == "" {
		return ""
	}
	return errorStyle.Render(" ⚠ not saved")
}

package model

import "timebill/internal/id"

// ClientMap is the entity tree: every fetched client with its owned
// projects, time blocks, entries and invoices, keyed by id at each level.
// Lookups short-circuit on a missing link and report ok=false instead of
// panicking, so handlers racing a delete simply have no effect.
type ClientMap struct {
	OrderedMap[*Client]
}

func NewClientMap() *ClientMap {
	return &ClientMap{OrderedMap[*Client]{values: make(map[id.ID]*Client)}}
}

func (m *ClientMap) Client(clientID id.ID) (*Client, bool) {
	return m.Get(clientID)
}

func (m *ClientMap) Project(clientID, projectID id.ID) (*Project, bool) {
	client, ok := m.Get(clientID)
	if !ok {
		return nil, false
	}
	return client.Projects.Get(projectID)
}

func (m *ClientMap) Entry(clientID, projectID, entryID id.ID) (*TimeEntry, bool) {
	project, ok := m.Project(clientID, projectID)
	if !ok {
		return nil, false
	}
	return project.TimeEntries.Get(entryID)
}

func (m *ClientMap) Block(clientID, blockID id.ID) (*TimeBlock, bool) {
	client, ok := m.Get(clientID)
	if !ok {
		return nil, false
	}
	return client.TimeBlocks.Get(blockID)
}

func (m *ClientMap) Invoice(clientID, blockID id.ID) (*Invoice, bool) {
	block, ok := m.Block(clientID, blockID)
	if !ok || block.Invoice == nil {
		return nil, false
	}
	return block.Invoice, true
}

// RemoveProject deletes a project from its client; false means some link of
// the chain had already vanished.
func (m *ClientMap) RemoveProject(clientID, projectID id.ID) bool {
	client, ok := m.Get(clientID)
	if !ok {
		return false
	}
	return client.Projects.Delete(projectID)
}

func (m *ClientMap) RemoveEntry(clientID, projectID, entryID id.ID) bool {
	project, ok := m.Project(clientID, projectID)
	if !ok {
		return false
	}
	return project.TimeEntries.Delete(entryID)
}

func (m *ClientMap) RemoveBlock(clientID, blockID id.ID) bool {
	client, ok := m.Get(clientID)
	if !ok {
		return false
	}
	return client.TimeBlocks.Delete(blockID)
}

// RemoveInvoice detaches the invoice from a block.
func (m *ClientMap) RemoveInvoice(clientID, blockID id.ID) bool {
	block, ok := m.Block(clientID, blockID)
	if !ok || block.Invoice == nil {
		return false
	}
	block.Invoice = nil
	return true
}

// ClearSyncErrs resets every per-entity sync failure flag, the counterpart
// of clearing the page error list.
func (m *ClientMap) ClearSyncErrs() {
	for _, cid := range m.Keys() {
		client, _ := m.Get(cid)
		client.SyncErr = ""
		for _, pid := range client.Projects.Keys() {
			project, _ := client.Projects.Get(pid)
			project.SyncErr = ""
			for _, eid := range project.TimeEntries.Keys() {
				entry, _ := project.TimeEntries.Get(eid)
				entry.SyncErr = ""
			}
		}
		for _, bid := range client.TimeBlocks.Keys() {
			block, _ := client.TimeBlocks.Get(bid)
			block.SyncErr = ""
		}
	}
}

package model

import (
	"testing"
	"time"

	"timebill/internal/id"
)

func TestTreeLookupsShortCircuit(t *testing.T) {
	m := NewClientMap()
	cid := id.New()
	m.Set(cid, NewClient("Acme"))

	if _, ok := m.Client(id.New()); ok {
		t.Fatal("missing client should miss")
	}
	if _, ok := m.Project(cid, id.New()); ok {
		t.Fatal("missing project should miss")
	}
	if _, ok := m.Entry(id.New(), id.New(), id.New()); ok {
		t.Fatal("fully missing chain should miss")
	}
	if _, ok := m.Block(cid, id.New()); ok {
		t.Fatal("missing block should miss")
	}
	if _, ok := m.Invoice(cid, id.New()); ok {
		t.Fatal("missing invoice should miss")
	}
}

func TestTreeRemoveReportsNotFound(t *testing.T) {
	m := NewClientMap()
	cid := id.New()
	client := NewClient("Acme")
	m.Set(cid, client)

	pid := id.New()
	client.Projects.Set(pid, NewProject("Website"))

	if !m.RemoveProject(cid, pid) {
		t.Fatal("remove of present project should succeed")
	}
	if m.RemoveProject(cid, pid) {
		t.Fatal("second remove should report not found")
	}
	if m.RemoveEntry(cid, pid, id.New()) {
		t.Fatal("remove under deleted project should report not found")
	}
}

func TestClientDeleteDropsSubtree(t *testing.T) {
	m := NewClientMap()
	cid := id.New()
	client := NewClient("Acme")
	pid := id.New()
	client.Projects.Set(pid, NewProject("Website"))
	m.Set(cid, client)

	if !m.Delete(cid) {
		t.Fatal("delete should succeed")
	}
	if _, ok := m.Project(cid, pid); ok {
		t.Fatal("children must be unreachable after client delete")
	}
}

func TestRemoveInvoice(t *testing.T) {
	m := NewClientMap()
	cid := id.New()
	client := NewClient("Acme")
	m.Set(cid, client)
	bid, block := client.AddTimeBlock()
	block.AttachInvoice()

	if !m.RemoveInvoice(cid, bid) {
		t.Fatal("remove invoice should succeed")
	}
	if m.RemoveInvoice(cid, bid) {
		t.Fatal("second remove should report not found")
	}
}

func TestClearSyncErrs(t *testing.T) {
	m := NewClientMap()
	cid := id.New()
	client := NewClient("Acme")
	client.SyncErr = "boom"
	pid := id.New()
	project := NewProject("Website")
	project.SyncErr = "boom"
	eid := id.New()
	project.TimeEntries.Set(eid, &TimeEntry{Started: time.Now(), SyncErr: "boom"})
	client.Projects.Set(pid, project)
	bid, block := client.AddTimeBlock()
	block.SyncErr = "boom"
	m.Set(cid, client)

	m.ClearSyncErrs()

	if client.SyncErr != "" || project.SyncErr != "" || block.SyncErr != "" {
		t.Fatal("sync errors not cleared")
	}
	entry, _ := m.Entry(cid, pid, eid)
	if entry.SyncErr != "" {
		t.Fatal("entry sync error not cleared")
	}
	_ = bid
}

// Tree state is driven only by local synchronous actions; a create followed
// by an immediate delete leaves no trace regardless of when the two remote
// mutations would resolve.
func TestOptimisticIndependence(t *testing.T) {
	m := NewClientMap()
	cid := id.New()
	m.Set(cid, NewClient("Acme"))
	if !m.Delete(cid) {
		t.Fatal("delete should succeed")
	}
	if m.Len() != 0 {
		t.Fatal("tree should be empty")
	}
	// Mutation acknowledgments carry no entity data, so nothing can
	// resurrect the client afterwards.
}

// End-to-end scenario across the tree: add client, add project, start, stop,
// aggregate.
func TestScenarioTrackTwoSeconds(t *testing.T) {
	m := NewClientMap()

	clientID := id.New()
	client := NewClient("Acme")
	m.Set(clientID, client)
	if got, ok := m.Client(clientID); !ok || got.Name != "Acme" || got.Projects.Len() != 0 || got.TimeBlocks.Len() != 0 {
		t.Fatalf("unexpected fresh client: %+v", got)
	}

	projectID := id.New()
	client.Projects.Set(projectID, NewProject("Website"))
	if client.Projects.Len() != 1 {
		t.Fatal("project map should gain one entry")
	}

	project, _ := m.Project(clientID, projectID)
	t0 := time.Now()
	entryID, entry, _ := project.Start("", t0)
	if entry.Stopped != nil {
		t.Fatal("new entry should be running")
	}

	t1 := t0.Add(2 * time.Second)
	got, _ := m.Entry(clientID, projectID, entryID)
	if !got.Stop(t1) {
		t.Fatal("stop should succeed")
	}
	if got.Elapsed(t1) != 2*time.Second {
		t.Fatalf("expected 2s, got %v", got.Elapsed(t1))
	}
	if client.Tracked(t1) != 2*time.Second {
		t.Fatalf("expected 2s tracked for client, got %v", client.Tracked(t1))
	}
}
